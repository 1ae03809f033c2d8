// Package summary computes period climate summaries and 24 hour maximums
// from stored daily and hourly data.
package summary

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/observability"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/pkg/climate"
	"github.com/chrissnell/remoteclimate/pkg/config"
)

// ErrInvalidRange is returned when end is before begin.
var ErrInvalidRange = errors.New("end date is before begin date")

// HourlySource supplies one day of hourly amounts.
type HourlySource interface {
	HourlyDay(ctx context.Context, stationID int, element database.HourlyElement, date climate.Date) (climate.DayHours, error)
}

// AggregateSource runs aggregates over the daily observations and reads
// them back when an aggregate comes up empty.
type AggregateSource interface {
	BuildElement(ctx context.Context, stationID int, begin, end climate.Date, column string, op climatedb.AggregateOp) climate.Amount
	DaysPastThreshold(ctx context.Context, stationID int, begin, end climate.Date, column string, threshold float64, greaterOrEqual bool) climate.Amount
	CountEqual(ctx context.Context, stationID int, begin, end climate.Date, column string, value float64) climate.Amount
	DailyRange(ctx context.Context, stationID int, begin, end climate.Date) ([]climate.Observation, error)
}

// Service computes summaries for any configured station.
type Service struct {
	hourly  HourlySource
	agg     AggregateSource
	metrics *observability.Metrics
	logger  *zap.SugaredLogger

	maxRangeDays     int
	precipThresholds []float64
	snowThresholds   []float64
}

// NewService creates a summary service. Zero values in cfg fall back to the
// configuration defaults.
func NewService(hourly HourlySource, agg AggregateSource, cfg config.ClimateData, metrics *observability.Metrics) *Service {
	if cfg.MaxSearchRangeDays <= 0 || cfg.MaxSearchRangeDays > climate.MaxSearchRangeDays {
		cfg.MaxSearchRangeDays = climate.MaxSearchRangeDays
	}
	if len(cfg.PrecipThresholds) == 0 {
		cfg.PrecipThresholds = config.DefaultPrecipThresholds
	}
	if len(cfg.SnowThresholds) == 0 {
		cfg.SnowThresholds = config.DefaultSnowThresholds
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	return &Service{
		hourly:           hourly,
		agg:              agg,
		metrics:          metrics,
		logger:           log.Named("summary"),
		maxRangeDays:     cfg.MaxSearchRangeDays,
		precipThresholds: cfg.PrecipThresholds,
		snowThresholds:   cfg.SnowThresholds,
	}
}

// scanStart is the first day whose hours are loaded. Buffers skip their
// offset 0, so the scan starts the day before begin to reach the whole of
// begin and the windows ending on it.
func scanStart(begin climate.Date) climate.Date {
	return begin.AddDays(-1)
}

// Max24Hour finds the largest 24 hour total of element between begin and
// end. A range longer than the configured maximum is logged and reported as
// missing with no occurrences.
func (s *Service) Max24Hour(ctx context.Context, stationID int, element database.HourlyElement, begin, end climate.Date) (climate.WindowMax, error) {
	if end.Before(begin) {
		return climate.WindowMax{}, ErrInvalidRange
	}

	label := string(element)
	first := scanStart(begin)
	n := first.DaysUntil(end) + 1
	if n > s.maxRangeDays {
		s.logger.Warnw("24 hour maximum search range too long",
			"station_id", stationID, "element", label,
			"begin", begin.String(), "end", end.String(),
			"days", n, "max_days", s.maxRangeDays)
		s.metrics.WindowScans.WithLabelValues(label, "skipped").Inc()
		return climate.WindowMax{Max: climate.Missing()}, nil
	}

	started := time.Now()
	defer func() { s.metrics.WindowScanDuration.Observe(time.Since(started).Seconds()) }()

	days := make([]climate.DayHours, n)
	for i := range days {
		d, err := s.hourly.HourlyDay(ctx, stationID, element, first.AddDays(i))
		if err != nil {
			s.metrics.WindowScans.WithLabelValues(label, "error").Inc()
			return climate.WindowMax{}, fmt.Errorf("24 hour %s maximum for station %d: %w", label, stationID, err)
		}
		days[i] = d
	}

	m, err := climate.ScanRange(first, days)
	if err != nil {
		s.metrics.WindowScans.WithLabelValues(label, "error").Inc()
		return climate.WindowMax{}, fmt.Errorf("24 hour %s maximum for station %d: %w", label, stationID, err)
	}
	s.metrics.WindowScans.WithLabelValues(label, "ok").Inc()
	return m, nil
}

// ThresholdCount is the number of days at or past a threshold.
type ThresholdCount struct {
	Threshold float64        `json:"threshold"`
	Days      climate.Amount `json:"days"`
}

// PeriodSummary is the climate summary for a station over a date range.
type PeriodSummary struct {
	StationID int          `json:"station_id"`
	Begin     climate.Date `json:"begin"`
	End       climate.Date `json:"end"`

	MaxTemp     climate.Amount `json:"max_temp"`
	MinTemp     climate.Amount `json:"min_temp"`
	MeanMaxTemp climate.Amount `json:"mean_max_temp"`
	MeanMinTemp climate.Amount `json:"mean_min_temp"`
	MeanTemp    climate.Amount `json:"mean_temp"`

	DaysMaxAtOrAbove90 climate.Amount `json:"days_max_ge_90"`
	DaysMaxAtOrBelow32 climate.Amount `json:"days_max_le_32"`
	DaysMinAtOrBelow32 climate.Amount `json:"days_min_le_32"`
	DaysMinAtOrBelow0  climate.Amount `json:"days_min_le_0"`

	PrecipTotal     climate.Amount   `json:"precip_total"`
	PrecipDays      []ThresholdCount `json:"precip_days"`
	PrecipTraceDays climate.Amount   `json:"precip_trace_days"`
	SnowTotal       climate.Amount   `json:"snow_total"`
	SnowDays        []ThresholdCount `json:"snow_days"`
	MaxSnowDepth    climate.Amount   `json:"max_snow_depth"`

	HeatingDegreeDays climate.Amount `json:"heating_degree_days"`
	CoolingDegreeDays climate.Amount `json:"cooling_degree_days"`

	Max24HourPrecip climate.WindowMax `json:"max_24h_precip"`
	Max24HourSnow   climate.WindowMax `json:"max_24h_snow"`
}

// PeriodSummary builds the summary for begin through end. Aggregate failures
// show up as missing values; only hourly fetch failures are returned.
func (s *Service) PeriodSummary(ctx context.Context, stationID int, begin, end climate.Date) (PeriodSummary, error) {
	if end.Before(begin) {
		return PeriodSummary{}, ErrInvalidRange
	}

	build := func(column string, op climatedb.AggregateOp) climate.Amount {
		return s.agg.BuildElement(ctx, stationID, begin, end, column, op)
	}
	past := func(column string, threshold float64, ge bool) climate.Amount {
		return s.agg.DaysPastThreshold(ctx, stationID, begin, end, column, threshold, ge)
	}

	sum := PeriodSummary{
		StationID: stationID,
		Begin:     begin,
		End:       end,

		MaxTemp:     build(climatedb.ColumnMaxTemp, climatedb.OpMax),
		MinTemp:     build(climatedb.ColumnMinTemp, climatedb.OpMin),
		MeanMaxTemp: build(climatedb.ColumnMaxTemp, climatedb.OpAvg),
		MeanMinTemp: build(climatedb.ColumnMinTemp, climatedb.OpAvg),

		DaysMaxAtOrAbove90: past(climatedb.ColumnMaxTemp, 90, true),
		DaysMaxAtOrBelow32: past(climatedb.ColumnMaxTemp, 32, false),
		DaysMinAtOrBelow32: past(climatedb.ColumnMinTemp, 32, false),
		DaysMinAtOrBelow0:  past(climatedb.ColumnMinTemp, 0, false),

		PrecipTotal:     build(climatedb.ColumnPrecip, climatedb.OpSum),
		PrecipTraceDays: s.agg.CountEqual(ctx, stationID, begin, end, climatedb.ColumnPrecip, climate.LegacyTrace),
		SnowTotal:       build(climatedb.ColumnSnow, climatedb.OpSum),
		MaxSnowDepth:    build(climatedb.ColumnSnowGround, climatedb.OpMax),

		HeatingDegreeDays: build(climatedb.ColumnHeatDays, climatedb.OpSum),
		CoolingDegreeDays: build(climatedb.ColumnCoolDays, climatedb.OpSum),
	}
	if sum.MeanMaxTemp.IsMissing() || sum.MeanMinTemp.IsMissing() ||
		sum.HeatingDegreeDays.IsMissing() || sum.CoolingDegreeDays.IsMissing() {
		s.fillFromDaily(ctx, &sum)
	}
	sum.MeanTemp = climate.MeanTemperature(sum.MeanMaxTemp, sum.MeanMinTemp)

	for _, th := range s.precipThresholds {
		sum.PrecipDays = append(sum.PrecipDays, ThresholdCount{Threshold: th, Days: past(climatedb.ColumnPrecip, th, true)})
	}
	for _, th := range s.snowThresholds {
		sum.SnowDays = append(sum.SnowDays, ThresholdCount{Threshold: th, Days: past(climatedb.ColumnSnow, th, true)})
	}

	var err error
	if sum.Max24HourPrecip, err = s.Max24Hour(ctx, stationID, database.HourlyPrecip, begin, end); err != nil {
		return PeriodSummary{}, err
	}
	if sum.Max24HourSnow, err = s.Max24Hour(ctx, stationID, database.HourlySnow, begin, end); err != nil {
		return PeriodSummary{}, err
	}
	return sum, nil
}

// fillFromDaily recomputes missing temperature means and degree day totals
// from the stored observations. Missing days are skipped.
func (s *Service) fillFromDaily(ctx context.Context, sum *PeriodSummary) {
	obs, err := s.agg.DailyRange(ctx, sum.StationID, sum.Begin, sum.End)
	if err != nil {
		s.logger.Warnw("cannot read daily observations for summary",
			"station_id", sum.StationID, "begin", sum.Begin.String(), "end", sum.End.String(), "error", err)
		return
	}

	highs := make([]climate.Amount, 0, len(obs))
	lows := make([]climate.Amount, 0, len(obs))
	heat := make([]climate.Amount, 0, len(obs))
	cool := make([]climate.Amount, 0, len(obs))
	for _, o := range obs {
		highs = append(highs, o.MaxTemp)
		lows = append(lows, o.MinTemp)
		mean := o.Mean()
		heat = append(heat, climate.HeatingDegreeDays(mean))
		cool = append(cool, climate.CoolingDegreeDays(mean))
	}

	if sum.MeanMaxTemp.IsMissing() {
		sum.MeanMaxTemp = climate.Mean(highs)
	}
	if sum.MeanMinTemp.IsMissing() {
		sum.MeanMinTemp = climate.Mean(lows)
	}
	if sum.HeatingDegreeDays.IsMissing() {
		sum.HeatingDegreeDays = climate.Sum(heat)
	}
	if sum.CoolingDegreeDays.IsMissing() {
		sum.CoolingDegreeDays = climate.Sum(cool)
	}
}
