// Package records keeps daily and period climate records up to date as
// observations arrive.
package records

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/chrissnell/remoteclimate/internal/events"
	"github.com/chrissnell/remoteclimate/internal/log"
	"github.com/chrissnell/remoteclimate/internal/observability"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/pkg/climate"
)

// Store is the record persistence the checker needs.
type Store interface {
	UpsertDaily(ctx context.Context, obs climate.Observation) error
	UpdateRecordEnd(ctx context.Context, stationID, year int) error
	DayRecords(ctx context.Context, stationID int, monthDay string) (climate.DayRecords, error)
	SaveDayRecords(ctx context.Context, stationID int, r climate.DayRecords) error
	PeriodRecords(ctx context.Context, stationID int, period climate.PeriodType, month time.Month) (climate.PeriodRecords, error)
	SavePeriodRecords(ctx context.Context, stationID int, r climate.PeriodRecords) error
}

// Checker compares observations with stored records.
type Checker struct {
	store     Store
	publisher events.Publisher
	metrics   *observability.Metrics
	clock     clockwork.Clock
	logger    *zap.SugaredLogger
}

// NewChecker creates a checker. A nil publisher drops events and a nil
// clock uses real time.
func NewChecker(store Store, publisher events.Publisher, metrics *observability.Metrics, clk clockwork.Clock) *Checker {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	if metrics == nil {
		metrics = observability.NewMetricsForTesting()
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &Checker{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		clock:     clk,
		logger:    log.Named("records"),
	}
}

// Ingest stores the observation and then checks it against the records.
func (c *Checker) Ingest(ctx context.Context, obs climate.Observation) ([]events.RecordEvent, error) {
	if err := c.store.UpsertDaily(ctx, obs); err != nil {
		return nil, err
	}
	return c.CompareUpdateDailyRecords(ctx, obs)
}

// CompareUpdateDailyRecords checks one day's observation against the daily
// records for its month-day and the monthly, seasonal and annual
// temperature records, saving whatever changed. Every break or tie is
// published as an event and returned. When a save fails partway through,
// the events for the records already saved are published and returned with
// the error.
func (c *Checker) CompareUpdateDailyRecords(ctx context.Context, obs climate.Observation) ([]events.RecordEvent, error) {
	c.metrics.RecordChecks.Inc()

	if err := c.store.UpdateRecordEnd(ctx, obs.StationID, obs.Date.Year); err != nil {
		return nil, err
	}

	var out []events.RecordEvent

	dayEvents, err := c.checkDay(ctx, obs)
	if err != nil {
		return nil, err
	}
	out = append(out, dayEvents...)

	for _, p := range climate.RecordPeriods {
		periodEvents, err := c.checkPeriod(ctx, obs, p)
		if err != nil {
			// Saved records compare as unchanged on a retry, so their
			// events go out now or never.
			c.publish(ctx, out)
			return out, err
		}
		out = append(out, periodEvents...)
	}

	c.publish(ctx, out)
	return out, nil
}

func (c *Checker) checkDay(ctx context.Context, obs climate.Observation) ([]events.RecordEvent, error) {
	monthDay := obs.Date.MonthDay()
	rec, err := c.store.DayRecords(ctx, obs.StationID, monthDay)
	if errors.Is(err, climatedb.ErrRecordNotFound) {
		c.logger.Warnw("no daily normals row, skipping daily records",
			"station_id", obs.StationID, "day_of_year", monthDay)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	checks := []struct {
		element climate.Element
		value   climate.Amount
		rec     *climate.YearRecord
	}{
		{climate.MaxTemperature, obs.MaxTemp, &rec.MaxTemp},
		{climate.MinTemperature, obs.MinTemp, &rec.MinTemp},
		{climate.Precipitation, obs.Precip, &rec.Precip},
		{climate.Snowfall, obs.Snow, &rec.Snow},
	}

	var out []events.RecordEvent
	now := c.clock.Now()
	for _, chk := range checks {
		old := *chk.rec
		updated, outcome := chk.element.Check(chk.value, obs.Date.Year, old)
		if !outcome.Changed() {
			continue
		}
		*chk.rec = updated
		kind, _ := events.KindOf(outcome)
		c.count(kind, chk.element, events.PeriodDaily)
		out = append(out, events.NewDailyEvent(obs.StationID, obs.Date, chk.element, kind, chk.value, old, now))
	}

	if len(out) == 0 {
		return nil, nil
	}
	if err := c.store.SaveDayRecords(ctx, obs.StationID, rec); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Checker) checkPeriod(ctx context.Context, obs climate.Observation, period climate.PeriodType) ([]events.RecordEvent, error) {
	month := climate.PeriodMonth(period, obs.Date.Month)
	rec, err := c.store.PeriodRecords(ctx, obs.StationID, period, month)
	if errors.Is(err, climatedb.ErrRecordNotFound) {
		rec = climate.PeriodRecords{Period: period, Month: month}
	} else if err != nil {
		return nil, err
	}

	checks := []struct {
		element climate.Element
		value   climate.Amount
		rec     *climate.DateRecord
	}{
		{climate.MaxTemperature, obs.MaxTemp, &rec.MaxTemp},
		{climate.MinTemperature, obs.MinTemp, &rec.MinTemp},
	}

	var (
		out     []events.RecordEvent
		changed bool
	)
	now := c.clock.Now()
	for _, chk := range checks {
		old := *chk.rec
		updated, outcome := climate.CompareAndUpdateDates(chk.value, obs.Date, old, chk.element.Direction)
		if !outcome.Changed() {
			continue
		}
		*chk.rec = updated
		changed = true

		// Filling an empty record is not a break.
		if old.Value.IsMissing() {
			continue
		}
		kind, _ := events.KindOf(outcome)
		c.count(kind, chk.element, period.String())
		out = append(out, events.NewPeriodEvent(obs.StationID, obs.Date, chk.element, period, kind, chk.value, old, now))
	}

	if !changed {
		return nil, nil
	}
	if err := c.store.SavePeriodRecords(ctx, obs.StationID, rec); err != nil {
		return nil, fmt.Errorf("%s records: %w", period, err)
	}
	return out, nil
}

func (c *Checker) count(kind events.Kind, element climate.Element, period string) {
	switch kind {
	case events.KindBreak:
		c.metrics.RecordsBroken.WithLabelValues(element.Name, period).Inc()
	case events.KindTie:
		c.metrics.RecordsTied.WithLabelValues(element.Name, period).Inc()
	}
}

// publish hands events to the publisher. The records are already saved, so
// a failure is logged and counted rather than returned.
func (c *Checker) publish(ctx context.Context, evs []events.RecordEvent) {
	if len(evs) == 0 {
		return
	}
	if err := c.publisher.Publish(ctx, evs); err != nil {
		c.metrics.EventsPublished.WithLabelValues("error").Add(float64(len(evs)))
		c.logger.Errorw("failed to publish record events", "count", len(evs), "error", err)
		return
	}
	c.metrics.EventsPublished.WithLabelValues("success").Add(float64(len(evs)))
}
