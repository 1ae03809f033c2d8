package climatedb

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgtype"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/pkg/climate"
)

// recordEndFilter selects a station's climate period when its record_end
// is set and earlier than year.
func recordEndFilter(stationID, year int) (string, []any) {
	return "station_id = ? AND record_end <> ? AND record_end < ?", []any{stationID, climate.LegacyMissing, year}
}

// UpdateRecordEnd moves the station's record_end year forward to year. It
// never moves it backwards and leaves a missing record_end alone.
func (s *Storage) UpdateRecordEnd(ctx context.Context, stationID, year int) error {
	where, args := recordEndFilter(stationID, year)
	err := s.DB.WithContext(ctx).
		Model(&database.ClimatePeriod{}).
		Where(where, args...).
		Update("record_end", year).Error
	if err != nil {
		return fmt.Errorf("update record end for station %d: %w", stationID, err)
	}
	return nil
}

// ClimatePeriod returns the normal and record year spans for a station.
func (s *Storage) ClimatePeriod(ctx context.Context, stationID int) (database.ClimatePeriod, error) {
	var p database.ClimatePeriod
	err := s.DB.WithContext(ctx).Where("station_id = ?", stationID).First(&p).Error
	if err != nil {
		return p, wrapNotFound(err, "climate period for station %d", stationID)
	}
	return p, nil
}

// DayRecords loads the daily records stored for monthDay ("MM-dd").
func (s *Storage) DayRecords(ctx context.Context, stationID int, monthDay string) (climate.DayRecords, error) {
	var n database.DayClimateNorm
	err := s.DB.WithContext(ctx).
		Where("station_id = ? AND day_of_year = ?", stationID, monthDay).
		First(&n).Error
	if err != nil {
		return climate.DayRecords{}, wrapNotFound(err, "day records for station %d on %s", stationID, monthDay)
	}
	return dayRecordsFromNorm(n), nil
}

// SaveDayRecords writes the record columns of an existing normals row. The
// normal means are left alone.
func (s *Storage) SaveDayRecords(ctx context.Context, stationID int, r climate.DayRecords) error {
	res := s.DB.WithContext(ctx).
		Model(&database.DayClimateNorm{}).
		Where("station_id = ? AND day_of_year = ?", stationID, r.MonthDay).
		Updates(dayRecordColumns(r))
	if res.Error != nil {
		return fmt.Errorf("save day records for station %d on %s: %w", stationID, r.MonthDay, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save day records for station %d on %s: %w", stationID, r.MonthDay, ErrRecordNotFound)
	}
	return nil
}

// PeriodRecords loads the monthly, seasonal or annual temperature records
// keyed by the period month.
func (s *Storage) PeriodRecords(ctx context.Context, stationID int, period climate.PeriodType, month time.Month) (climate.PeriodRecords, error) {
	var n database.MonthClimateNorm
	err := s.DB.WithContext(ctx).
		Where("station_id = ? AND month_of_year = ? AND period_type = ?", stationID, int(month), int(period)).
		First(&n).Error
	if err != nil {
		return climate.PeriodRecords{}, wrapNotFound(err, "%s records for station %d month %d", period, stationID, month)
	}
	return periodRecordsFromNorm(n), nil
}

// SavePeriodRecords upserts the temperature record columns of a period row.
func (s *Storage) SavePeriodRecords(ctx context.Context, stationID int, r climate.PeriodRecords) error {
	row := periodNormFromRecords(stationID, r)
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "station_id"}, {Name: "month_of_year"}, {Name: "period_type"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"max_temp_record", "day_max_temp_rec1", "day_max_temp_rec2", "day_max_temp_rec3",
			"min_temp_record", "day_min_temp_rec1", "day_min_temp_rec2", "day_min_temp_rec3",
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("save %s records for station %d month %d: %w", r.Period, stationID, r.Month, err)
	}
	return nil
}

// UpsertDaily stores one day of observations, replacing any existing row.
// Degree days are derived from the temperatures.
func (s *Storage) UpsertDaily(ctx context.Context, obs climate.Observation) error {
	row := dailyFromObservation(obs)
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "station_id"}, {Name: "date"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("upsert daily climate for station %d on %s: %w", obs.StationID, obs.Date, err)
	}
	return nil
}

// DailyRange returns the stored observations for begin through end, oldest
// first.
func (s *Storage) DailyRange(ctx context.Context, stationID int, begin, end climate.Date) ([]climate.Observation, error) {
	var rows []database.DailyClimate
	err := s.DB.WithContext(ctx).
		Where("station_id = ? AND date >= ? AND date <= ?", stationID, begin.Time(), end.Time()).
		Order("date").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query daily climate for station %d: %w", stationID, err)
	}

	obs := make([]climate.Observation, len(rows))
	for i, r := range rows {
		obs[i] = observationFromDaily(r)
	}
	return obs, nil
}

func wrapNotFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrRecordNotFound)
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

func tempAmount(v int) climate.Amount {
	return climate.FromLegacyValue(float64(v), climate.LegacyMissing)
}

func legacyTemp(a climate.Amount) int {
	v, ok := a.Value()
	if !ok {
		return climate.LegacyMissing
	}
	return int(math.Round(v))
}

func dayRecordsFromNorm(n database.DayClimateNorm) climate.DayRecords {
	return climate.DayRecords{
		MonthDay: n.DayOfYear,
		MaxTemp: climate.YearRecord{
			Value: tempAmount(n.MaxTempRecord),
			Years: climate.Years{n.MaxTempRecYr1, n.MaxTempRecYr2, n.MaxTempRecYr3},
		},
		MinTemp: climate.YearRecord{
			Value: tempAmount(n.MinTempRecord),
			Years: climate.Years{n.MinTempRecYr1, n.MinTempRecYr2, n.MinTempRecYr3},
		},
		Precip: climate.YearRecord{
			Value: climate.FromLegacyAmount(n.PrecipDayMax, climate.LegacyMissingPrecip),
			Years: climate.Years{n.PrecipDayMaxYr1, n.PrecipDayMaxYr2, n.PrecipDayMaxYr3},
		},
		Snow: climate.YearRecord{
			Value: climate.FromLegacyAmount(n.SnowDayMax, climate.LegacyMissingSnow),
			Years: climate.Years{n.SnowDayMaxYr1, n.SnowDayMaxYr2, n.SnowDayMaxYr3},
		},
	}
}

// dayRecordColumns uses a map so zero values are written.
func dayRecordColumns(r climate.DayRecords) map[string]any {
	return map[string]any{
		"max_temp_record":    legacyTemp(r.MaxTemp.Value),
		"max_temp_rec_yr1":   r.MaxTemp.Years[0],
		"max_temp_rec_yr2":   r.MaxTemp.Years[1],
		"max_temp_rec_yr3":   r.MaxTemp.Years[2],
		"min_temp_record":    legacyTemp(r.MinTemp.Value),
		"min_temp_rec_yr1":   r.MinTemp.Years[0],
		"min_temp_rec_yr2":   r.MinTemp.Years[1],
		"min_temp_rec_yr3":   r.MinTemp.Years[2],
		"precip_day_max":     r.Precip.Value.Legacy(climate.LegacyMissingPrecip),
		"precip_day_max_yr1": r.Precip.Years[0],
		"precip_day_max_yr2": r.Precip.Years[1],
		"precip_day_max_yr3": r.Precip.Years[2],
		"snow_day_max":       r.Snow.Value.Legacy(climate.LegacyMissingSnow),
		"snow_day_max_yr1":   r.Snow.Years[0],
		"snow_day_max_yr2":   r.Snow.Years[1],
		"snow_day_max_yr3":   r.Snow.Years[2],
	}
}

func dateFromPg(d pgtype.Date) climate.Date {
	if d.Status != pgtype.Present {
		return climate.Date{}
	}
	return climate.DateOf(d.Time)
}

func pgFromDate(d climate.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{Status: pgtype.Null}
	}
	return pgtype.Date{Time: d.Time(), Status: pgtype.Present}
}

func periodRecordsFromNorm(n database.MonthClimateNorm) climate.PeriodRecords {
	return climate.PeriodRecords{
		Period: climate.PeriodType(n.PeriodType),
		Month:  time.Month(n.MonthOfYear),
		MaxTemp: climate.DateRecord{
			Value: tempAmount(n.MaxTempRecord),
			Dates: [3]climate.Date{dateFromPg(n.DayMaxTempRec1), dateFromPg(n.DayMaxTempRec2), dateFromPg(n.DayMaxTempRec3)},
		},
		MinTemp: climate.DateRecord{
			Value: tempAmount(n.MinTempRecord),
			Dates: [3]climate.Date{dateFromPg(n.DayMinTempRec1), dateFromPg(n.DayMinTempRec2), dateFromPg(n.DayMinTempRec3)},
		},
	}
}

func periodNormFromRecords(stationID int, r climate.PeriodRecords) database.MonthClimateNorm {
	return database.MonthClimateNorm{
		StationID:      stationID,
		MonthOfYear:    int(r.Month),
		PeriodType:     int(r.Period),
		MaxTempRecord:  legacyTemp(r.MaxTemp.Value),
		DayMaxTempRec1: pgFromDate(r.MaxTemp.Dates[0]),
		DayMaxTempRec2: pgFromDate(r.MaxTemp.Dates[1]),
		DayMaxTempRec3: pgFromDate(r.MaxTemp.Dates[2]),
		MinTempRecord:  legacyTemp(r.MinTemp.Value),
		DayMinTempRec1: pgFromDate(r.MinTemp.Dates[0]),
		DayMinTempRec2: pgFromDate(r.MinTemp.Dates[1]),
		DayMinTempRec3: pgFromDate(r.MinTemp.Dates[2]),
	}
}

func degreeDays(a climate.Amount) int {
	v, ok := a.Value()
	if !ok {
		return climate.LegacyMissingDegreeDay
	}
	return int(v)
}

func dailyFromObservation(o climate.Observation) database.DailyClimate {
	mean := o.Mean()
	return database.DailyClimate{
		StationID:  o.StationID,
		Date:       o.Date.Time(),
		MaxTemp:    legacyTemp(o.MaxTemp),
		MinTemp:    legacyTemp(o.MinTemp),
		Precip:     o.Precip.Legacy(climate.LegacyMissingPrecip),
		Snow:       o.Snow.Legacy(climate.LegacyMissingSnow),
		SnowGround: o.SnowGround.Legacy(climate.LegacyMissingSnow),
		HeatDays:   degreeDays(climate.HeatingDegreeDays(mean)),
		CoolDays:   degreeDays(climate.CoolingDegreeDays(mean)),
	}
}

func observationFromDaily(r database.DailyClimate) climate.Observation {
	return climate.Observation{
		StationID:  r.StationID,
		Date:       climate.DateOf(r.Date),
		MaxTemp:    tempAmount(r.MaxTemp),
		MinTemp:    tempAmount(r.MinTemp),
		Precip:     climate.FromLegacyAmount(r.Precip, climate.LegacyMissingPrecip),
		Snow:       climate.FromLegacyAmount(r.Snow, climate.LegacyMissingSnow),
		SnowGround: climate.FromLegacyAmount(r.SnowGround, climate.LegacyMissingSnow),
	}
}
