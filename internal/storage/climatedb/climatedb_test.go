package climatedb

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgtype"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/pkg/climate"
	"github.com/chrissnell/remoteclimate/pkg/migrate"
)

func TestEmbeddedMigrations(t *testing.T) {
	p := migrate.NewFSProvider(Migrations(), MigrationTable, "postgres")
	migrations, err := p.GetMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "climate tables", migrations[0].Name)
	for _, table := range []string{
		database.StationSetupTable, database.DailyClimateTable, database.DayClimateNormTable,
		database.MonthClimateNormTable, database.ClimatePeriodTable, database.CliAsosDailyTable,
	} {
		assert.Contains(t, migrations[0].Up, "CREATE TABLE IF NOT EXISTS "+table+" ")
		assert.Contains(t, migrations[0].Down, "DROP TABLE IF EXISTS "+table+";")
	}

	cols, err := database.HourlyColumns(database.HourlySnow)
	require.NoError(t, err)
	for _, c := range cols {
		assert.Contains(t, migrations[0].Up, c)
	}
	assert.NotEmpty(t, migrations[1].Down)
}

type fakeRow struct {
	values []*float64
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return pgx.ScanArgError{ColumnIndex: len(r.values), Err: errors.New("wrong column count")}
	}
	for i, v := range r.values {
		*(dest[i].(**float64)) = v
	}
	return nil
}

type fakeQuerier struct {
	row  fakeRow
	sql  string
	args []any
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.sql = sql
	q.args = args
	return q.row
}

func f(v float64) *float64 { return &v }

func TestHourlyDay(t *testing.T) {
	day := climate.NewDate(2024, time.March, 5)

	t.Run("values", func(t *testing.T) {
		values := make([]*float64, 24)
		for i := range values {
			values[i] = f(0)
		}
		values[0] = f(0.25)
		values[1] = f(climate.LegacyTrace)
		values[2] = f(climate.LegacyMissingPrecip)
		values[3] = nil

		q := &fakeQuerier{row: fakeRow{values: values}}
		s := &Storage{rows: q}

		got, err := s.HourlyDay(context.Background(), 7, database.HourlyPrecip, day)
		require.NoError(t, err)
		assert.Equal(t, climate.Real(0.25), got[0])
		assert.True(t, got[1].IsTrace())
		assert.True(t, got[2].IsMissing())
		assert.True(t, got[3].IsMissing())
		assert.True(t, got[4].IsZero())

		assert.Equal(t, []any{7, 2024, "03-05"}, q.args)
		assert.True(t, strings.HasPrefix(q.sql, "SELECT pcp_hr_amt_01,"))
		assert.Contains(t, q.sql, "JOIN station_location")
	})

	t.Run("no row is a missing day", func(t *testing.T) {
		s := &Storage{rows: &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}}
		got, err := s.HourlyDay(context.Background(), 7, database.HourlySnow, day)
		require.NoError(t, err)
		assert.Equal(t, climate.MissingDay(), got)
	})

	t.Run("scan failure is malformed", func(t *testing.T) {
		s := &Storage{rows: &fakeQuerier{row: fakeRow{values: []*float64{f(1)}}}}
		_, err := s.HourlyDay(context.Background(), 7, database.HourlyPrecip, day)
		assert.ErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("query failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		s := &Storage{rows: &fakeQuerier{row: fakeRow{err: boom}}}
		_, err := s.HourlyDay(context.Background(), 7, database.HourlyPrecip, day)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrMalformedRow)
	})

	t.Run("unknown element", func(t *testing.T) {
		s := &Storage{rows: &fakeQuerier{}}
		_, err := s.HourlyDay(context.Background(), 7, database.HourlyElement("wind"), day)
		assert.Error(t, err)
	})
}

func valid(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func TestResolveTraceAggregate(t *testing.T) {
	null := sql.NullFloat64{}
	tests := []struct {
		name      string
		op        AggregateOp
		result    sql.NullFloat64
		traceDays int64
		want      climate.Amount
	}{
		{"sum real", OpSum, valid(1.25), 3, climate.Real(1.25)},
		{"sum only trace", OpSum, null, 2, climate.Trace()},
		{"sum zero and trace", OpSum, valid(0), 1, climate.Trace()},
		{"sum zero without trace", OpSum, valid(0), 0, climate.Real(0)},
		{"sum no data", OpSum, null, 0, climate.Missing()},
		{"max snow depth zero with trace", OpMax, valid(0), 4, climate.Trace()},
		{"max real", OpMax, valid(3), 4, climate.Real(3)},
		{"min zero beats trace", OpMin, valid(0), 2, climate.Real(0)},
		{"min trace beats positive", OpMin, valid(0.5), 2, climate.Trace()},
		{"min positive", OpMin, valid(0.5), 0, climate.Real(0.5)},
		{"avg only trace", OpAvg, null, 2, climate.Trace()},
		{"avg ignores trace days", OpAvg, valid(0.2), 2, climate.Real(0.2)},
		{"count includes trace days", OpCount, valid(5), 2, climate.Real(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveTraceAggregate(tt.op, tt.result, tt.traceDays)
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestAggregateQuery(t *testing.T) {
	q, err := aggregateQuery(OpSum, ColumnPrecip, aggregateColumns[ColumnPrecip])
	require.NoError(t, err)
	assert.Equal(t, `SELECT SUM("precip") FROM daily_climate WHERE station_id = ? AND date >= ? AND date <= ? AND "precip" != ? AND "precip" != -1`, q)

	q, err = aggregateQuery(OpCount, ColumnMaxTemp, aggregateColumns[ColumnMaxTemp])
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q, "SELECT COUNT(*) FROM daily_climate"))
	assert.NotContains(t, q, "-1")

	_, err = aggregateQuery(AggregateOp("MEDIAN"), ColumnMaxTemp, aggregateColumns[ColumnMaxTemp])
	assert.Error(t, err)

	_, err = lookupColumn("max_temp; DROP TABLE daily_climate")
	assert.Error(t, err)

	assert.Equal(t, `SELECT COUNT(*) FROM daily_climate WHERE station_id = ? AND date >= ? AND date <= ? AND "snow_ground" != ? AND "snow_ground" = -1`,
		traceCountQuery(ColumnSnowGround))
}

func TestRecordEndFilter(t *testing.T) {
	where, args := recordEndFilter(3, 2024)
	assert.Equal(t, "station_id = ? AND record_end <> ? AND record_end < ?", where)
	assert.Equal(t, []any{3, climate.LegacyMissing, 2024}, args)
	assert.NotContains(t, where, " OR ")
}

func TestDayRecordsConversion(t *testing.T) {
	n := database.DayClimateNorm{
		StationID:       1,
		DayOfYear:       "07-04",
		MaxTempRecord:   104,
		MaxTempRecYr1:   1990,
		MaxTempRecYr2:   2012,
		MaxTempRecYr3:   climate.MissingYear,
		MinTempRecord:   -3,
		MinTempRecYr1:   1901,
		MinTempRecYr2:   climate.MissingYear,
		MinTempRecYr3:   climate.MissingYear,
		PrecipDayMax:    climate.LegacyTrace,
		PrecipDayMaxYr1: 1955,
		PrecipDayMaxYr2: climate.MissingYear,
		PrecipDayMaxYr3: climate.MissingYear,
		SnowDayMax:      climate.LegacyMissingSnow,
		SnowDayMaxYr1:   climate.MissingYear,
		SnowDayMaxYr2:   climate.MissingYear,
		SnowDayMaxYr3:   climate.MissingYear,
	}

	r := dayRecordsFromNorm(n)
	assert.Equal(t, "07-04", r.MonthDay)
	assert.Equal(t, climate.Real(104), r.MaxTemp.Value)
	assert.Equal(t, climate.Years{1990, 2012, climate.MissingYear}, r.MaxTemp.Years)
	assert.Equal(t, climate.Real(-3), r.MinTemp.Value, "negative temperatures are not trace")
	assert.True(t, r.Precip.Value.IsTrace())
	assert.True(t, r.Snow.Value.IsMissing())

	cols := dayRecordColumns(r)
	assert.Equal(t, 104, cols["max_temp_record"])
	assert.Equal(t, -3, cols["min_temp_record"])
	assert.Equal(t, climate.LegacyTrace, cols["precip_day_max"])
	assert.Equal(t, climate.LegacyMissingSnow, cols["snow_day_max"])
	assert.Equal(t, 1955, cols["precip_day_max_yr1"])
	assert.Len(t, cols, 16)
}

func TestPeriodRecordsConversion(t *testing.T) {
	r := climate.PeriodRecords{
		Period: climate.PeriodSeasonal,
		Month:  time.August,
		MaxTemp: climate.DateRecord{
			Value: climate.Real(101),
			Dates: [3]climate.Date{climate.NewDate(2020, time.July, 12), climate.NewDate(1998, time.June, 30)},
		},
		MinTemp: climate.DateRecord{Value: climate.Missing()},
	}

	row := periodNormFromRecords(9, r)
	assert.Equal(t, 9, row.StationID)
	assert.Equal(t, 8, row.MonthOfYear)
	assert.Equal(t, 7, row.PeriodType)
	assert.Equal(t, 101, row.MaxTempRecord)
	assert.Equal(t, pgtype.Present, row.DayMaxTempRec1.Status)
	assert.Equal(t, pgtype.Null, row.DayMaxTempRec3.Status)
	assert.Equal(t, climate.LegacyMissing, row.MinTempRecord)

	assert.Equal(t, r, periodRecordsFromNorm(row))
}

func TestDailyFromObservation(t *testing.T) {
	obs := climate.Observation{
		StationID:  3,
		Date:       climate.NewDate(2024, time.January, 15),
		MaxTemp:    climate.Real(40),
		MinTemp:    climate.Real(21),
		Precip:     climate.Trace(),
		Snow:       climate.Real(0.4),
		SnowGround: climate.Missing(),
	}

	row := dailyFromObservation(obs)
	assert.Equal(t, 40, row.MaxTemp)
	assert.Equal(t, 21, row.MinTemp)
	assert.Equal(t, climate.LegacyTrace, row.Precip)
	assert.Equal(t, climate.LegacyMissingSnow, row.SnowGround)
	// mean 30.5 rounds to 31
	assert.Equal(t, 34, row.HeatDays)
	assert.Equal(t, 0, row.CoolDays)

	back := observationFromDaily(row)
	assert.Equal(t, obs, back)
}

func TestDailyFromObservationMissingTemps(t *testing.T) {
	row := dailyFromObservation(climate.Observation{
		Date:    climate.NewDate(2024, time.May, 1),
		MaxTemp: climate.Real(70),
		MinTemp: climate.Missing(),
	})
	assert.Equal(t, climate.LegacyMissing, row.MinTemp)
	assert.Equal(t, climate.LegacyMissingDegreeDay, row.HeatDays)
	assert.Equal(t, climate.LegacyMissingDegreeDay, row.CoolDays)
}
