package records

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrissnell/remoteclimate/internal/events"
	"github.com/chrissnell/remoteclimate/internal/observability"
	"github.com/chrissnell/remoteclimate/internal/storage/climatedb"
	"github.com/chrissnell/remoteclimate/pkg/climate"
)

const m = climate.MissingYear

type periodKey struct {
	period climate.PeriodType
	month  time.Month
}

type memStore struct {
	recordEnd int
	daily     []climate.Observation
	days      map[string]climate.DayRecords
	periods   map[periodKey]climate.PeriodRecords

	dayErr     error
	periodErr  error
	savedDays  int
	savedPerds int
}

func newMemStore() *memStore {
	return &memStore{
		recordEnd: 2020,
		days:      make(map[string]climate.DayRecords),
		periods:   make(map[periodKey]climate.PeriodRecords),
	}
}

func (s *memStore) UpsertDaily(_ context.Context, obs climate.Observation) error {
	s.daily = append(s.daily, obs)
	return nil
}

func (s *memStore) UpdateRecordEnd(_ context.Context, _ int, year int) error {
	if year > s.recordEnd {
		s.recordEnd = year
	}
	return nil
}

func (s *memStore) DayRecords(_ context.Context, _ int, monthDay string) (climate.DayRecords, error) {
	if s.dayErr != nil {
		return climate.DayRecords{}, s.dayErr
	}
	r, ok := s.days[monthDay]
	if !ok {
		return climate.DayRecords{}, fmt.Errorf("day %s: %w", monthDay, climatedb.ErrRecordNotFound)
	}
	return r, nil
}

func (s *memStore) SaveDayRecords(_ context.Context, _ int, r climate.DayRecords) error {
	s.savedDays++
	s.days[r.MonthDay] = r
	return nil
}

func (s *memStore) PeriodRecords(_ context.Context, _ int, period climate.PeriodType, month time.Month) (climate.PeriodRecords, error) {
	r, ok := s.periods[periodKey{period, month}]
	if !ok {
		return climate.PeriodRecords{}, climatedb.ErrRecordNotFound
	}
	return r, nil
}

func (s *memStore) SavePeriodRecords(_ context.Context, _ int, r climate.PeriodRecords) error {
	if s.periodErr != nil {
		return s.periodErr
	}
	s.savedPerds++
	s.periods[periodKey{r.Period, r.Month}] = r
	return nil
}

type capturePublisher struct {
	batches [][]events.RecordEvent
	err     error
}

func (p *capturePublisher) Publish(_ context.Context, evs []events.RecordEvent) error {
	p.batches = append(p.batches, evs)
	return p.err
}

func (p *capturePublisher) Close() error { return nil }

var checkTime = time.Date(2024, 7, 5, 6, 0, 0, 0, time.UTC)

func newTestChecker(store *memStore, pub events.Publisher) (*Checker, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewChecker(store, pub, metrics, clockwork.NewFakeClockAt(checkTime)), metrics
}

func july4() climate.Date { return climate.NewDate(2024, time.July, 4) }

func seedJuly4(store *memStore) {
	store.days["07-04"] = climate.DayRecords{
		MonthDay: "07-04",
		MaxTemp:  climate.YearRecord{Value: climate.Real(100), Years: climate.Years{1990, m, m}},
		MinTemp:  climate.YearRecord{Value: climate.Real(50), Years: climate.Years{1972, m, m}},
		Precip:   climate.YearRecord{Value: climate.Real(1.5), Years: climate.Years{1990, 2001, m}},
		Snow:     climate.YearRecord{Value: climate.Real(0), Years: climate.NoYears},
	}
	store.periods[periodKey{climate.PeriodMonthly, time.July}] = climate.PeriodRecords{
		Period:  climate.PeriodMonthly,
		Month:   time.July,
		MaxTemp: climate.DateRecord{Value: climate.Real(104), Dates: [3]climate.Date{climate.NewDate(2020, time.July, 10)}},
		MinTemp: climate.DateRecord{Value: climate.Real(45), Dates: [3]climate.Date{climate.NewDate(1981, time.July, 2)}},
	}
	store.periods[periodKey{climate.PeriodAnnual, time.December}] = climate.PeriodRecords{
		Period:  climate.PeriodAnnual,
		Month:   time.December,
		MaxTemp: climate.DateRecord{Value: climate.Real(109), Dates: [3]climate.Date{climate.NewDate(1936, time.July, 14)}},
		MinTemp: climate.DateRecord{Value: climate.Real(-30), Dates: [3]climate.Date{climate.NewDate(1951, time.January, 29)}},
	}
}

func TestCompareUpdateDailyRecords(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	pub := &capturePublisher{}
	checker, metrics := newTestChecker(store, pub)

	obs := climate.Observation{
		StationID: 7,
		Date:      july4(),
		MaxTemp:   climate.Real(104),
		MinTemp:   climate.Real(66),
		Precip:    climate.Real(1.5),
		Snow:      climate.Real(0),
	}

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)

	assert.Equal(t, 2024, store.recordEnd)

	day := store.days["07-04"]
	assert.Equal(t, climate.YearRecord{Value: climate.Real(104), Years: climate.Years{2024, m, m}}, day.MaxTemp)
	assert.Equal(t, climate.Years{1972, m, m}, day.MinTemp.Years, "min temp unchanged")
	assert.Equal(t, climate.Years{2024, 1990, 2001}, day.Precip.Years, "precip tie goes in front")
	assert.Equal(t, climate.NoYears, day.Snow.Years, "zero snow never ties")
	assert.Equal(t, 1, store.savedDays)

	monthly := store.periods[periodKey{climate.PeriodMonthly, time.July}]
	assert.Equal(t, [3]climate.Date{july4(), climate.NewDate(2020, time.July, 10)}, monthly.MaxTemp.Dates)

	seasonal, ok := store.periods[periodKey{climate.PeriodSeasonal, time.August}]
	require.True(t, ok, "missing seasonal record is created")
	assert.True(t, seasonal.MaxTemp.Value.Equal(climate.Real(104)))
	assert.True(t, seasonal.MinTemp.Value.Equal(climate.Real(66)))
	assert.Equal(t, july4(), seasonal.MinTemp.Dates[0])

	annual := store.periods[periodKey{climate.PeriodAnnual, time.December}]
	assert.True(t, annual.MaxTemp.Value.Equal(climate.Real(109)))

	// daily max break, daily precip tie, monthly max tie
	require.Len(t, evs, 3)
	assert.Equal(t, events.KindBreak, evs[0].Kind)
	assert.Equal(t, climate.MaxTemperature.Name, evs[0].Element)
	assert.Equal(t, []int{1990}, evs[0].OldYears)
	assert.Equal(t, checkTime, evs[0].Timestamp)
	assert.Equal(t, events.KindTie, evs[1].Kind)
	assert.Equal(t, climate.Precipitation.Name, evs[1].Element)
	assert.Equal(t, "monthly", evs[2].Period)
	assert.Equal(t, events.KindTie, evs[2].Kind)

	require.Len(t, pub.batches, 1)
	assert.Len(t, pub.batches[0], 3)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsBroken.WithLabelValues("temperature max", "daily")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsTied.WithLabelValues("precipitation max", "daily")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsTied.WithLabelValues("temperature max", "monthly")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordChecks))
}

func TestCompareUpdateDailyRecordsIsIdempotent(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	pub := &capturePublisher{}
	checker, _ := newTestChecker(store, pub)

	obs := climate.Observation{StationID: 7, Date: july4(), MaxTemp: climate.Real(104), MinTemp: climate.Real(66),
		Precip: climate.Real(1.5), Snow: climate.Real(0)}

	_, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)
	assert.Empty(t, evs, "the same day cannot tie its own record")
	assert.Len(t, pub.batches, 1)
}

func TestCompareUpdateDailyRecordsMissingValues(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	pub := &capturePublisher{}
	checker, _ := newTestChecker(store, pub)

	obs := climate.Observation{StationID: 7, Date: july4(), MaxTemp: climate.Missing(), MinTemp: climate.Missing(),
		Precip: climate.Missing(), Snow: climate.Missing()}

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)
	assert.Empty(t, evs)
	assert.Zero(t, store.savedDays)
	assert.Zero(t, store.savedPerds)
	assert.Empty(t, pub.batches)
}

func TestCompareUpdateDailyRecordsNoNormals(t *testing.T) {
	store := newMemStore()
	checker, _ := newTestChecker(store, nil)

	obs := climate.Observation{StationID: 7, Date: climate.NewDate(2024, time.January, 9),
		MaxTemp: climate.Real(12), MinTemp: climate.Real(-8)}

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)
	assert.Empty(t, evs, "filling empty period records is not a break")
	assert.Zero(t, store.savedDays)
	assert.Equal(t, 3, store.savedPerds)

	seasonal := store.periods[periodKey{climate.PeriodSeasonal, time.February}]
	assert.True(t, seasonal.MinTemp.Value.Equal(climate.Real(-8)))
}

func TestCompareUpdateDailyRecordsStoreError(t *testing.T) {
	store := newMemStore()
	store.dayErr = errors.New("connection reset")
	checker, _ := newTestChecker(store, nil)

	_, err := checker.CompareUpdateDailyRecords(context.Background(), climate.Observation{StationID: 7, Date: july4()})
	assert.ErrorIs(t, err, store.dayErr)
}

func TestPeriodSaveFailurePublishesSavedDailyEvents(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	store.periodErr = errors.New("deadlock detected")
	pub := &capturePublisher{}
	checker, _ := newTestChecker(store, pub)

	obs := climate.Observation{StationID: 7, Date: july4(), MaxTemp: climate.Real(105),
		MinTemp: climate.Missing(), Precip: climate.Missing(), Snow: climate.Missing()}

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.ErrorIs(t, err, store.periodErr)
	assert.Equal(t, 1, store.savedDays)
	require.Len(t, evs, 1)
	assert.Equal(t, events.PeriodDaily, evs[0].Period)
	require.Len(t, pub.batches, 1)
	assert.Equal(t, evs, pub.batches[0])

	store.periodErr = nil
	evs, err = checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, evs, 1, "the daily break is not reported twice")
	assert.Equal(t, "monthly", evs[0].Period)
	assert.Equal(t, events.KindBreak, evs[0].Kind)

	var daily int
	for _, batch := range pub.batches {
		for _, ev := range batch {
			if ev.Period == events.PeriodDaily {
				daily++
			}
		}
	}
	assert.Equal(t, 1, daily)
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	pub := &capturePublisher{err: errors.New("broker down")}
	checker, metrics := newTestChecker(store, pub)

	obs := climate.Observation{StationID: 7, Date: july4(), MaxTemp: climate.Real(101),
		MinTemp: climate.Missing(), Precip: climate.Missing(), Snow: climate.Missing()}

	evs, err := checker.CompareUpdateDailyRecords(context.Background(), obs)
	require.NoError(t, err)
	assert.Len(t, evs, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EventsPublished.WithLabelValues("error")))
}

func TestIngest(t *testing.T) {
	store := newMemStore()
	seedJuly4(store)
	checker, _ := newTestChecker(store, nil)

	obs := climate.Observation{StationID: 7, Date: july4(), MaxTemp: climate.Real(100),
		MinTemp: climate.Missing(), Precip: climate.Trace(), Snow: climate.Missing()}

	evs, err := checker.Ingest(context.Background(), obs)
	require.NoError(t, err)
	require.Len(t, store.daily, 1)
	require.Len(t, evs, 1)
	assert.Equal(t, events.KindTie, evs[0].Kind)
	assert.Equal(t, climate.Years{m, 1990, 2024}, store.days["07-04"].MaxTemp.Years)
}
