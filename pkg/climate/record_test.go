package climate

import (
	"testing"
	"time"
)

const m = MissingYear

func TestYearShuffle(t *testing.T) {
	tests := []struct {
		name string
		in   Years
		want Years
	}{
		{"empty", Years{m, m, m}, Years{m, m, m}},
		{"one year cascades", Years{1998, m, m}, Years{1998, 1998, m}},
		{"two years cascade", Years{1998, 2001, m}, Years{1998, 1998, 2001}},
		{"slot 1 missing absorbs slot 0", Years{1990, m, 2010}, Years{1990, 1990, 2010}},
		{"slot 1 smallest absorbs slot 0", Years{2001, 1999, 2005}, Years{2001, 2001, 2005}},
		{"slot 2 smallest shifts", Years{2001, 2005, 1999}, Years{2001, 2001, 2005}},
		{"ascending left alone", Years{1990, 2000, 2010}, Years{1990, 2000, 2010}},
		{"slot 0 missing with full tail", Years{m, 2000, 1990}, Years{m, 2000, 1990}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			got := YearShuffle(in)
			if got != tt.want {
				t.Errorf("YearShuffle(%v) = %v, want %v", tt.in, got, tt.want)
			}
			if in != tt.in {
				t.Errorf("YearShuffle modified its input: %v", in)
			}
		})
	}
}

func TestCompareAndUpdate(t *testing.T) {
	tests := []struct {
		name        string
		value       Amount
		year        int
		rec         YearRecord
		dir         Direction
		conv        SlotConvention
		want        YearRecord
		wantOutcome Outcome
	}{
		{
			name:        "max temp tie appends at back",
			value:       Real(100),
			year:        2005,
			rec:         YearRecord{Real(100), Years{1998, m, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(100), Years{m, 1998, 2005}},
			wantOutcome: Tied,
		},
		{
			name:        "max temp break resets years",
			value:       Real(105),
			year:        2005,
			rec:         YearRecord{Real(100), Years{1998, 2001, 2003}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(105), Years{2005, m, m}},
			wantOutcome: Broken,
		},
		{
			name:        "precip tie inserts at front",
			value:       Real(1.25),
			year:        2005,
			rec:         YearRecord{Real(1.25), Years{1998, m, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtFront,
			want:        YearRecord{Real(1.25), Years{2005, 1998, m}},
			wantOutcome: Tied,
		},
		{
			name:        "full temperature list",
			value:       Real(-12),
			year:        2020,
			rec:         YearRecord{Real(-12), Years{1990, 2000, 2010}},
			dir:         LesserBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(-12), Years{2010, 2000, 2020}},
			wantOutcome: Tied,
		},
		{
			name:        "min temp break",
			value:       Real(-20),
			year:        2021,
			rec:         YearRecord{Real(-12), Years{1990, 2000, 2010}},
			dir:         LesserBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(-20), Years{2021, m, m}},
			wantOutcome: Broken,
		},
		{
			name:        "higher value does not break a min record",
			value:       Real(5),
			year:        2021,
			rec:         YearRecord{Real(-12), Years{1990, m, m}},
			dir:         LesserBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(-12), Years{1990, m, m}},
			wantOutcome: Unchanged,
		},
		{
			name:        "tie with year already present",
			value:       Real(100),
			year:        2001,
			rec:         YearRecord{Real(100), Years{1998, 2001, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtBack,
			want:        YearRecord{Real(100), Years{1998, 2001, m}},
			wantOutcome: Unchanged,
		},
		{
			name:        "missing observation",
			value:       Missing(),
			year:        2001,
			rec:         YearRecord{Real(100), Years{1998, m, m}},
			dir:         GreaterBreaksRecord,
			want:        YearRecord{Real(100), Years{1998, m, m}},
			wantOutcome: Unchanged,
		},
		{
			name:        "missing record",
			value:       Real(88),
			year:        2001,
			rec:         YearRecord{Missing(), NoYears},
			dir:         GreaterBreaksRecord,
			want:        YearRecord{Missing(), NoYears},
			wantOutcome: Unchanged,
		},
		{
			name:        "trace beats a zero record",
			value:       Trace(),
			year:        2015,
			rec:         YearRecord{Real(0), Years{1950, m, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtFront,
			want:        YearRecord{Trace(), Years{2015, m, m}},
			wantOutcome: Broken,
		},
		{
			name:        "real amount beats a trace record",
			value:       Real(0.02),
			year:        2015,
			rec:         YearRecord{Trace(), Years{1950, m, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtFront,
			want:        YearRecord{Real(0.02), Years{2015, m, m}},
			wantOutcome: Broken,
		},
		{
			name:        "trace ties trace",
			value:       Trace(),
			year:        2015,
			rec:         YearRecord{Trace(), Years{1950, m, m}},
			dir:         GreaterBreaksRecord,
			conv:        InsertAtFront,
			want:        YearRecord{Trace(), Years{2015, 1950, m}},
			wantOutcome: Tied,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := CompareAndUpdate(tt.value, tt.year, tt.rec, tt.dir, tt.conv)
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", outcome, tt.wantOutcome)
			}
			if !got.Value.Equal(tt.want.Value) || got.Years != tt.want.Years {
				t.Errorf("record = %v %v, want %v %v", got.Value, got.Years, tt.want.Value, tt.want.Years)
			}
		})
	}
}

func TestBreakAlwaysResetsYears(t *testing.T) {
	histories := []Years{
		{m, m, m},
		{1998, m, m},
		{1998, 2001, 2003},
		{2003, 1998, 2001},
		{m, 2000, m},
	}
	for _, years := range histories {
		got, outcome := CompareAndUpdate(Real(101), 2024, YearRecord{Real(100), years}, GreaterBreaksRecord, InsertAtBack)
		if outcome != Broken || got.Years != (Years{2024, m, m}) {
			t.Errorf("history %v: got %v %v", years, outcome, got.Years)
		}
	}
}

func TestElementCheck(t *testing.T) {
	rec := YearRecord{Value: Real(0), Years: Years{1961, m, m}}

	got, outcome := Precipitation.Check(Real(0), 2024, rec)
	if outcome != Unchanged || got != rec {
		t.Errorf("zero precipitation changed the record: %v %v", outcome, got)
	}

	got, outcome = MaxTemperature.Check(Real(0), 2024, rec)
	if outcome != Tied {
		t.Errorf("zero temperature should tie a zero record, got %v", outcome)
	}
	if got.Years != (Years{m, 1961, 2024}) {
		t.Errorf("years = %v", got.Years)
	}
}

func TestCompareAndUpdateDates(t *testing.T) {
	d1 := NewDate(1998, time.July, 4)
	d2 := NewDate(2005, time.July, 19)
	d3 := NewDate(2012, time.July, 7)

	tests := []struct {
		name        string
		value       Amount
		date        Date
		rec         DateRecord
		dir         Direction
		want        [3]Date
		wantValue   Amount
		wantOutcome Outcome
	}{
		{"break", Real(104), d2, DateRecord{Real(101), [3]Date{d1}}, GreaterBreaksRecord, [3]Date{d2}, Real(104), Broken},
		{"tie on new date", Real(101), d2, DateRecord{Real(101), [3]Date{d1}}, GreaterBreaksRecord, [3]Date{d2, d1}, Real(101), Tied},
		{"third tie drops oldest", Real(101), d3, DateRecord{Real(101), [3]Date{d2, d1, NewDate(1980, time.July, 1)}}, GreaterBreaksRecord, [3]Date{d3, d2, d1}, Real(101), Tied},
		{"tie on same date", Real(101), d1, DateRecord{Real(101), [3]Date{d1}}, GreaterBreaksRecord, [3]Date{d1}, Real(101), Unchanged},
		{"missing record set", Real(-3), d1, DateRecord{Missing(), [3]Date{}}, LesserBreaksRecord, [3]Date{d1}, Real(-3), Broken},
		{"min break", Real(-30), d3, DateRecord{Real(-3), [3]Date{d1}}, LesserBreaksRecord, [3]Date{d3}, Real(-30), Broken},
		{"missing observation", Missing(), d3, DateRecord{Real(-3), [3]Date{d1}}, LesserBreaksRecord, [3]Date{d1}, Real(-3), Unchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, outcome := CompareAndUpdateDates(tt.value, tt.date, tt.rec, tt.dir)
			if outcome != tt.wantOutcome {
				t.Errorf("outcome = %v, want %v", outcome, tt.wantOutcome)
			}
			if got.Dates != tt.want || !got.Value.Equal(tt.wantValue) {
				t.Errorf("got %v %v, want %v %v", got.Value, got.Dates, tt.wantValue, tt.want)
			}
		})
	}
}
