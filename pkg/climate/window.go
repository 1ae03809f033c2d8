package climate

import (
	"errors"
	"fmt"
)

const (
	HoursPerDay = 24
	BufferHours = 2 * HoursPerDay

	// MaxSearchRangeDays bounds a single scan to one month plus the day
	// before it.
	MaxSearchRangeDays = 32
)

// ErrSearchRangeExceeded is returned when a scan covers more days than
// MaxSearchRangeDays.
var ErrSearchRangeExceeded = fmt.Errorf("search range exceeds %d days", MaxSearchRangeDays)

// ErrEmptySearchRange is returned when a scan is given fewer than two days.
var ErrEmptySearchRange = errors.New("search range needs at least two days")

// DayHours holds one calendar day of hourly amounts, hour 0 first.
type DayHours [HoursPerDay]Amount

// MissingDay returns a day with every hour missing.
func MissingDay() DayHours {
	return DayHours{}
}

// HasData reports whether any hour of d is not missing.
func (d DayHours) HasData() bool {
	for _, a := range d {
		if !a.IsMissing() {
			return true
		}
	}
	return false
}

// HourlySeries is a 48 hour buffer covering two consecutive days starting
// at hour 0 of the first.
type HourlySeries [BufferHours]Amount

// NewHourlySeries joins two consecutive days.
func NewHourlySeries(first, second DayHours) HourlySeries {
	var s HourlySeries
	copy(s[:HoursPerDay], first[:])
	copy(s[HoursPerDay:], second[:])
	return s
}

func (s *HourlySeries) hasData() bool {
	for _, a := range s {
		if !a.IsMissing() {
			return true
		}
	}
	return false
}

// WindowSum totals the 24 hours of s starting at offset. A missing hour makes
// the whole window missing. Trace hours add nothing, but a window that sums
// to zero with at least one trace hour is reported as trace.
func WindowSum(s *HourlySeries, offset int) Amount {
	if offset < 0 || offset+HoursPerDay > BufferHours {
		return Missing()
	}

	var total float64
	for h := offset; h < offset+HoursPerDay; h++ {
		v, ok := s[h].Value()
		if !ok {
			if s[h].IsMissing() {
				return Missing()
			}
			continue
		}
		total += v
	}

	if total == 0 {
		for h := offset; h < offset+HoursPerDay; h++ {
			if s[h].IsTrace() {
				return Trace()
			}
		}
	}
	return Real(total)
}

// Occurrence is one 24 hour window, both ends inclusive.
type Occurrence struct {
	Start DateHour `json:"start"`
	End   DateHour `json:"end"`
}

// OccurrenceAt returns the window starting offset hours after hour 0 of
// first.
func OccurrenceAt(first Date, offset int) Occurrence {
	last := offset + HoursPerDay - 1
	return Occurrence{
		Start: DateHour{Date: first.AddDays(offset / HoursPerDay), Hour: offset % HoursPerDay},
		End:   DateHour{Date: first.AddDays(last / HoursPerDay), Hour: last % HoursPerDay},
	}
}

// WindowMax is the best 24 hour total found so far and every window that
// reached it.
type WindowMax struct {
	Max         Amount       `json:"max"`
	Occurrences []Occurrence `json:"occurrences"`
}

// Observe folds one window total into m. A strictly larger total replaces
// the maximum and its occurrences; an equal nonzero total adds occ unless it
// repeats the most recent occurrence. A real zero never beats trace.
func (m *WindowMax) Observe(sum Amount, occ Occurrence) {
	if sum.IsMissing() {
		return
	}

	if m.Max.IsMissing() || sum.Greater(m.Max) {
		m.Max = sum
		m.Occurrences = nil
		if !sum.IsZero() {
			m.Occurrences = append(m.Occurrences, occ)
		}
		return
	}

	if sum.IsZero() || !sum.Equal(m.Max) {
		return
	}
	if n := len(m.Occurrences); n > 0 && m.Occurrences[n-1] == occ {
		return
	}
	m.Occurrences = append(m.Occurrences, occ)
}

// ScanBuffer folds the windows at offsets 1 through 24 of s, whose first
// hour is hour 0 of first, into m. Offset 0 is left out because it is the
// whole first day, which the previous step already covered. A buffer with no
// data at all is skipped.
func ScanBuffer(m *WindowMax, s *HourlySeries, first Date) {
	if !s.hasData() {
		return
	}
	for offset := 1; offset <= HoursPerDay; offset++ {
		m.Observe(WindowSum(s, offset), OccurrenceAt(first, offset))
	}
}

// ScanRange finds the maximum 24 hour total across consecutive days
// beginning with first. days[i] holds the hours of first+i. Each adjacent
// pair of days is scanned as one 48 hour buffer, so len(days)-1 buffers are
// examined.
func ScanRange(first Date, days []DayHours) (WindowMax, error) {
	if len(days) > MaxSearchRangeDays {
		return WindowMax{}, ErrSearchRangeExceeded
	}
	if len(days) < 2 {
		return WindowMax{}, ErrEmptySearchRange
	}

	var m WindowMax
	for i := 0; i+1 < len(days); i++ {
		s := NewHourlySeries(days[i], days[i+1])
		ScanBuffer(&m, &s, first.AddDays(i))
	}
	return m, nil
}
