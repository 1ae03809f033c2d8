// Package events publishes notices of broken and tied climate records.
package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/chrissnell/remoteclimate/pkg/climate"
)

// Kind says whether a record was broken or tied.
type Kind string

const (
	KindBreak Kind = "break"
	KindTie   Kind = "tie"
)

// KindOf maps a record outcome to an event kind. ok is false for Unchanged.
func KindOf(o climate.Outcome) (Kind, bool) {
	switch o {
	case climate.Broken:
		return KindBreak, true
	case climate.Tied:
		return KindTie, true
	default:
		return "", false
	}
}

// RecordEvent describes one broken or tied record. Daily records carry the
// years the old record was set in; period records carry the dates.
type RecordEvent struct {
	ID        string         `json:"id"`
	StationID int            `json:"station_id"`
	ValidDate climate.Date   `json:"valid_date"`
	Element   string         `json:"element"`
	Period    string         `json:"period"`
	Kind      Kind           `json:"kind"`
	NewValue  climate.Amount `json:"new_value"`
	OldValue  climate.Amount `json:"old_value"`
	OldYears  []int          `json:"old_years,omitempty"`
	OldDates  []climate.Date `json:"old_dates,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Period labels for daily records; period records use PeriodType.String.
const PeriodDaily = "daily"

// NewDailyEvent builds the event for a daily record change.
func NewDailyEvent(stationID int, date climate.Date, element climate.Element, kind Kind,
	newValue climate.Amount, old climate.YearRecord, now time.Time) RecordEvent {
	return RecordEvent{
		ID:        uuid.NewString(),
		StationID: stationID,
		ValidDate: date,
		Element:   element.Name,
		Period:    PeriodDaily,
		Kind:      kind,
		NewValue:  newValue,
		OldValue:  old.Value,
		OldYears:  old.Years.Present(),
		Timestamp: now.UTC(),
	}
}

// NewPeriodEvent builds the event for a monthly, seasonal or annual record
// change.
func NewPeriodEvent(stationID int, date climate.Date, element climate.Element, period climate.PeriodType,
	kind Kind, newValue climate.Amount, old climate.DateRecord, now time.Time) RecordEvent {
	var dates []climate.Date
	for _, d := range old.Dates {
		if !d.IsZero() {
			dates = append(dates, d)
		}
	}
	return RecordEvent{
		ID:        uuid.NewString(),
		StationID: stationID,
		ValidDate: date,
		Element:   element.Name,
		Period:    period.String(),
		Kind:      kind,
		NewValue:  newValue,
		OldValue:  old.Value,
		OldDates:  dates,
		Timestamp: now.UTC(),
	}
}
