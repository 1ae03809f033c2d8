package climate

import "time"

// Observation is one day of observed data for a station.
type Observation struct {
	StationID  int    `json:"station_id"`
	Date       Date   `json:"date"`
	MaxTemp    Amount `json:"max_temp"`
	MinTemp    Amount `json:"min_temp"`
	Precip     Amount `json:"precip"`
	Snow       Amount `json:"snow"`
	SnowGround Amount `json:"snow_ground"`
}

// Mean returns the day's mean temperature.
func (o Observation) Mean() Amount {
	return MeanTemperature(o.MaxTemp, o.MinTemp)
}

// DayRecords are the daily records stored for one "MM-dd" key.
type DayRecords struct {
	MonthDay string     `json:"month_day"`
	MaxTemp  YearRecord `json:"max_temp"`
	MinTemp  YearRecord `json:"min_temp"`
	Precip   YearRecord `json:"precip"`
	Snow     YearRecord `json:"snow"`
}

// PeriodRecords are the temperature records for a month, season or year,
// keyed by the period month (see PeriodMonth).
type PeriodRecords struct {
	Period  PeriodType `json:"period"`
	Month   time.Month `json:"month"`
	MaxTemp DateRecord `json:"max_temp"`
	MinTemp DateRecord `json:"min_temp"`
}
