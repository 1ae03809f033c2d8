package database

import (
	"fmt"
	"strings"
)

// Climate table names.
const (
	StationSetupTable     = "station_location"
	DailyClimateTable     = "daily_climate"
	DayClimateNormTable   = "day_climate_norm"
	MonthClimateNormTable = "mon_climate_norm"
	ClimatePeriodTable    = "climate_period"
	CliAsosDailyTable     = "cli_asos_daily"
)

// HourlyElement names a set of 24 hourly columns in cli_asos_daily.
type HourlyElement string

const (
	HourlyPrecip HourlyElement = "precip"
	HourlySnow   HourlyElement = "snow"
)

func (e HourlyElement) prefix() (string, error) {
	switch e {
	case HourlyPrecip:
		return "pcp_hr_amt_", nil
	case HourlySnow:
		return "snow_hr_amt_", nil
	default:
		return "", fmt.Errorf("unknown hourly element %q", string(e))
	}
}

// HourlyColumns returns the 24 column names for e, hour 1 first.
func HourlyColumns(e HourlyElement) ([]string, error) {
	prefix, err := e.prefix()
	if err != nil {
		return nil, err
	}
	cols := make([]string, 24)
	for i := range cols {
		cols[i] = fmt.Sprintf("%s%02d", prefix, i+1)
	}
	return cols, nil
}

// HourlyColumnList returns the comma separated column list for e.
func HourlyColumnList(e HourlyElement) (string, error) {
	cols, err := HourlyColumns(e)
	if err != nil {
		return "", err
	}
	return strings.Join(cols, ", "), nil
}
