package climatedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/pkg/climate"
)

func hourlyQuery(element database.HourlyElement) (string, error) {
	cols, err := database.HourlyColumnList(element)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`SELECT %s FROM %s a JOIN %s s ON a.station_code = s.station_code
		WHERE s.station_id = $1 AND a.year = $2 AND a.day_of_year = $3`,
		cols, database.CliAsosDailyTable, database.StationSetupTable), nil
}

// HourlyDay returns the 24 hourly amounts of element for one station day.
// A day with no row is returned as all missing.
func (s *Storage) HourlyDay(ctx context.Context, stationID int, element database.HourlyElement, date climate.Date) (climate.DayHours, error) {
	q, err := hourlyQuery(element)
	if err != nil {
		return climate.DayHours{}, err
	}

	var raw [climate.HoursPerDay]*float64
	dest := make([]any, len(raw))
	for i := range raw {
		dest[i] = &raw[i]
	}

	err = s.rows.QueryRow(ctx, q, stationID, date.Year, date.MonthDay()).Scan(dest...)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return climate.MissingDay(), nil
	case err != nil:
		var scanErr pgx.ScanArgError
		if errors.As(err, &scanErr) {
			return climate.DayHours{}, fmt.Errorf("%w: %s hours for station %d on %s: %v",
				ErrMalformedRow, element, stationID, date, err)
		}
		return climate.DayHours{}, fmt.Errorf("query %s hours for station %d on %s: %w", element, stationID, date, err)
	}

	return dayHoursFromRow(raw), nil
}

// dayHoursFromRow maps nullable legacy hourly values to amounts.
func dayHoursFromRow(raw [climate.HoursPerDay]*float64) climate.DayHours {
	var d climate.DayHours
	for i, v := range raw {
		if v == nil {
			d[i] = climate.Missing()
			continue
		}
		d[i] = climate.FromLegacyAmount(*v, climate.LegacyMissingPrecip)
	}
	return d
}
