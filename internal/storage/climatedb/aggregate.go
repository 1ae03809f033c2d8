package climatedb

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/chrissnell/remoteclimate/internal/database"
	"github.com/chrissnell/remoteclimate/pkg/climate"
)

// AggregateOp is a SQL aggregate applied to a daily_climate column.
type AggregateOp string

const (
	OpSum   AggregateOp = "SUM"
	OpAvg   AggregateOp = "AVG"
	OpMin   AggregateOp = "MIN"
	OpMax   AggregateOp = "MAX"
	OpCount AggregateOp = "COUNT"
)

// daily_climate columns that can be aggregated.
const (
	ColumnMaxTemp    = "max_temp"
	ColumnMinTemp    = "min_temp"
	ColumnPrecip     = "precip"
	ColumnSnow       = "snow"
	ColumnSnowGround = "snow_ground"
	ColumnHeatDays   = "num_heat"
	ColumnCoolDays   = "num_cool"
)

type columnInfo struct {
	missing float64
	trace   bool
}

var aggregateColumns = map[string]columnInfo{
	ColumnMaxTemp:    {missing: climate.LegacyMissing},
	ColumnMinTemp:    {missing: climate.LegacyMissing},
	ColumnPrecip:     {missing: climate.LegacyMissingPrecip, trace: true},
	ColumnSnow:       {missing: climate.LegacyMissingSnow, trace: true},
	ColumnSnowGround: {missing: climate.LegacyMissingSnow, trace: true},
	ColumnHeatDays:   {missing: climate.LegacyMissingDegreeDay},
	ColumnCoolDays:   {missing: climate.LegacyMissingDegreeDay},
}

func lookupColumn(column string) (columnInfo, error) {
	info, ok := aggregateColumns[column]
	if !ok {
		return columnInfo{}, fmt.Errorf("column %q cannot be aggregated", column)
	}
	return info, nil
}

// rangeFilter is the WHERE clause shared by every aggregate. Its arguments
// are station, begin, end, missing.
func rangeFilter(column string) string {
	return fmt.Sprintf(`FROM %s WHERE station_id = ? AND date >= ? AND date <= ? AND %s != ?`,
		database.DailyClimateTable, pq.QuoteIdentifier(column))
}

// aggregateQuery builds the aggregate over non-missing values. Trace days are
// excluded for trace-aware columns and counted separately.
func aggregateQuery(op AggregateOp, column string, info columnInfo) (string, error) {
	col := pq.QuoteIdentifier(column)
	var sel string
	switch op {
	case OpSum, OpAvg, OpMin, OpMax:
		sel = fmt.Sprintf("%s(%s)", op, col)
	case OpCount:
		sel = "COUNT(*)"
	default:
		return "", fmt.Errorf("unknown aggregate %q", string(op))
	}

	q := fmt.Sprintf("SELECT %s %s", sel, rangeFilter(column))
	if info.trace {
		q += fmt.Sprintf(" AND %s != %v", col, climate.LegacyTrace)
	}
	return q, nil
}

func traceCountQuery(column string) string {
	return fmt.Sprintf("SELECT COUNT(*) %s AND %s = %v", rangeFilter(column), pq.QuoteIdentifier(column), climate.LegacyTrace)
}

// resolveTraceAggregate turns the non-trace aggregate result and the number
// of trace days into an amount.
func resolveTraceAggregate(op AggregateOp, result sql.NullFloat64, traceDays int64) climate.Amount {
	if op == OpCount {
		return climate.Real(result.Float64 + float64(traceDays))
	}

	empty := !result.Valid
	zero := result.Valid && climate.FloatingEquals(result.Float64, 0)

	switch op {
	case OpSum, OpMax:
		if (empty || zero) && traceDays > 0 {
			return climate.Trace()
		}
	case OpMin:
		if zero {
			return climate.Real(0)
		}
		if traceDays > 0 {
			return climate.Trace()
		}
	case OpAvg:
		if empty && traceDays > 0 {
			return climate.Trace()
		}
	}

	if empty {
		return climate.Missing()
	}
	return climate.Real(result.Float64)
}

func (s *Storage) scanFloat(ctx context.Context, q string, args ...any) (sql.NullFloat64, error) {
	var v sql.NullFloat64
	err := s.DB.WithContext(ctx).Raw(q, args...).Row().Scan(&v)
	return v, err
}

func (s *Storage) scanCount(ctx context.Context, q string, args ...any) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Raw(q, args...).Row().Scan(&n)
	return n, err
}

func (s *Storage) aggregateFailed(op string, column string, err error) climate.Amount {
	s.metrics.AggregateErrors.WithLabelValues(op).Inc()
	s.logger.Errorw("climate aggregate query failed", "op", op, "column", column, "error", err)
	return climate.Missing()
}

// BuildElement applies op to column over begin through end. Missing values
// never contribute. For precipitation and snow columns a period made up only
// of trace (or zero and trace) days aggregates to trace. Query failures are
// logged and reported as missing.
func (s *Storage) BuildElement(ctx context.Context, stationID int, begin, end climate.Date, column string, op AggregateOp) climate.Amount {
	info, err := lookupColumn(column)
	if err != nil {
		return s.aggregateFailed(string(op), column, err)
	}
	q, err := aggregateQuery(op, column, info)
	if err != nil {
		return s.aggregateFailed(string(op), column, err)
	}

	args := []any{stationID, begin.Time(), end.Time(), info.missing}
	result, err := s.scanFloat(ctx, q, args...)
	if err != nil {
		return s.aggregateFailed(string(op), column, err)
	}

	if !info.trace {
		if op == OpCount {
			return climate.Real(result.Float64)
		}
		if !result.Valid {
			return climate.Missing()
		}
		return climate.Real(result.Float64)
	}

	traceDays, err := s.scanCount(ctx, traceCountQuery(column), args...)
	if err != nil {
		return s.aggregateFailed(string(op), column, err)
	}
	return resolveTraceAggregate(op, result, traceDays)
}

// DaysPastThreshold counts the days whose column value is at or above
// (greaterOrEqual) or at or below the threshold. Missing days and, for
// precipitation and snow, trace days are not counted.
func (s *Storage) DaysPastThreshold(ctx context.Context, stationID int, begin, end climate.Date, column string, threshold float64, greaterOrEqual bool) climate.Amount {
	const op = "threshold"
	info, err := lookupColumn(column)
	if err != nil {
		return s.aggregateFailed(op, column, err)
	}

	cmp := "<="
	if greaterOrEqual {
		cmp = ">="
	}
	col := pq.QuoteIdentifier(column)
	q := fmt.Sprintf("SELECT COUNT(*) %s AND %s %s ?", rangeFilter(column), col, cmp)
	if info.trace {
		q += fmt.Sprintf(" AND %s != %v", col, climate.LegacyTrace)
	}

	n, err := s.scanCount(ctx, q, stationID, begin.Time(), end.Time(), info.missing, threshold)
	if err != nil {
		return s.aggregateFailed(op, column, err)
	}
	return climate.Real(float64(n))
}

// CountEqual counts the days whose column value equals value.
func (s *Storage) CountEqual(ctx context.Context, stationID int, begin, end climate.Date, column string, value float64) climate.Amount {
	const op = "equal"
	info, err := lookupColumn(column)
	if err != nil {
		return s.aggregateFailed(op, column, err)
	}

	q := fmt.Sprintf("SELECT COUNT(*) %s AND %s = ?", rangeFilter(column), pq.QuoteIdentifier(column))
	n, err := s.scanCount(ctx, q, stationID, begin.Time(), end.Time(), info.missing, value)
	if err != nil {
		return s.aggregateFailed(op, column, err)
	}
	return climate.Real(float64(n))
}
