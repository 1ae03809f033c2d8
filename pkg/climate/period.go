package climate

import (
	"fmt"
	"time"
)

// PeriodType identifies the span a month climate norm row covers. The values
// match the period_type column.
type PeriodType int

const (
	PeriodMonthly  PeriodType = 5
	PeriodSeasonal PeriodType = 7
	PeriodAnnual   PeriodType = 9
)

func (p PeriodType) String() string {
	switch p {
	case PeriodMonthly:
		return "monthly"
	case PeriodSeasonal:
		return "seasonal"
	case PeriodAnnual:
		return "annual"
	default:
		return "unknown"
	}
}

// ParsePeriodType parses the String form of a period type.
func ParsePeriodType(s string) (PeriodType, error) {
	for _, p := range RecordPeriods {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown period type %q", s)
}

// SeasonMonth returns the month key a seasonal record is stored under: the
// middle month of the meteorological season containing m.
func SeasonMonth(m time.Month) time.Month {
	switch m {
	case time.December, time.January, time.February:
		return time.February
	case time.March, time.April, time.May:
		return time.May
	case time.June, time.July, time.August:
		return time.August
	default:
		return time.November
	}
}

// AnnualMonth is the month key annual records are stored under.
const AnnualMonth = time.December

// PeriodMonth returns the month key for the record of period p containing m.
func PeriodMonth(p PeriodType, m time.Month) time.Month {
	switch p {
	case PeriodSeasonal:
		return SeasonMonth(m)
	case PeriodAnnual:
		return AnnualMonth
	default:
		return m
	}
}

// RecordPeriods lists the period types checked for every observation.
var RecordPeriods = []PeriodType{PeriodMonthly, PeriodSeasonal, PeriodAnnual}
