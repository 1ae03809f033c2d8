package climate

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DegreeDayBase is the mean temperature (F) heating and cooling degree days
// are measured from.
const DegreeDayBase = 65

// Nint rounds half away from zero.
func Nint(v float64) int {
	return int(math.Round(v))
}

// MeanTemperature is the average of a day's max and min.
func MeanTemperature(maxTemp, minTemp Amount) Amount {
	hi, ok1 := maxTemp.Value()
	lo, ok2 := minTemp.Value()
	if !ok1 || !ok2 {
		return Missing()
	}
	return Real((hi + lo) / 2)
}

// CoolingDegreeDays returns the cooling degree days for a daily mean.
func CoolingDegreeDays(mean Amount) Amount {
	v, ok := mean.Value()
	if !ok {
		return Missing()
	}
	if t := Nint(v); t > DegreeDayBase {
		return Real(float64(t - DegreeDayBase))
	}
	return Real(0)
}

// HeatingDegreeDays returns the heating degree days for a daily mean.
func HeatingDegreeDays(mean Amount) Amount {
	v, ok := mean.Value()
	if !ok {
		return Missing()
	}
	if t := Nint(v); t <= DegreeDayBase {
		return Real(float64(DegreeDayBase - t))
	}
	return Real(0)
}

func realValues(values []Amount) []float64 {
	out := make([]float64, 0, len(values))
	for _, a := range values {
		if v, ok := a.Value(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Sum adds the real values, skipping missing and trace. It is missing when
// nothing real was given.
func Sum(values []Amount) Amount {
	vs := realValues(values)
	if len(vs) == 0 {
		return Missing()
	}
	return Real(floats.Sum(vs))
}

// Mean averages the real values, skipping missing and trace.
func Mean(values []Amount) Amount {
	vs := realValues(values)
	if len(vs) == 0 {
		return Missing()
	}
	return Real(stat.Mean(vs, nil))
}
