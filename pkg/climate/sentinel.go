// Package climate holds the pure climate record algorithms: amounts with
// explicit trace and missing states, the 24-hour rolling window maximum and
// the record year bookkeeping. Nothing in this package performs I/O.
package climate

import "math"

// Legacy sentinels as stored in the climate tables. They are only read and
// written by the persistence layer; everything else works with Amount.
const (
	LegacyMissing          = 9999
	LegacyMissingPrecip    = 9999.0
	LegacyMissingSnow      = 9999.0
	LegacyMissingSpeed     = 9999.0
	LegacyMissingDegreeDay = 9999
	LegacyMissingDate      = 99
	LegacyMissingHour      = 99
	LegacyTrace            = -1.0
)

// MissingYear fills unused record year slots.
const MissingYear = LegacyMissing

// FloatEpsilon is the tolerance used for every equality test on amounts.
const FloatEpsilon = 0.00001

// FloatingEquals reports whether a and b are equal within FloatEpsilon.
func FloatingEquals(a, b float64) bool {
	return math.Abs(a-b) < FloatEpsilon
}
