package climate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind tags the state carried by an Amount.
type Kind uint8

const (
	KindMissing Kind = iota
	KindTrace
	KindReal
)

func (k Kind) String() string {
	switch k {
	case KindTrace:
		return "trace"
	case KindReal:
		return "real"
	default:
		return "missing"
	}
}

// Amount is a measured quantity that is either a real value, a trace
// (present but below measurable resolution) or missing. The zero value is
// missing.
type Amount struct {
	kind  Kind
	value float64
}

// Real returns a measured amount.
func Real(v float64) Amount {
	return Amount{kind: KindReal, value: v}
}

// Trace returns a trace amount.
func Trace() Amount {
	return Amount{kind: KindTrace}
}

// Missing returns a missing amount.
func Missing() Amount {
	return Amount{}
}

func (a Amount) Kind() Kind      { return a.kind }
func (a Amount) IsMissing() bool { return a.kind == KindMissing }
func (a Amount) IsTrace() bool   { return a.kind == KindTrace }
func (a Amount) IsReal() bool    { return a.kind == KindReal }

// IsZero reports whether a is a real amount equal to zero. Trace is never zero.
func (a Amount) IsZero() bool {
	return a.kind == KindReal && FloatingEquals(a.value, 0)
}

// Value returns the real value of a. ok is false for trace and missing.
func (a Amount) Value() (v float64, ok bool) {
	if a.kind != KindReal {
		return 0, false
	}
	return a.value, true
}

// Float returns the real value of a, or 0 for trace and missing.
func (a Amount) Float() float64 {
	if a.kind != KindReal {
		return 0
	}
	return a.value
}

// rank places trace between a real zero and any positive real.
func (a Amount) rank() (float64, int) {
	if a.kind == KindTrace {
		return 0, 1
	}
	if a.value > 0 && !FloatingEquals(a.value, 0) {
		return a.value, 2
	}
	return a.value, 0
}

// Compare orders two amounts: -1 if a < b, 0 if equal, 1 if a > b. ok is
// false when either side is missing, in which case no ordering exists.
func (a Amount) Compare(b Amount) (cmp int, ok bool) {
	if a.kind == KindMissing || b.kind == KindMissing {
		return 0, false
	}
	av, ab := a.rank()
	bv, bb := b.rank()
	if ab != bb {
		if ab < bb {
			return -1, true
		}
		return 1, true
	}
	if ab == 1 || FloatingEquals(av, bv) {
		return 0, true
	}
	if av < bv {
		return -1, true
	}
	return 1, true
}

// Equal reports whether a and b are the same amount. Two missing amounts are
// equal to each other.
func (a Amount) Equal(b Amount) bool {
	if a.kind == KindMissing || b.kind == KindMissing {
		return a.kind == b.kind
	}
	c, _ := a.Compare(b)
	return c == 0
}

// Greater reports a > b; false when either is missing.
func (a Amount) Greater(b Amount) bool {
	c, ok := a.Compare(b)
	return ok && c > 0
}

// Less reports a < b; false when either is missing.
func (a Amount) Less(b Amount) bool {
	c, ok := a.Compare(b)
	return ok && c < 0
}

func (a Amount) String() string {
	switch a.kind {
	case KindTrace:
		return "T"
	case KindReal:
		return strconv.FormatFloat(a.value, 'f', -1, 64)
	default:
		return "M"
	}
}

// FromLegacyAmount converts a stored precipitation or snow value, where
// LegacyTrace marks trace and missing marks no data.
func FromLegacyAmount(v, missing float64) Amount {
	switch {
	case FloatingEquals(v, missing):
		return Missing()
	case FloatingEquals(v, LegacyTrace):
		return Trace()
	default:
		return Real(v)
	}
}

// FromLegacyValue converts a stored value that has no trace state, such as a
// temperature, where negative values are real.
func FromLegacyValue(v, missing float64) Amount {
	if FloatingEquals(v, missing) {
		return Missing()
	}
	return Real(v)
}

// Legacy returns the stored representation of a using missing as the
// missing sentinel.
func (a Amount) Legacy(missing float64) float64 {
	switch a.kind {
	case KindTrace:
		return LegacyTrace
	case KindReal:
		return a.value
	default:
		return missing
	}
}

// MarshalJSON encodes real amounts as numbers and trace and missing as the
// conventional "T" and "M".
func (a Amount) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case KindReal:
		return json.Marshal(a.value)
	default:
		return json.Marshal(a.String())
	}
}

// UnmarshalJSON accepts a number, "T", "M" or null. Quoted numbers must be
// finite.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = Missing()
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch s {
		case "T", "t":
			*a = Trace()
		case "M", "m", "":
			*a = Missing()
		default:
			v, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("invalid amount %q", s)
			}
			*a = Real(v)
		}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}
	*a = Real(v)
	return nil
}

// MarshalText is used by encoders without JSON support, such as msgpack.
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}
