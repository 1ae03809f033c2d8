package climate

import (
	"encoding/json"
	"testing"
)

func TestAmountCompare(t *testing.T) {
	tests := []struct {
		name   string
		a, b   Amount
		want   int
		wantOK bool
	}{
		{"reals", Real(1.5), Real(0.5), 1, true},
		{"equal within epsilon", Real(0.1 + 0.2), Real(0.3), 0, true},
		{"trace above zero", Trace(), Real(0), 1, true},
		{"trace below smallest real", Trace(), Real(0.01), -1, true},
		{"trace equals trace", Trace(), Trace(), 0, true},
		{"negative real below trace", Real(-4), Trace(), -1, true},
		{"missing left", Missing(), Real(1), 0, false},
		{"missing right", Real(1), Missing(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Compare(tt.b)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("%v.Compare(%v) = %d, %v; want %d, %v", tt.a, tt.b, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAmountZeroIsNotTrace(t *testing.T) {
	if Trace().IsZero() {
		t.Error("trace reported as zero")
	}
	if Trace().Equal(Real(0)) {
		t.Error("trace equal to zero")
	}
	if !Real(0).IsZero() {
		t.Error("real zero not reported as zero")
	}
}

func TestLegacyConversion(t *testing.T) {
	tests := []struct {
		stored float64
		want   Amount
	}{
		{LegacyMissingPrecip, Missing()},
		{LegacyTrace, Trace()},
		{0, Real(0)},
		{1.37, Real(1.37)},
	}

	for _, tt := range tests {
		got := FromLegacyAmount(tt.stored, LegacyMissingPrecip)
		if !got.Equal(tt.want) || got.Kind() != tt.want.Kind() {
			t.Errorf("FromLegacyAmount(%v) = %v, want %v", tt.stored, got, tt.want)
		}
		if back := got.Legacy(LegacyMissingPrecip); !FloatingEquals(back, tt.stored) {
			t.Errorf("Legacy(%v) = %v, want %v", got, back, tt.stored)
		}
	}

	// Temperatures have no trace state; -1F is a real reading.
	if got := FromLegacyValue(-1, LegacyMissing); !got.Equal(Real(-1)) {
		t.Errorf("FromLegacyValue(-1) = %v, want -1", got)
	}
}

func TestAmountJSON(t *testing.T) {
	tests := []struct {
		in   Amount
		want string
	}{
		{Real(0.52), `0.52`},
		{Trace(), `"T"`},
		{Missing(), `"M"`},
	}

	for _, tt := range tests {
		b, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("Marshal(%v): %v", tt.in, err)
		}
		if string(b) != tt.want {
			t.Errorf("Marshal(%v) = %s, want %s", tt.in, b, tt.want)
		}

		var back Amount
		if err := json.Unmarshal(b, &back); err != nil {
			t.Fatalf("Unmarshal(%s): %v", b, err)
		}
		if !back.Equal(tt.in) {
			t.Errorf("Unmarshal(%s) = %v, want %v", b, back, tt.in)
		}
	}

	var a Amount
	if err := json.Unmarshal([]byte(`null`), &a); err != nil || !a.IsMissing() {
		t.Errorf("null decoded to %v, %v", a, err)
	}
	if err := json.Unmarshal([]byte(`"x"`), &a); err == nil {
		t.Error("expected an error for an invalid amount")
	}
	for _, in := range []string{`"NaN"`, `"Inf"`, `"-Inf"`, `"+Infinity"`} {
		if err := json.Unmarshal([]byte(in), &a); err == nil {
			t.Errorf("Unmarshal(%s) = %v, want an error", in, a)
		}
	}
	if err := json.Unmarshal([]byte(`"0.25"`), &a); err != nil || !a.Equal(Real(0.25)) {
		t.Errorf(`"0.25" decoded to %v, %v`, a, err)
	}
}
