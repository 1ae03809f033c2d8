package climate

// Direction says which way a new value has to move to break a record.
type Direction int

const (
	GreaterBreaksRecord Direction = iota
	LesserBreaksRecord
)

func (d Direction) String() string {
	if d == LesserBreaksRecord {
		return "lesser"
	}
	return "greater"
}

// SlotConvention says how a tying year is laid out after the year shuffle.
// Precipitation and snow records store [new, s1, s2]; temperature records
// store [s2, s1, new], where s is the shuffled list. Both layouts exist in
// stored data and are kept as they are.
type SlotConvention int

const (
	InsertAtFront SlotConvention = iota
	InsertAtBack
)

// Years holds up to three occurrence years, MissingYear in unused slots.
type Years [3]int

// NoYears is an empty year list.
var NoYears = Years{MissingYear, MissingYear, MissingYear}

// Contains reports whether year is stored in any slot.
func (y Years) Contains(year int) bool {
	return y[0] == year || y[1] == year || y[2] == year
}

// Present returns the stored years, skipping missing slots.
func (y Years) Present() []int {
	out := make([]int, 0, len(y))
	for _, v := range y {
		if v != MissingYear {
			out = append(out, v)
		}
	}
	return out
}

// YearShuffle makes room for a tying year. It returns a new list and leaves
// y untouched. When the oldest slot is filled, slot 1 takes slot 0's year
// if slot 1 is missing or is the smallest of the three; otherwise, if slot 2
// is strictly the smallest, slots 1 and 0 move up one place. When slot 2 is
// empty the years cascade one slot towards it.
func YearShuffle(y Years) Years {
	const m = MissingYear
	out := y
	if out[2] != m {
		if (out[1] < out[2] && out[1] < out[0] && out[0] != m) || out[1] == m {
			out[1] = out[0]
		} else if out[2] < out[1] && out[2] < out[0] && out[0] != m && out[1] != m {
			out[2] = out[1]
			out[1] = out[0]
		}
		return out
	}

	if out[1] != m && out[0] != m {
		out[2] = out[1]
	}
	if out[0] != m {
		out[1] = out[0]
	}
	return out
}

// YearRecord is a record value and the years it was set or tied.
type YearRecord struct {
	Value Amount `json:"value"`
	Years Years  `json:"years"`
}

// Outcome reports what CompareAndUpdate did.
type Outcome int

const (
	Unchanged Outcome = iota
	Broken
	Tied
)

func (o Outcome) String() string {
	switch o {
	case Broken:
		return "broken"
	case Tied:
		return "tied"
	default:
		return "unchanged"
	}
}

// Changed reports whether the record needs to be persisted.
func (o Outcome) Changed() bool { return o != Unchanged }

// CompareAndUpdate checks newValue observed in newYear against rec and
// returns the resulting record. A break resets the years to newYear alone.
// A tie from a year not yet listed shuffles the years and places newYear
// per conv. Missing values on either side leave rec as it is.
func CompareAndUpdate(newValue Amount, newYear int, rec YearRecord, dir Direction, conv SlotConvention) (YearRecord, Outcome) {
	cmp, ok := newValue.Compare(rec.Value)
	if !ok {
		return rec, Unchanged
	}

	if (dir == GreaterBreaksRecord && cmp > 0) || (dir == LesserBreaksRecord && cmp < 0) {
		return YearRecord{
			Value: newValue,
			Years: Years{newYear, MissingYear, MissingYear},
		}, Broken
	}

	if cmp != 0 || rec.Years.Contains(newYear) {
		return rec, Unchanged
	}

	s := YearShuffle(rec.Years)
	years := Years{newYear, s[1], s[2]}
	if conv == InsertAtBack {
		years = Years{s[2], s[1], newYear}
	}
	return YearRecord{Value: rec.Value, Years: years}, Tied
}
