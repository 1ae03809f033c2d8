package climate

// Element describes how one observed quantity is checked against its daily
// record.
type Element struct {
	Name       string
	Direction  Direction
	Convention SlotConvention
	// SkipZero leaves the record alone when the observation is a real zero.
	SkipZero bool
}

var (
	MaxTemperature = Element{Name: "temperature max", Direction: GreaterBreaksRecord, Convention: InsertAtBack}
	MinTemperature = Element{Name: "temperature min", Direction: LesserBreaksRecord, Convention: InsertAtBack}
	Precipitation  = Element{Name: "precipitation max", Direction: GreaterBreaksRecord, Convention: InsertAtFront, SkipZero: true}
	Snowfall       = Element{Name: "snowfall max", Direction: GreaterBreaksRecord, Convention: InsertAtFront, SkipZero: true}
)

// Check runs CompareAndUpdate with the element's direction and slot layout.
func (e Element) Check(newValue Amount, year int, rec YearRecord) (YearRecord, Outcome) {
	if e.SkipZero && newValue.IsZero() {
		return rec, Unchanged
	}
	return CompareAndUpdate(newValue, year, rec, e.Direction, e.Convention)
}

// DateRecord is a period record value and up to three dates it occurred on.
// A zero Date marks an unused slot.
type DateRecord struct {
	Value Amount  `json:"value"`
	Dates [3]Date `json:"dates"`
}

func (r DateRecord) hasDate(d Date) bool {
	return r.Dates[0] == d || r.Dates[1] == d || r.Dates[2] == d
}

// CompareAndUpdateDates is the period record counterpart of
// CompareAndUpdate. A record with no value is set from the observation. A
// tie on a date not already listed pushes the existing dates back one slot
// and drops the last.
func CompareAndUpdateDates(newValue Amount, date Date, rec DateRecord, dir Direction) (DateRecord, Outcome) {
	if newValue.IsMissing() {
		return rec, Unchanged
	}
	if rec.Value.IsMissing() {
		return DateRecord{Value: newValue, Dates: [3]Date{date}}, Broken
	}

	cmp, _ := newValue.Compare(rec.Value)
	if (dir == GreaterBreaksRecord && cmp > 0) || (dir == LesserBreaksRecord && cmp < 0) {
		return DateRecord{Value: newValue, Dates: [3]Date{date}}, Broken
	}
	if cmp != 0 || rec.hasDate(date) {
		return rec, Unchanged
	}
	return DateRecord{
		Value: rec.Value,
		Dates: [3]Date{date, rec.Dates[0], rec.Dates[1]},
	}, Tied
}
