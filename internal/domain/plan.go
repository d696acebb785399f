package domain

// Encoding is the kind-specific part of a slot assignment. The set of
// implementations is closed: Numeric, Ordinal and Nominal.
type Encoding interface {
	Kind() FeatureKind
	width() int
}

// Numeric standardizes a value with (x - Mean) / Std.
type Numeric struct {
	Mean float64
	Std  float64
}

func (Numeric) Kind() FeatureKind { return KindNumeric }
func (Numeric) width() int        { return 1 }

// Ordinal writes the position of the value in Order.
type Ordinal struct {
	Order []string
}

func (Ordinal) Kind() FeatureKind { return KindOrdinal }
func (Ordinal) width() int        { return 1 }

// Nominal writes a one-hot pattern over Values.
type Nominal struct {
	Values []string
}

func (Nominal) Kind() FeatureKind { return KindNominal }
func (n Nominal) width() int      { return len(n.Values) }

// SlotAssignment places one feature in the output vector.
type SlotAssignment struct {
	Name     string
	Start    int
	Length   int
	Encoding Encoding
}

// End is the exclusive end of the slot range.
func (s SlotAssignment) End() int {
	return s.Start + s.Length
}

// EncodingPlan is the compiled, read-only layout of a feature space.
type EncodingPlan struct {
	slots        []SlotAssignment
	index        map[string]int
	vectorLength int
}

// NewEncodingPlan lays the given encodings out contiguously, in order.
// Callers are expected to have validated names and encodings already.
func NewEncodingPlan(names []string, encodings []Encoding) *EncodingPlan {
	plan := &EncodingPlan{
		slots: make([]SlotAssignment, 0, len(names)),
		index: make(map[string]int, len(names)),
	}
	cursor := 0
	for i, name := range names {
		w := encodings[i].width()
		plan.index[name] = len(plan.slots)
		plan.slots = append(plan.slots, SlotAssignment{
			Name:     name,
			Start:    cursor,
			Length:   w,
			Encoding: encodings[i],
		})
		cursor += w
	}
	plan.vectorLength = cursor
	return plan
}

// VectorLength is the total encoded width.
func (p *EncodingPlan) VectorLength() int {
	return p.vectorLength
}

// Len is the number of features in the plan.
func (p *EncodingPlan) Len() int {
	return len(p.slots)
}

// Slots returns a deep copy of the slot assignments in plan order.
func (p *EncodingPlan) Slots() []SlotAssignment {
	out := make([]SlotAssignment, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.clone()
	}
	return out
}

// Slot looks up the assignment of a feature by name.
func (p *EncodingPlan) Slot(name string) (SlotAssignment, bool) {
	i, ok := p.index[name]
	if !ok {
		return SlotAssignment{}, false
	}
	return p.slots[i].clone(), true
}

func (s SlotAssignment) clone() SlotAssignment {
	switch enc := s.Encoding.(type) {
	case Ordinal:
		s.Encoding = Ordinal{Order: append([]string(nil), enc.Order...)}
	case Nominal:
		s.Encoding = Nominal{Values: append([]string(nil), enc.Values...)}
	}
	return s
}
