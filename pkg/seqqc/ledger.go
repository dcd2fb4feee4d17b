package seqqc

// Reason names why a record was dropped. Valid marks a record that passed validation.
type Reason string

const (
	Valid           Reason = "valid"
	Duplicate       Reason = "duplicate"
	InvalidStart    Reason = "invalid_start"
	InvalidStop     Reason = "invalid_stop"
	PrematureStop   Reason = "premature_stop"
	NotDivisibleBy3 Reason = "not_divisible_by_3"
	ShortLength     Reason = "short_length"
	InvalidChars    Reason = "invalid_chars"
	LengthOutlier   Reason = "length_outlier"
)

// Reasons lists every discard reason in reporting order.
var Reasons = []Reason{
	Duplicate,
	InvalidStart,
	InvalidStop,
	PrematureStop,
	NotDivisibleBy3,
	ShortLength,
	InvalidChars,
	LengthOutlier,
}

// Ledger counts discarded records per reason. The zero value is ready to use.
type Ledger struct {
	counts map[Reason]int
}

func (l *Ledger) Add(reason Reason) {
	l.AddN(reason, 1)
}

func (l *Ledger) AddN(reason Reason, n int) {
	if n == 0 {
		return
	}
	if l.counts == nil {
		l.counts = make(map[Reason]int, len(Reasons))
	}
	l.counts[reason] += n
}

func (l Ledger) Count(reason Reason) int {
	return l.counts[reason]
}

// Total is the number of discarded records across all reasons.
func (l Ledger) Total() int {
	total := 0
	for _, n := range l.counts {
		total += n
	}
	return total
}

// Merge returns a new ledger holding the sum of both.
func (l Ledger) Merge(o Ledger) Ledger {
	var out Ledger
	for r, n := range l.counts {
		out.AddN(r, n)
	}
	for r, n := range o.counts {
		out.AddN(r, n)
	}
	return out
}

// Map returns a copy with every known reason present, zero counts included.
func (l Ledger) Map() map[string]int {
	out := make(map[string]int, len(Reasons))
	for _, r := range Reasons {
		out[string(r)] = l.counts[r]
	}
	return out
}
