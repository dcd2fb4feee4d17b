package seqqc

import "strings"

const (
	startCodon = "ATG"
	stopMarker = '*'
)

var stopCodons = map[string]bool{"TAA": true, "TAG": true, "TGA": true}

// Validator classifies single sequences. Rules run in a fixed order and the
// first failure decides the ledger reason:
// start, stop, premature stop, frame, length, alphabet.
type Validator struct {
	opts Options
}

func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Check uppercases seq and returns the first failing reason, or Valid.
func (v *Validator) Check(seq string) Reason {
	return v.check(strings.ToUpper(seq))
}

func (v *Validator) check(seq string) Reason {
	n := len(seq)

	if !strings.HasPrefix(seq, startCodon) {
		return InvalidStart
	}
	if n < 3 || !stopCodons[seq[n-3:]] {
		return InvalidStop
	}
	if v.hasPrematureStop(seq) {
		return PrematureStop
	}
	if v.opts.RequireFrame && n%3 != 0 {
		return NotDivisibleBy3
	}
	if n < v.opts.MinLength {
		return ShortLength
	}
	for i := 0; i < n; i++ {
		switch seq[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return InvalidChars
		}
	}
	return Valid
}

func (v *Validator) hasPrematureStop(seq string) bool {
	from, to := 3, len(seq)-3
	if v.opts.StopScan == StopScanAllButLast {
		from = 0
	}
	if to <= from {
		return false
	}
	return strings.IndexByte(seq[from:to], stopMarker) >= 0
}

// Validate keeps records that pass Check, uppercased, and counts the rest in a new ledger.
func (v *Validator) Validate(in *Dataset) (*Dataset, Ledger) {
	var ledger Ledger
	out := NewDataset()
	for _, rec := range in.Records() {
		seq := strings.ToUpper(rec.Seq)
		if reason := v.check(seq); reason != Valid {
			ledger.Add(reason)
			continue
		}
		out.Add(Record{ID: rec.ID, Seq: seq})
	}
	return out, ledger
}
