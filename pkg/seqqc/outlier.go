package seqqc

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Bounds is an inclusive length window.
type Bounds struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

func (b Bounds) Contains(n int) bool {
	x := float64(n)
	return x >= b.Low && x <= b.High
}

// LengthBounds computes the accepted length window for the given strategy.
// It returns ErrInsufficientData for fewer than two lengths.
func LengthBounds(lengths []int, opts OutlierOptions) (Bounds, error) {
	if len(lengths) < 2 {
		return Bounds{}, ErrInsufficientData
	}
	xs := make([]float64, len(lengths))
	for i, n := range lengths {
		xs[i] = float64(n)
	}

	switch opts.Strategy {
	case OutlierIQR, "":
		sort.Float64s(xs)
		q1 := percentile(xs, 25)
		q3 := percentile(xs, 75)
		iqr := q3 - q1
		return Bounds{Low: q1 - opts.IQRFactor*iqr, High: q3 + opts.IQRFactor*iqr}, nil
	case OutlierZScore:
		mean, std := stat.PopMeanStdDev(xs, nil)
		return Bounds{Low: mean - opts.ZCutoff*std, High: mean + opts.ZCutoff*std}, nil
	case OutlierNone:
		return Bounds{Low: math.Inf(-1), High: math.Inf(1)}, nil
	}
	return Bounds{}, fmt.Errorf("unknown outlier strategy %q", opts.Strategy)
}

// percentile interpolates linearly between the closest ranks of sorted,
// the same definition numpy uses by default.
func percentile(sorted []float64, p float64) float64 {
	pos := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// OutlierFilter drops records whose length falls outside LengthBounds.
type OutlierFilter struct {
	opts OutlierOptions
}

func NewOutlierFilter(opts OutlierOptions) *OutlierFilter {
	return &OutlierFilter{opts: opts}
}

// Filter returns the kept records, a ledger of length_outlier drops and the bounds used.
// With fewer than two records nothing is dropped and ok is false.
func (f *OutlierFilter) Filter(in *Dataset) (out *Dataset, ledger Ledger, bounds Bounds, ok bool, err error) {
	if f.opts.Strategy == OutlierNone {
		return in, ledger, Bounds{Low: math.Inf(-1), High: math.Inf(1)}, false, nil
	}
	bounds, err = LengthBounds(in.Lengths(), f.opts)
	if errors.Is(err, ErrInsufficientData) {
		return in, ledger, bounds, false, nil
	}
	if err != nil {
		return nil, ledger, bounds, false, err
	}

	out = NewDataset()
	for _, rec := range in.Records() {
		if !bounds.Contains(rec.Len()) {
			ledger.Add(LengthOutlier)
			continue
		}
		out.Add(rec)
	}
	return out, ledger, bounds, true, nil
}
