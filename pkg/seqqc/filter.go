package seqqc

import (
	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
)

// Result holds every snapshot a filter run produced and the combined ledger.
type Result struct {
	Raw          int
	Deduplicated *Dataset
	Validated    *Dataset
	Passed       *Dataset
	Trimmed      *Dataset
	Ledger       Ledger
	// Bounds is only meaningful when BoundsApplied is true.
	Bounds        Bounds
	BoundsApplied bool
}

// Filter runs Deduplicate, the Validator and the OutlierFilter in that order.
type Filter struct {
	opts      Options
	validator *Validator
	outliers  *OutlierFilter
}

func NewFilter(opts Options) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Filter{
		opts:      opts,
		validator: NewValidator(opts),
		outliers:  NewOutlierFilter(opts.Outlier),
	}, nil
}

func (f *Filter) Options() Options {
	return f.opts
}

// Run filters records, which must be in file order for duplicate-first-wins to hold.
func (f *Filter) Run(records []Record) (*Result, error) {
	res := &Result{Raw: len(records)}

	dedup, dupLedger := Deduplicate(records)
	res.Deduplicated = dedup
	logger.Debug("Removed duplicates", zap.Int("unique", dedup.Len()), zap.Int("duplicates", dupLedger.Total()))

	valid, valLedger := f.validator.Validate(dedup)
	res.Validated = valid
	logger.Debug("Validated sequences", zap.Int("valid", valid.Len()), zap.Int("invalid", valLedger.Total()))

	passed, outLedger, bounds, applied, err := f.outliers.Filter(valid)
	if err != nil {
		return nil, err
	}
	if applied {
		logger.Debug("Applied length bounds",
			zap.String("strategy", string(f.opts.Outlier.Strategy)),
			zap.Float64("low", bounds.Low),
			zap.Float64("high", bounds.High),
			zap.Int("outliers", outLedger.Total()),
		)
	}
	res.Passed = passed
	res.Bounds = bounds
	res.BoundsApplied = applied
	res.Trimmed = Trim(passed)
	res.Ledger = dupLedger.Merge(valLedger).Merge(outLedger)
	return res, nil
}

// Trim copies every record with its stop codon removed.
func Trim(in *Dataset) *Dataset {
	out := NewDataset()
	for _, rec := range in.Records() {
		out.Add(rec.Trimmed())
	}
	return out
}
