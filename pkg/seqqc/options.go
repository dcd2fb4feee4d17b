package seqqc

import "fmt"

// StopScan selects which part of a sequence is searched for an internal stop marker.
type StopScan string

const (
	// StopScanInner searches [3, len-3): the start and terminal codons are skipped.
	StopScanInner StopScan = "inner"
	// StopScanAllButLast searches [0, len-3).
	StopScanAllButLast StopScan = "all-but-last"
)

// OutlierStrategy selects how length bounds are computed.
type OutlierStrategy string

const (
	OutlierIQR    OutlierStrategy = "iqr"
	OutlierZScore OutlierStrategy = "zscore"
	OutlierNone   OutlierStrategy = "none"
)

type OutlierOptions struct {
	Strategy  OutlierStrategy `mapstructure:"strategy" json:"strategy"`
	IQRFactor float64         `mapstructure:"iqr-factor" json:"iqr_factor"`
	ZCutoff   float64         `mapstructure:"z-cutoff" json:"z_cutoff"`
}

// Options configures the validator and outlier filter.
type Options struct {
	// Sequences shorter than this are discarded as short_length.
	MinLength int `mapstructure:"min-length" json:"min_length"`
	// Disable to skip the not_divisible_by_3 rule.
	RequireFrame bool           `mapstructure:"require-frame" json:"require_frame"`
	StopScan     StopScan       `mapstructure:"stop-scan" json:"stop_scan"`
	Outlier      OutlierOptions `mapstructure:"outlier" json:"outlier"`
}

const DefaultMinLength = 300

func DefaultOptions() Options {
	return Options{
		MinLength:    DefaultMinLength,
		RequireFrame: true,
		StopScan:     StopScanInner,
		Outlier: OutlierOptions{
			Strategy:  OutlierIQR,
			IQRFactor: 1.5,
			ZCutoff:   2,
		},
	}
}

// Validate checks enum fields and fills zero numeric fields with defaults.
func (o *Options) Validate() error {
	def := DefaultOptions()
	if o.MinLength < 0 {
		return fmt.Errorf("min length must not be negative, got %d", o.MinLength)
	}
	switch o.StopScan {
	case "":
		o.StopScan = def.StopScan
	case StopScanInner, StopScanAllButLast:
	default:
		return fmt.Errorf("unknown stop scan %q (want %s or %s)", o.StopScan, StopScanInner, StopScanAllButLast)
	}
	switch o.Outlier.Strategy {
	case "":
		o.Outlier.Strategy = def.Outlier.Strategy
	case OutlierIQR, OutlierZScore, OutlierNone:
	default:
		return fmt.Errorf("unknown outlier strategy %q", o.Outlier.Strategy)
	}
	if o.Outlier.IQRFactor <= 0 {
		o.Outlier.IQRFactor = def.Outlier.IQRFactor
	}
	if o.Outlier.ZCutoff <= 0 {
		o.Outlier.ZCutoff = def.Outlier.ZCutoff
	}
	return nil
}
