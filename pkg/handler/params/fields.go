// Query parameters shared by the QC and LRT endpoints.
package params

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/yumyai/selscan/pkg/selection"
	"github.com/yumyai/selscan/pkg/seqqc"
)

type Field int

const (
	FieldSource Field = iota
	FieldMinLength
	FieldRequireFrame
	FieldStopScan
	FieldOutlier
	FieldIQRFactor
	FieldZCutoff
	FieldComparison
	FieldSequence
	FieldDF
)

func (f Field) String() string {
	switch f {
	case FieldSource:
		return "source"
	case FieldMinLength:
		return "min_length"
	case FieldRequireFrame:
		return "require_frame"
	case FieldStopScan:
		return "stop_scan"
	case FieldOutlier:
		return "outlier"
	case FieldIQRFactor:
		return "iqr_factor"
	case FieldZCutoff:
		return "z_cutoff"
	case FieldComparison:
		return "comparison"
	case FieldSequence:
		return "sequence"
	case FieldDF:
		return "df"
	default:
		return "unknown"
	}
}

func get(q url.Values, f Field) (string, bool) {
	v := strings.TrimSpace(q.Get(f.String()))
	return v, v != ""
}

// Source names the uploaded body, falling back to def.
func Source(q url.Values, def string) string {
	if v, ok := get(q, FieldSource); ok {
		return v
	}
	return def
}

// QCOptions overrides base with any QC query parameters present and validates the result.
func QCOptions(q url.Values, base seqqc.Options) (seqqc.Options, error) {
	opts := base
	if v, ok := get(q, FieldMinLength); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", FieldMinLength, err)
		}
		opts.MinLength = n
	}
	if v, ok := get(q, FieldRequireFrame); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", FieldRequireFrame, err)
		}
		opts.RequireFrame = b
	}
	if v, ok := get(q, FieldStopScan); ok {
		opts.StopScan = seqqc.StopScan(v)
	}
	if v, ok := get(q, FieldOutlier); ok {
		opts.Outlier.Strategy = seqqc.OutlierStrategy(strings.ToLower(v))
	}
	for _, pf := range []struct {
		field Field
		dst   *float64
	}{
		{FieldIQRFactor, &opts.Outlier.IQRFactor},
		{FieldZCutoff, &opts.Outlier.ZCutoff},
	} {
		if v, ok := get(q, pf.field); ok {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return opts, fmt.Errorf("%s: %w", pf.field, err)
			}
			*pf.dst = x
		}
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

// Comparisons picks comparisons for an LRT request. Repeated comparison
// parameters select from available by name; sequence=M1a,M2a,... with df adds
// consecutive pairs. With neither, available is returned unchanged.
func Comparisons(q url.Values, available []selection.Comparison) ([]selection.Comparison, error) {
	var out []selection.Comparison
	for _, name := range q[FieldComparison.String()] {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		c, ok := find(available, name)
		if !ok {
			return nil, fmt.Errorf("unknown comparison %q", name)
		}
		out = append(out, c)
	}

	if seq, ok := get(q, FieldSequence); ok {
		df := 1.0
		if v, ok := get(q, FieldDF); ok {
			var err error
			if df, err = strconv.ParseFloat(v, 64); err != nil {
				return nil, fmt.Errorf("%s: %w", FieldDF, err)
			}
		}
		models := strings.Split(seq, ",")
		for i := range models {
			models[i] = strings.TrimSpace(models[i])
		}
		pairs, err := selection.SequencePairs(models, df)
		if err != nil {
			return nil, err
		}
		out = append(out, pairs...)
	}

	if len(out) == 0 {
		return available, nil
	}
	return out, nil
}

func find(cmps []selection.Comparison, name string) (selection.Comparison, bool) {
	for _, c := range cmps {
		if c.Name == name {
			return c, true
		}
	}
	return selection.Lookup(name)
}
