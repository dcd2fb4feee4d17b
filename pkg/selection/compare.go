package selection

import (
	"errors"

	"go.uber.org/zap"

	"github.com/yumyai/selscan/logger"
)

// ComparisonResult is one gene's test for one comparison.
type ComparisonResult struct {
	Gene      string  `json:"gene"`
	LnLAlt    float64 `json:"lnL_alt"`
	LnLNull   float64 `json:"lnL_null"`
	LRT       float64 `json:"lrt"`
	PValue    float64 `json:"p_value"`
	AdjustedP float64 `json:"bh_p_value"`
	// Negative marks lnL_alt < lnL_null; PValue is then 1.
	Negative bool `json:"negative,omitempty"`
}

// ComparisonSet groups the results that were adjusted together.
type ComparisonSet struct {
	Comparison Comparison         `json:"comparison"`
	Results    []ComparisonResult `json:"results"`
}

// Compare tests every gene that has both models of c, then adjusts the p-values
// of exactly that gene set. Genes missing either model are left out.
func Compare(t *Table, c Comparison) ([]ComparisonResult, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var results []ComparisonResult
	for _, gene := range t.Genes() {
		alt, errAlt := t.LnL(gene, c.Alt)
		null, errNull := t.LnL(gene, c.Null)
		if err := errors.Join(errAlt, errNull); err != nil {
			logger.Debug("Comparison unavailable for gene",
				zap.String("comparison", c.Name), zap.String("gene", gene), zap.Error(err))
			continue
		}

		stat, p, negative := Test(alt, null, c.DF)
		if negative {
			logger.Warn("Alternative model fits worse than null, reporting p=1",
				zap.String("comparison", c.Name),
				zap.String("gene", gene),
				zap.Float64("lnL_alt", alt),
				zap.Float64("lnL_null", null),
			)
		}
		results = append(results, ComparisonResult{
			Gene:     gene,
			LnLAlt:   alt,
			LnLNull:  null,
			LRT:      stat,
			PValue:   p,
			Negative: negative,
		})
	}

	if len(results) == 0 {
		return results, nil
	}

	pvals := make([]float64, len(results))
	for i, r := range results {
		pvals[i] = r.PValue
	}
	adjusted, err := BenjaminiHochberg(pvals)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].AdjustedP = adjusted[i]
	}
	return results, nil
}

// CompareAll runs each comparison independently.
func CompareAll(t *Table, cmps []Comparison) ([]ComparisonSet, error) {
	out := make([]ComparisonSet, 0, len(cmps))
	for _, c := range cmps {
		res, err := Compare(t, c)
		if err != nil {
			return nil, err
		}
		logger.Info("Compared models",
			zap.String("comparison", c.Name),
			zap.String("alt", c.Alt),
			zap.String("null", c.Null),
			zap.Int("genes", len(res)),
		)
		out = append(out, ComparisonSet{Comparison: c, Results: res})
	}
	return out, nil
}
