package selection

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// LRT returns 2·(lnL_alt − lnL_null).
func LRT(lnlAlt, lnlNull float64) float64 {
	return 2 * (lnlAlt - lnlNull)
}

// PValue is the chi-squared survival function of stat with df degrees of freedom.
// Non-positive statistics give 1.
func PValue(stat, df float64) float64 {
	if stat <= 0 || math.IsNaN(stat) {
		return 1
	}
	p := distuv.ChiSquared{K: df}.Survival(stat)
	return clamp01(p)
}

// Test runs a single likelihood-ratio test. negative is true when the
// alternative fits worse than the null, which should not happen for nested models.
func Test(lnlAlt, lnlNull, df float64) (stat, p float64, negative bool) {
	stat = LRT(lnlAlt, lnlNull)
	return stat, PValue(stat, df), lnlAlt < lnlNull
}

func clamp01(x float64) float64 {
	switch {
	case x < 0:
		return 0
	case x > 1:
		return 1
	}
	return x
}
