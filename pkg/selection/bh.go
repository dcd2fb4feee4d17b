package selection

import "sort"

// BenjaminiHochberg adjusts p-values for the false discovery rate.
// The result is in input order; values are non-decreasing in raw p order,
// never below the raw value and never above 1.
func BenjaminiHochberg(pvals []float64) ([]float64, error) {
	m := len(pvals)
	if m == 0 {
		return nil, ErrInsufficientData
	}

	order := make([]int, m)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return pvals[order[a]] < pvals[order[b]]
	})

	adjusted := make([]float64, m)
	running := 1.0
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		candidate := float64(m) / float64(rank) * pvals[idx]
		if candidate < running {
			running = candidate
		}
		adjusted[idx] = clamp01(running)
	}
	return adjusted, nil
}
