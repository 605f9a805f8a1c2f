// Package projection extrapolates a base Free Cash Flow forward over an
// explicit growth-rate schedule.
package projection

import "math"

// DefaultGrowth is the rate applied when the schedule is empty.
const DefaultGrowth = 0.05

// Year is one projected year. Years are numbered from 1.
type Year struct {
	Year       int     `json:"year"`
	FCF        float64 `json:"fcf"`
	GrowthRate float64 `json:"growth_rate"`
}

// Project compounds baseFCF over the growth schedule for `horizon` years:
// fcf_i = fcf_{i-1} * (1 + g_i). When the horizon outruns the schedule the
// last scheduled rate repeats (or DefaultGrowth for an empty schedule).
func Project(baseFCF float64, rates []float64, horizon int) []Year {
	projected := make([]Year, 0, horizon)
	current := baseFCF

	for i := 0; i < horizon; i++ {
		growth := DefaultGrowth
		if i < len(rates) {
			growth = rates[i]
		} else if len(rates) > 0 {
			growth = rates[len(rates)-1]
		}

		current = current * (1 + growth)
		projected = append(projected, Year{
			Year:       i + 1,
			FCF:        current,
			GrowthRate: growth,
		})
	}

	return projected
}

// ExtendSchedule pads an explicit schedule out to `horizon` entries by
// geometrically decaying the final explicit rate toward the terminal growth
// rate: rate_k = max(terminalGrowth, last * 0.9^k) for each added year k.
// Callers extend BEFORE projecting so that terminal-value math sees the
// same schedule the projection used.
func ExtendSchedule(rates []float64, horizon int, terminalGrowth float64) []float64 {
	if horizon <= len(rates) || len(rates) == 0 {
		return rates
	}

	extended := append([]float64(nil), rates...)
	last := rates[len(rates)-1]
	for k := 1; len(extended) < horizon; k++ {
		decayed := last * math.Pow(0.9, float64(k))
		if decayed < terminalGrowth {
			decayed = terminalGrowth
		}
		extended = append(extended, decayed)
	}
	return extended
}
