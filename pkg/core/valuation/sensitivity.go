package valuation

import (
	"sync"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/projection"
)

// SensitivityGrid is the 5x5 fair-value surface over WACC x terminal
// growth perturbations around the base case. Rows follow WACCRange order,
// columns follow GrowthRange order (both ascending). A cell holds the 0
// sentinel - not a valid fair value - wherever wacc <= growth for that pair.
type SensitivityGrid struct {
	Matrix      [][]float64 `json:"matrix"`
	WACCRange   []float64   `json:"wacc_range"`
	GrowthRange []float64   `json:"growth_range"`
}

// Sensitivity recomputes the full project -> Gordon -> discount pipeline
// for each of the 25 (wacc, growth) combinations. Each cell is a pure
// function of its scalars, so rows are evaluated concurrently; ordering is
// fixed by index, never by completion order.
func Sensitivity(baseFCF float64, rates []float64, waccBase, terminalGrowthBase, netDebt, shares float64, horizon int) SensitivityGrid {
	waccRange := []float64{waccBase - 0.02, waccBase - 0.01, waccBase, waccBase + 0.01, waccBase + 0.02}
	growthRange := []float64{
		terminalGrowthBase - 0.01, terminalGrowthBase - 0.005, terminalGrowthBase,
		terminalGrowthBase + 0.005, terminalGrowthBase + 0.01,
	}

	matrix := make([][]float64, len(waccRange))

	// A non-positive horizon has nothing to project; every cell holds the
	// sentinel rather than indexing into an empty projection.
	if horizon <= 0 {
		for i := range matrix {
			matrix[i] = make([]float64, len(growthRange))
		}
		return SensitivityGrid{Matrix: matrix, WACCRange: waccRange, GrowthRange: growthRange}
	}

	var wg sync.WaitGroup
	for i, wacc := range waccRange {
		wg.Add(1)
		go func(i int, wacc float64) {
			defer wg.Done()
			row := make([]float64, len(growthRange))
			for j, growth := range growthRange {
				if wacc <= growth {
					row[j] = 0
					continue
				}
				projected := projection.Project(baseFCF, rates, horizon)
				tv, _ := GordonTerminalValue(projected[len(projected)-1].FCF, wacc, growth)
				row[j] = Value(projected, tv, wacc, netDebt, shares).FairValue
			}
			matrix[i] = row
		}(i, wacc)
	}
	wg.Wait()

	return SensitivityGrid{
		Matrix:      matrix,
		WACCRange:   waccRange,
		GrowthRange: growthRange,
	}
}
