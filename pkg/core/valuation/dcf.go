// Package valuation implements the DCF engine: cost of capital, terminal
// value, present-value aggregation and the sensitivity surface.
//
// Everything here is a pure function of its inputs - no I/O, no shared
// state - so a valuation is trivially recomputable and the sensitivity grid
// can fan out without coordination.
package valuation

import (
	"math"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/projection"
)

// YearPV is the per-year discounting breakdown kept for display.
type YearPV struct {
	Year           int     `json:"year"`
	FCF            float64 `json:"fcf"`
	DiscountFactor float64 `json:"discount_factor"`
	PV             float64 `json:"pv"`
}

// DCFResult is the complete valuation output.
//
// Invariants: EnterpriseValue = PVFCFs + PVTerminal and
// EquityValue = EnterpriseValue - netDebt hold exactly; FairValue is
// floored at zero.
type DCFResult struct {
	PVFCFs          float64  `json:"pv_fcfs"`
	PVTerminal      float64  `json:"pv_terminal"`
	TerminalValue   float64  `json:"terminal_value"`
	EnterpriseValue float64  `json:"enterprise_value"`
	EquityValue     float64  `json:"equity_value"`
	FairValue       float64  `json:"fair_value"`
	Breakdown       []YearPV `json:"pv_breakdown"`
}

// Value discounts the projected series plus terminal value to present value
// and derives enterprise, equity and per-share fair value.
//
// netDebt may be negative (net cash), which raises equity value. A
// non-positive share count yields fair value 0 rather than a division blowup.
func Value(projected []projection.Year, terminalValue, wacc, netDebt, sharesOutstanding float64) DCFResult {
	var pvFCFs float64
	breakdown := make([]YearPV, 0, len(projected))

	for _, year := range projected {
		factor := math.Pow(1+wacc, float64(year.Year))
		pv := year.FCF / factor
		pvFCFs += pv
		breakdown = append(breakdown, YearPV{
			Year:           year.Year,
			FCF:            year.FCF,
			DiscountFactor: factor,
			PV:             pv,
		})
	}

	// Terminal value is discounted at the final horizon year's factor.
	horizon := len(projected)
	pvTerminal := terminalValue / math.Pow(1+wacc, float64(horizon))

	enterpriseValue := pvFCFs + pvTerminal
	equityValue := enterpriseValue - netDebt

	fairValue := 0.0
	if sharesOutstanding > 0 {
		fairValue = equityValue / sharesOutstanding
	}
	if fairValue < 0 {
		fairValue = 0
	}

	return DCFResult{
		PVFCFs:          pvFCFs,
		PVTerminal:      pvTerminal,
		TerminalValue:   terminalValue,
		EnterpriseValue: enterpriseValue,
		EquityValue:     equityValue,
		FairValue:       fairValue,
		Breakdown:       breakdown,
	}
}
