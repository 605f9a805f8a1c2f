package valuation

// degenerateSpread is how far below WACC the terminal growth is clamped
// when a caller supplies g >= WACC (which would blow up the perpetuity).
const degenerateSpread = 0.02

// GordonTerminalValue computes the perpetuity-growth terminal value:
//
//	TV = FCF_final * (1 + g) / (WACC - g)
//
// When WACC <= g the growth is clamped to WACC - 2% before computing. The
// effective growth actually used is returned so callers can detect the
// clamp and flag it - it silently alters user input.
func GordonTerminalValue(finalFCF, wacc, terminalGrowth float64) (tv, effectiveGrowth float64) {
	effectiveGrowth = terminalGrowth
	if wacc <= terminalGrowth {
		effectiveGrowth = wacc - degenerateSpread
	}
	return finalFCF * (1 + effectiveGrowth) / (wacc - effectiveGrowth), effectiveGrowth
}

// ExitMultipleTerminalValue computes TV = EBITDA_final * multiple, where
// EBITDA_final compounds the base EBITDA over the same growth schedule the
// FCF projection used (the first `horizon` entries). Independent of WACC.
func ExitMultipleTerminalValue(baseEBITDA float64, rates []float64, horizon int, multiple float64) float64 {
	final := baseEBITDA
	for i := 0; i < horizon && i < len(rates); i++ {
		final *= 1 + rates[i]
	}
	return final * multiple
}
