package valuation

import "github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/sector"

// Default CAPM market inputs (10Y government bond yield and equity risk
// premium for the home market).
const (
	DefaultRiskFreeRate  = 0.07
	DefaultMarketPremium = 0.06
)

// Beta is clamped into this band before CAPM regardless of source.
const (
	minBeta = 0.5
	maxBeta = 2.0
)

// maxCostOfDebt caps the implied cost of debt; interest/debt ratios above
// this are treated as data artifacts, not real borrowing costs.
const maxCostOfDebt = 0.15

// CapitalStructure is a point-in-time read of the company's fundamentals
// needed for the cost-of-capital estimate. Immutable once fetched for a run.
type CapitalStructure struct {
	MarketCap       float64
	TotalDebt       float64
	TotalCash       float64
	InterestExpense float64
	Beta            float64
	Sector          string
}

// WACCBreakdown holds the discount rate and every component that produced
// it, for display alongside the valuation.
type WACCBreakdown struct {
	WACC          float64 `json:"wacc"`
	CostOfEquity  float64 `json:"cost_of_equity"`
	CostOfDebt    float64 `json:"cost_of_debt"`
	Beta          float64 `json:"beta"`
	EquityWeight  float64 `json:"equity_weight"`
	DebtWeight    float64 `json:"debt_weight"`
	TaxRate       float64 `json:"tax_rate"`
	RiskFreeRate  float64 `json:"risk_free_rate"`
	MarketPremium float64 `json:"market_premium"`
}

// EstimateWACC computes the Weighted Average Cost of Capital via CAPM.
//
//	Ke = Rf + beta * ERP
//	Kd = |interest| / debt  (capped, else Rf + 2%)
//	WACC = We*Ke + Wd*Kd*(1 - tax)
//
// Weights come from market values when both are observable, else from the
// sector's canonical D/E ratio. Every missing input degrades to the sector
// default; this never fails.
func EstimateWACC(cs CapitalStructure, riskFreeRate, marketPremium float64, params sector.Params) WACCBreakdown {
	// Beta: company-reported when present and nonzero, else sector default.
	beta := cs.Beta
	if beta == 0 {
		beta = params.Beta
	}
	if beta < minBeta {
		beta = minBeta
	}
	if beta > maxBeta {
		beta = maxBeta
	}

	// Cost of Equity (CAPM).
	costOfEquity := riskFreeRate + beta*marketPremium

	// Cost of Debt: implied from interest expense when observable.
	costOfDebt := riskFreeRate + 0.02
	if cs.TotalDebt > 0 && cs.InterestExpense > 0 {
		costOfDebt = abs(cs.InterestExpense) / cs.TotalDebt
	}
	if costOfDebt > maxCostOfDebt {
		costOfDebt = maxCostOfDebt
	}

	// Capital weights: market values when both sides are observable,
	// else derived from the sector D/E ratio.
	var equityWeight, debtWeight float64
	if cs.MarketCap > 0 && cs.TotalDebt > 0 {
		total := cs.MarketCap + cs.TotalDebt
		equityWeight = cs.MarketCap / total
		debtWeight = cs.TotalDebt / total
	} else {
		de := params.DebtEquity
		equityWeight = 1 / (1 + de)
		debtWeight = de / (1 + de)
	}

	taxRate := params.TaxRate

	wacc := equityWeight*costOfEquity + debtWeight*costOfDebt*(1-taxRate)

	return WACCBreakdown{
		WACC:          wacc,
		CostOfEquity:  costOfEquity,
		CostOfDebt:    costOfDebt,
		Beta:          beta,
		EquityWeight:  equityWeight,
		DebtWeight:    debtWeight,
		TaxRate:       taxRate,
		RiskFreeRate:  riskFreeRate,
		MarketPremium: marketPremium,
	}
}

// ManualWACC builds a breakdown around a caller-supplied discount rate.
// The component fields are filled for display consistency only (fixed 80/20
// split, Kd at 70% of WACC, flat 25% tax) and feed no further computation.
func ManualWACC(wacc, beta, riskFreeRate, marketPremium float64) WACCBreakdown {
	if beta == 0 {
		beta = 1.0
	}
	return WACCBreakdown{
		WACC:          wacc,
		CostOfEquity:  wacc,
		CostOfDebt:    wacc * 0.7,
		Beta:          beta,
		EquityWeight:  0.8,
		DebtWeight:    0.2,
		TaxRate:       0.25,
		RiskFreeRate:  riskFreeRate,
		MarketPremium: marketPremium,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
