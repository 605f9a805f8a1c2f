package valuation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/api/session"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/extract"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/projection"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/sector"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/store"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/valuation"
)

var (
	source       fundamentals.Source
	bundleCache  *store.FundamentalsCache
	runStore     *store.RunStore
	sectorTable  sector.Table
	universe     sector.Universe
	riskFree     float64
	marketPrem   float64
	defaultYears int
)

// InitHandler wires the package-level collaborators. Pass nil for cache or
// runs to fall back to file-only caching and no run history.
func InitHandler(src fundamentals.Source, cache *store.FundamentalsCache, runs *store.RunStore, table sector.Table, stocks sector.Universe, riskFreeRate, marketPremium float64, horizon int) {
	source = src
	bundleCache = cache
	if bundleCache == nil {
		bundleCache = store.NewFundamentalsCache(nil, "", 0)
	}
	runStore = runs
	if runStore == nil {
		runStore = store.NewRunStore(nil)
	}
	sectorTable = table
	universe = stocks
	riskFree = riskFreeRate
	marketPrem = marketPremium
	defaultYears = horizon
}

// RunRequest carries the ticker plus every assumption the caller may
// override. Zero values mean "derive it".
type RunRequest struct {
	Ticker         string    `json:"ticker"`
	GrowthRates    []float64 `json:"growth_rates,omitempty"`
	Horizon        int       `json:"horizon,omitempty"`
	WACC           float64   `json:"wacc,omitempty"` // manual discount-rate override
	RiskFreeRate   float64   `json:"risk_free_rate,omitempty"`
	MarketPremium  float64   `json:"market_premium,omitempty"`
	TerminalGrowth float64   `json:"terminal_growth,omitempty"`
	TerminalMethod string    `json:"terminal_method,omitempty"` // "gordon" (default) or "exit_multiple"
	ExitMultiple   float64   `json:"exit_multiple,omitempty"`
	BaseFCF        float64   `json:"base_fcf,omitempty"`
}

// RunResponse is the full valuation payload.
type RunResponse struct {
	RunID          string                    `json:"run_id"`
	Ticker         string                    `json:"ticker"`
	CompanyName    string                    `json:"company_name"`
	Sector         string                    `json:"sector"`
	Price          float64                   `json:"price"`
	FairValue      float64                   `json:"fair_value"`
	UpsidePercent  float64                   `json:"upside_percent"`
	BaseFCF        float64                   `json:"base_fcf"`
	BaseEstimated  bool                      `json:"base_fcf_estimated"`
	GrowthRates    []float64                 `json:"growth_rates"`
	Horizon        int                       `json:"horizon"`
	TerminalMethod string                    `json:"terminal_method"`
	TerminalGrowth float64                   `json:"terminal_growth"`
	WACC           valuation.WACCBreakdown   `json:"wacc"`
	Result         valuation.DCFResult       `json:"result"`
	Sensitivity    valuation.SensitivityGrid `json:"sensitivity"`
	FCFHistory     extract.Series            `json:"fcf_history"`
	RevenueHistory extract.Series            `json:"revenue_history"`
}

func setCORS(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}

// HandleRun is POST /api/valuation/run.
func HandleRun(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !session.Authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	ticker := strings.ToUpper(strings.TrimSpace(req.Ticker))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Minute)
	defer cancel()

	bundle, err := fetchBundle(ctx, ticker)
	if err != nil {
		if errors.Is(err, fundamentals.ErrRateLimited) {
			http.Error(w, fmt.Sprintf("Data provider rate limited: %s", ticker), http.StatusTooManyRequests)
			return
		}
		if errors.Is(err, fundamentals.ErrDataUnavailable) {
			http.Error(w, fmt.Sprintf("No data available for: %s", ticker), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	resp := runValuation(ticker, bundle, req)

	runID, err := runStore.Save(ctx, &store.ValuationRun{
		Ticker:      ticker,
		FairValue:   resp.FairValue,
		Price:       resp.Price,
		Result:      &resp.Result,
		Sensitivity: &resp.Sensitivity,
	})
	if err != nil {
		fmt.Printf("[WARNING] Failed to persist run for %s: %v\n", ticker, err)
	} else {
		resp.RunID = runID
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func fetchBundle(ctx context.Context, ticker string) (*fundamentals.Bundle, error) {
	if cached, err := bundleCache.Get(ctx, ticker); err == nil && cached != nil {
		fmt.Printf("[CACHE] Hit for %s\n", ticker)
		return cached, nil
	}

	fmt.Printf("[FETCH] Fetching fundamentals for %s\n", ticker)
	bundle, err := source.Fetch(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if err := bundleCache.Save(ctx, bundle); err != nil {
		fmt.Printf("[WARNING] Failed to cache %s: %v\n", ticker, err)
	}
	return bundle, nil
}

// runValuation executes the full pipeline on an already-fetched bundle.
// Pure given its inputs, which keeps it directly testable.
func runValuation(ticker string, bundle *fundamentals.Bundle, req RunRequest) RunResponse {
	info := bundle.Info
	if info == nil {
		info = &fundamentals.CompanyInfo{}
	}
	params := sectorTable.Lookup(info.Sector)

	// Historical series and base FCF.
	fcfHistory := extract.FCFSeries(info, bundle.CashFlow)
	revHistory := extract.RevenueSeries(bundle.IncomeStatement)

	baseFCF := req.BaseFCF
	estimated := false
	if baseFCF == 0 {
		baseFCF = extract.BaseFCF(fcfHistory, info)
		baseFCF, estimated = extract.EstimateBaseFCF(baseFCF, info.EBITDA, info.MarketCap)
		if estimated {
			fmt.Printf("[WARNING] %s: base FCF estimated from EBITDA/market cap\n", ticker)
		}
	}

	// Assumptions: request overrides first, sector defaults last.
	rf := riskFree
	if req.RiskFreeRate != 0 {
		rf = req.RiskFreeRate
	}
	mp := marketPrem
	if req.MarketPremium != 0 {
		mp = req.MarketPremium
	}
	horizon := req.Horizon
	if horizon == 0 {
		horizon = defaultYears
	}
	if horizon < 3 {
		horizon = 3
	}
	if horizon > 10 {
		horizon = 10
	}
	terminalGrowth := req.TerminalGrowth
	if terminalGrowth == 0 {
		terminalGrowth = params.TerminalGrowth
	}
	rates := req.GrowthRates
	if len(rates) == 0 {
		rates = []float64{0.15, 0.12, 0.10, 0.08, 0.06}
	}

	// Discount rate.
	var wacc valuation.WACCBreakdown
	if req.WACC != 0 {
		wacc = valuation.ManualWACC(req.WACC, info.Beta, rf, mp)
	} else {
		wacc = valuation.EstimateWACC(valuation.CapitalStructure{
			MarketCap:       info.MarketCap,
			TotalDebt:       info.TotalDebt,
			TotalCash:       info.TotalCash,
			InterestExpense: info.InterestExpense,
			Beta:            info.Beta,
			Sector:          info.Sector,
		}, rf, mp, params)
	}

	// Projection over the extended schedule.
	schedule := projection.ExtendSchedule(rates, horizon, terminalGrowth)
	projected := projection.Project(baseFCF, schedule, horizon)
	finalFCF := projected[len(projected)-1].FCF

	// Terminal value.
	method := req.TerminalMethod
	if method == "" {
		method = "gordon"
	}
	var terminalValue float64
	effectiveGrowth := terminalGrowth
	if method == "exit_multiple" {
		multiple := req.ExitMultiple
		if multiple == 0 {
			multiple = params.EVEBITDA
		}
		baseEBITDA := extract.EBITDASeries(bundle.IncomeStatement).Last()
		if baseEBITDA == 0 {
			baseEBITDA = info.EBITDA
		}
		terminalValue = valuation.ExitMultipleTerminalValue(baseEBITDA, schedule, horizon, multiple)
	} else {
		method = "gordon"
		terminalValue, effectiveGrowth = valuation.GordonTerminalValue(finalFCF, wacc.WACC, terminalGrowth)
		if effectiveGrowth != terminalGrowth {
			fmt.Printf("[WARNING] %s: terminal growth %.3f >= WACC %.3f, clamped to %.3f\n",
				ticker, terminalGrowth, wacc.WACC, effectiveGrowth)
		}
	}

	netDebt := info.NetDebt()
	result := valuation.Value(projected, terminalValue, wacc.WACC, netDebt, info.SharesOutstanding)
	// The grid is centered on the requested growth, not the clamped one, so
	// a degenerate base case shows up as the 0 sentinel in the center cell.
	grid := valuation.Sensitivity(baseFCF, schedule, wacc.WACC, terminalGrowth, netDebt, info.SharesOutstanding, horizon)

	price := info.Price()
	upside := 0.0
	if price > 0 {
		upside = (result.FairValue - price) / price * 100
	}

	return RunResponse{
		Ticker:         ticker,
		CompanyName:    info.LongName,
		Sector:         info.Sector,
		Price:          price,
		FairValue:      result.FairValue,
		UpsidePercent:  upside,
		BaseFCF:        baseFCF,
		BaseEstimated:  estimated,
		GrowthRates:    schedule,
		Horizon:        horizon,
		TerminalMethod: method,
		TerminalGrowth: effectiveGrowth,
		WACC:           wacc,
		Result:         result,
		Sensitivity:    grid,
		FCFHistory:     fcfHistory,
		RevenueHistory: revHistory,
	}
}

// HandleStocks is GET /api/stocks: the curated ticker universe.
func HandleStocks(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(universe)
}

// HandleSectors is GET /api/sectors: the active sector parameter table.
func HandleSectors(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sectorTable)
}

// HandleHistory is GET /api/valuation/history?ticker=X: recent runs.
func HandleHistory(w http.ResponseWriter, r *http.Request) {
	setCORS(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if !session.Authorized(r) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	if ticker == "" {
		http.Error(w, "ticker is required", http.StatusBadRequest)
		return
	}
	runs, err := runStore.Recent(r.Context(), ticker, 10)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(runs)
}
