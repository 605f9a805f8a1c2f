package valuation

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/sector"
	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/store"
)

type stubSource struct {
	bundle *fundamentals.Bundle
	err    error
}

func (s *stubSource) Fetch(ctx context.Context, ticker string) (*fundamentals.Bundle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.bundle, nil
}

func stubBundle() *fundamentals.Bundle {
	cf := fundamentals.NewStatement("2023", "2022", "2021")
	cf.SetCell("Free Cash Flow", 0, 1.2e9)
	cf.SetCell("Free Cash Flow", 1, 1.1e9)
	cf.SetCell("Free Cash Flow", 2, 1.0e9)

	inc := fundamentals.NewStatement("2023", "2022")
	inc.SetCell("Total Revenue", 0, 8e9)
	inc.SetCell("Total Revenue", 1, 7e9)
	inc.SetCell("EBITDA", 0, 2e9)

	return &fundamentals.Bundle{
		Ticker: "TEST.NS",
		Info: &fundamentals.CompanyInfo{
			LongName:          "Test Industries",
			Sector:            "Technology",
			CurrentPrice:      50,
			MarketCap:         4e10,
			SharesOutstanding: 8e8,
			TotalDebt:         5e9,
			TotalCash:         3e9,
			EBITDA:            2e9,
			Beta:              1.1,
			InterestExpense:   3e8,
		},
		IncomeStatement: inc,
		CashFlow:        cf,
	}
}

func initTestHandler(t *testing.T, src fundamentals.Source) {
	t.Helper()
	cache := store.NewFundamentalsCache(nil, t.TempDir(), time.Hour)
	runs := store.NewFileRunStore(t.TempDir())
	InitHandler(src, cache, runs, sector.DefaultTable(), sector.DefaultUniverse(), 0.07, 0.06, 5)
}

func postRun(t *testing.T, req RunRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	r := httptest.NewRequest("POST", "/api/valuation/run", bytes.NewReader(body))
	w := httptest.NewRecorder()
	HandleRun(w, r)
	return w
}

func TestHandleRunHappyPath(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	w := postRun(t, RunRequest{Ticker: "test.ns"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}

	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Ticker != "TEST.NS" {
		t.Errorf("ticker: got %q", resp.Ticker)
	}
	if resp.FairValue <= 0 {
		t.Errorf("fair value: got %v", resp.FairValue)
	}
	// Most recent historical FCF is the base.
	if resp.BaseFCF != 1.2e9 || resp.BaseEstimated {
		t.Errorf("base fcf: got %v (estimated=%v)", resp.BaseFCF, resp.BaseEstimated)
	}
	if len(resp.Sensitivity.Matrix) != 5 || len(resp.Sensitivity.Matrix[0]) != 5 {
		t.Errorf("sensitivity shape: %dx%d", len(resp.Sensitivity.Matrix), len(resp.Sensitivity.Matrix[0]))
	}
	if resp.Horizon != 5 || len(resp.GrowthRates) != 5 {
		t.Errorf("horizon/schedule: %d / %d rates", resp.Horizon, len(resp.GrowthRates))
	}
	// Price 50: upside must be consistent with fair value.
	wantUpside := (resp.FairValue - 50) / 50 * 100
	if diff := resp.UpsidePercent - wantUpside; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("upside: got %v, want %v", resp.UpsidePercent, wantUpside)
	}
}

func TestHandleRunManualWACC(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	w := postRun(t, RunRequest{Ticker: "TEST.NS", WACC: 0.14})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp RunResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.WACC.WACC != 0.14 || resp.WACC.CostOfEquity != 0.14 {
		t.Errorf("manual wacc: got %+v", resp.WACC)
	}
}

func TestHandleRunExitMultiple(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	w := postRun(t, RunRequest{Ticker: "TEST.NS", TerminalMethod: "exit_multiple"})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var resp RunResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.TerminalMethod != "exit_multiple" {
		t.Errorf("terminal method: got %q", resp.TerminalMethod)
	}
	if resp.Result.TerminalValue <= 0 {
		t.Errorf("terminal value: got %v", resp.Result.TerminalValue)
	}
}

func TestHandleRunDegenerateGrowthGridCenter(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	// Manual WACC below the requested terminal growth: the Gordon clamp
	// fires, but the grid stays centered on the requested growth, so the
	// center cell is the degenerate 0 sentinel.
	w := postRun(t, RunRequest{Ticker: "TEST.NS", WACC: 0.04, TerminalGrowth: 0.05})
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", w.Code, w.Body.String())
	}
	var resp RunResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Sensitivity.GrowthRange[2] != 0.05 {
		t.Errorf("grid center growth: got %v, exp requested 0.05", resp.Sensitivity.GrowthRange[2])
	}
	if resp.Sensitivity.Matrix[2][2] != 0 {
		t.Errorf("degenerate center cell: got %v, exp sentinel 0", resp.Sensitivity.Matrix[2][2])
	}
	// The headline valuation itself still completes via the clamp.
	if resp.TerminalGrowth != 0.02 {
		t.Errorf("effective growth: got %v, exp clamped 0.02", resp.TerminalGrowth)
	}
	if resp.FairValue <= 0 {
		t.Errorf("fair value under clamp: got %v", resp.FairValue)
	}
}

func TestHandleRunErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{fundamentals.ErrRateLimited, http.StatusTooManyRequests},
		{fundamentals.ErrDataUnavailable, http.StatusNotFound},
	}
	for _, tc := range cases {
		initTestHandler(t, &stubSource{err: tc.err})
		w := postRun(t, RunRequest{Ticker: "GONE"})
		if w.Code != tc.code {
			t.Errorf("%v: got %d, exp %d", tc.err, w.Code, tc.code)
		}
	}
}

func TestHandleRunMissingTicker(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})
	if w := postRun(t, RunRequest{}); w.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, exp 400", w.Code)
	}
}

func TestHandleRunCacheSkipsSecondFetch(t *testing.T) {
	src := &stubSource{bundle: stubBundle()}
	initTestHandler(t, src)

	if w := postRun(t, RunRequest{Ticker: "TEST.NS"}); w.Code != http.StatusOK {
		t.Fatalf("first run: got %d", w.Code)
	}
	// Break the source: the cached bundle must carry the second run.
	src.err = fundamentals.ErrDataUnavailable
	if w := postRun(t, RunRequest{Ticker: "TEST.NS"}); w.Code != http.StatusOK {
		t.Errorf("second run should hit the cache: got %d", w.Code)
	}
}

func TestHandleRunAuthGate(t *testing.T) {
	t.Setenv("APP_PASSWORD", "secret")
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	if w := postRun(t, RunRequest{Ticker: "TEST.NS"}); w.Code != http.StatusUnauthorized {
		t.Errorf("without token: got %d, exp 401", w.Code)
	}
}

func TestHandleStocks(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	r := httptest.NewRequest("GET", "/api/stocks", nil)
	w := httptest.NewRecorder()
	HandleStocks(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got sector.Universe
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) == 0 {
		t.Error("universe must not be empty")
	}
}

func TestHandleSectors(t *testing.T) {
	initTestHandler(t, &stubSource{bundle: stubBundle()})

	r := httptest.NewRequest("GET", "/api/sectors", nil)
	w := httptest.NewRecorder()
	HandleSectors(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	var got sector.Table
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := got["Technology"]; !ok {
		t.Error("expected Technology row")
	}
}
