// Package fundamentals defines the raw market-data model consumed by the
// valuation core, and the Yahoo Finance collaborator that produces it.
//
// The core itself performs no I/O: everything downstream of this package
// operates on a Bundle that has already been fetched (or loaded from cache).
package fundamentals

import "context"

// CompanyInfo is the point-in-time fundamentals record for a ticker.
// Field names mirror the Yahoo Finance quote-summary keys.
type CompanyInfo struct {
	LongName            string  `json:"longName"`
	Sector              string  `json:"sector"`
	CurrentPrice        float64 `json:"currentPrice"`
	RegularMarketPrice  float64 `json:"regularMarketPrice"`
	MarketCap           float64 `json:"marketCap"`
	SharesOutstanding   float64 `json:"sharesOutstanding"`
	TotalDebt           float64 `json:"totalDebt"`
	TotalCash           float64 `json:"totalCash"`
	EBITDA              float64 `json:"ebitda"`
	Beta                float64 `json:"beta"`
	OperatingCashflow   float64 `json:"operatingCashflow"`
	CapitalExpenditures float64 `json:"capitalExpenditures"`
	InterestExpense     float64 `json:"interestExpense"`
}

// Price returns the best available market price (currentPrice with
// regularMarketPrice as fallback).
func (c *CompanyInfo) Price() float64 {
	if c.CurrentPrice != 0 {
		return c.CurrentPrice
	}
	return c.RegularMarketPrice
}

// NetDebt = total debt - total cash. May be negative (net cash position).
func (c *CompanyInfo) NetDebt() float64 {
	return c.TotalDebt - c.TotalCash
}

// Statement is one reported financial statement as a table of line items
// over reporting periods. Periods are column labels in the order the
// provider reports them (newest first). Rows are aligned with Periods;
// a nil cell means the line item was not reported for that period.
type Statement struct {
	Periods []string              `json:"periods"`
	Rows    map[string][]*float64 `json:"rows"`
}

// NewStatement creates an empty statement with the given period columns.
func NewStatement(periods ...string) *Statement {
	return &Statement{
		Periods: periods,
		Rows:    make(map[string][]*float64),
	}
}

// SetCell writes one value into a row, growing the row to the period count.
// Rows created before later periods were appended are padded with nils so
// the alignment invariant holds.
func (s *Statement) SetCell(lineItem string, col int, value float64) {
	if col < 0 || col >= len(s.Periods) {
		return
	}
	row := s.Rows[lineItem]
	if len(row) < len(s.Periods) {
		row = append(row, make([]*float64, len(s.Periods)-len(row))...)
	}
	s.Rows[lineItem] = row
	v := value
	row[col] = &v
}

// Row returns the first row matching any of the candidate line-item names,
// in candidate order. Returns nil when none match.
func (s *Statement) Row(candidates ...string) []*float64 {
	if s == nil {
		return nil
	}
	for _, name := range candidates {
		if row, ok := s.Rows[name]; ok {
			return row
		}
	}
	return nil
}

// Empty reports whether the statement carries no data at all.
func (s *Statement) Empty() bool {
	return s == nil || len(s.Periods) == 0 || len(s.Rows) == 0
}

// Bundle is everything the valuation core needs for one ticker:
// the fundamentals record plus the two statement tables.
type Bundle struct {
	Ticker          string       `json:"ticker"`
	Info            *CompanyInfo `json:"info"`
	IncomeStatement *Statement   `json:"income_statement"`
	CashFlow        *Statement   `json:"cash_flow"`
}

// Source is the narrow read-only interface the rest of the system consumes.
// Latency, retries and caching live behind it, never in the core.
type Source interface {
	Fetch(ctx context.Context, ticker string) (*Bundle, error)
}
