// Package sector carries the immutable per-sector parameter defaults and
// the stock-ticker universe. Both are plain data: loaded once at startup,
// injected where needed, never mutated.
package sector

import (
	"fmt"
	"os"

	hjson "github.com/hjson/hjson-go/v4"
)

// Params are the canonical defaults for one sector, used whenever the
// company record itself is missing the input (beta, capital structure,
// terminal growth, exit multiple).
type Params struct {
	Beta           float64 `json:"beta"`
	DebtEquity     float64 `json:"debt_equity"`
	TaxRate        float64 `json:"tax_rate"`
	TerminalGrowth float64 `json:"terminal_growth"`
	EVEBITDA       float64 `json:"ev_ebitda"`
}

// Table maps sector name to its parameter record. "Default" must exist.
type Table map[string]Params

// DefaultName is the fallback row every table carries.
const DefaultName = "Default"

// DefaultTable returns the built-in sector parameter table.
func DefaultTable() Table {
	return Table{
		"Technology":             {Beta: 1.15, DebtEquity: 0.1, TaxRate: 0.25, TerminalGrowth: 0.04, EVEBITDA: 18},
		"Financial Services":     {Beta: 1.0, DebtEquity: 0.8, TaxRate: 0.25, TerminalGrowth: 0.035, EVEBITDA: 12},
		"Consumer Cyclical":      {Beta: 1.2, DebtEquity: 0.4, TaxRate: 0.25, TerminalGrowth: 0.04, EVEBITDA: 15},
		"Consumer Defensive":     {Beta: 0.7, DebtEquity: 0.3, TaxRate: 0.25, TerminalGrowth: 0.03, EVEBITDA: 20},
		"Healthcare":             {Beta: 0.9, DebtEquity: 0.2, TaxRate: 0.25, TerminalGrowth: 0.04, EVEBITDA: 16},
		"Industrials":            {Beta: 1.1, DebtEquity: 0.5, TaxRate: 0.25, TerminalGrowth: 0.035, EVEBITDA: 12},
		"Energy":                 {Beta: 1.3, DebtEquity: 0.4, TaxRate: 0.25, TerminalGrowth: 0.02, EVEBITDA: 8},
		"Basic Materials":        {Beta: 1.25, DebtEquity: 0.35, TaxRate: 0.25, TerminalGrowth: 0.025, EVEBITDA: 10},
		"Real Estate":            {Beta: 0.9, DebtEquity: 0.7, TaxRate: 0.25, TerminalGrowth: 0.03, EVEBITDA: 14},
		"Utilities":              {Beta: 0.6, DebtEquity: 0.8, TaxRate: 0.25, TerminalGrowth: 0.025, EVEBITDA: 10},
		"Communication Services": {Beta: 1.0, DebtEquity: 0.5, TaxRate: 0.25, TerminalGrowth: 0.035, EVEBITDA: 12},
		DefaultName:              {Beta: 1.0, DebtEquity: 0.4, TaxRate: 0.25, TerminalGrowth: 0.03, EVEBITDA: 12},
	}
}

// Lookup returns the parameters for a sector name; unknown or empty names
// map to the Default row.
func (t Table) Lookup(name string) Params {
	if p, ok := t[name]; ok {
		return p
	}
	return t[DefaultName]
}

// LoadTable reads an HJSON sector table from disk. Rows present in the file
// override the built-in defaults; absent rows keep them, so a partial
// override file is fine.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sector table: %w", err)
	}

	overrides := make(map[string]Params)
	if err := hjson.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("parse sector table %s: %w", path, err)
	}

	table := DefaultTable()
	for name, params := range overrides {
		table[name] = params
	}
	return table, nil
}
