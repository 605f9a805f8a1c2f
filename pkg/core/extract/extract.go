// Package extract normalizes raw financial statements into the ordered
// historical series the valuation engine consumes.
//
// Every series it returns is sorted chronologically ascending (oldest
// first) and limited to the 4 most recent reporting periods. Missing line
// items degrade to documented fallbacks; nothing in this package errors.
package extract

import (
	"sort"
	"strconv"

	"github.com/niyaszukta-cmd/nyztrade-DCF/pkg/core/fundamentals"
)

// Candidate line-item names, searched in order. First match wins.
var (
	ocfCandidates = []string{
		"Operating Cash Flow",
		"Total Cash From Operating Activities",
		"Cash Flow From Operating Activities",
	}
	capexCandidates = []string{
		"Capital Expenditure",
		"Capital Expenditures",
		"Purchase Of PPE",
	}
	revenueCandidates = []string{"Total Revenue", "Revenue", "Operating Revenue"}
	ebitdaCandidates  = []string{"EBITDA", "Normalized EBITDA"}
)

const maxPeriods = 4

// Fact is one period's value for a single metric.
type Fact struct {
	Period string  `json:"period"`
	Value  float64 `json:"value"`
}

// Series is a chronologically ascending sequence of Facts. May be empty.
type Series []Fact

// Last returns the most recent value, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1].Value
}

// periodKey derives a sortable key from a statement column label:
// a 4-digit year when the label starts with one, else the first 4
// characters of the raw label.
func periodKey(label string) string {
	if len(label) >= 4 {
		if _, err := strconv.Atoi(label[:4]); err == nil {
			return label[:4]
		}
	}
	if len(label) > 4 {
		return label[:4]
	}
	return label
}

// sortAscending orders a period->value map into a Series by period key.
func sortAscending(byPeriod map[string]float64) Series {
	series := make(Series, 0, len(byPeriod))
	for period, value := range byPeriod {
		series = append(series, Fact{Period: period, Value: value})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period < series[j].Period })
	return series
}

// FCFSeries derives the historical Free Cash Flow series from the cash-flow
// statement, falling back through three strategies:
//
//  1. a direct "Free Cash Flow" row, up to the 4 most recent periods,
//     skipping non-numeric entries;
//  2. OCF and capex candidate rows combined per period
//     (ocf + capex when capex is already signed negative, else ocf - |capex|);
//  3. a single TTM point from the fundamentals record, present only when
//     operating cash flow is positive.
func FCFSeries(info *fundamentals.CompanyInfo, cashFlow *fundamentals.Statement) Series {
	byPeriod := make(map[string]float64)

	if !cashFlow.Empty() {
		if direct := cashFlow.Row("Free Cash Flow"); direct != nil {
			for col, cell := range direct {
				if col >= maxPeriods {
					break
				}
				if cell == nil {
					continue
				}
				byPeriod[periodKey(cashFlow.Periods[col])] = *cell
			}
		} else {
			ocf := cashFlow.Row(ocfCandidates...)
			capex := cashFlow.Row(capexCandidates...)
			if ocf != nil && capex != nil {
				for col := range ocf {
					if col >= maxPeriods || col >= len(capex) {
						break
					}
					o, c := 0.0, 0.0
					if ocf[col] != nil {
						o = *ocf[col]
					}
					if capex[col] != nil {
						c = *capex[col]
					}
					fcf := o - abs(c)
					if c < 0 {
						fcf = o + c
					}
					byPeriod[periodKey(cashFlow.Periods[col])] = fcf
				}
			}
		}
	}

	if len(byPeriod) == 0 && info != nil && info.OperatingCashflow > 0 {
		byPeriod["TTM"] = info.OperatingCashflow - abs(info.CapitalExpenditures)
	}

	return sortAscending(byPeriod)
}

// RevenueSeries returns the historical revenue series. Only strictly
// positive values are retained.
func RevenueSeries(income *fundamentals.Statement) Series {
	return positiveSeries(income, revenueCandidates)
}

// EBITDASeries returns the historical EBITDA series. Only strictly positive
// values are retained.
func EBITDASeries(income *fundamentals.Statement) Series {
	return positiveSeries(income, ebitdaCandidates)
}

func positiveSeries(stmt *fundamentals.Statement, candidates []string) Series {
	byPeriod := make(map[string]float64)
	if !stmt.Empty() {
		if row := stmt.Row(candidates...); row != nil {
			for col, cell := range row {
				if col >= maxPeriods {
					break
				}
				if cell == nil || *cell <= 0 {
					continue
				}
				byPeriod[periodKey(stmt.Periods[col])] = *cell
			}
		}
	}
	return sortAscending(byPeriod)
}

// BaseFCF selects the valuation's base FCF: the most recent period of the
// historical series, else the TTM derivation from the fundamentals record.
func BaseFCF(series Series, info *fundamentals.CompanyInfo) float64 {
	if len(series) > 0 {
		return series.Last()
	}
	if info == nil {
		return 0
	}
	return info.OperatingCashflow - abs(info.CapitalExpenditures)
}

// EstimateBaseFCF substitutes the heuristic estimate when the base FCF is
// zero or negative: half of EBITDA when EBITDA is positive, else 5% of
// market cap. Callers MUST apply this rather than treating a bad base as a
// failure - it is the documented degradation path.
func EstimateBaseFCF(baseFCF, ebitda, marketCap float64) (value float64, estimated bool) {
	if baseFCF > 0 {
		return baseFCF, false
	}
	if ebitda > 0 {
		return 0.5 * ebitda, true
	}
	return 0.05 * marketCap, true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
