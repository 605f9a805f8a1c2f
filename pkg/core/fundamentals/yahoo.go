package fundamentals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsonrepair "github.com/RealAlexandreAI/json-repair"
)

const (
	userAgent     = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	chartAPIURL   = "https://query1.finance.yahoo.com/v8/finance/chart/%s"
	quotePageURL  = "https://finance.yahoo.com/quote/%s/%s/"
	minInfoFields = 2 // price + at least one fundamentals field before we call the record usable
)

// YahooFetcher implements Source against Yahoo Finance: the chart API for
// price/identity, and the quote pages (key-statistics, financials, profile)
// for fundamentals and statement tables. Yahoo embeds the full quote summary
// as JSON inside the page scripts; the HTML tables are only a fallback.
type YahooFetcher struct {
	client *http.Client
}

// NewYahooFetcher creates a fetcher with a sane timeout.
func NewYahooFetcher() *YahooFetcher {
	return &YahooFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// chartResponse is the subset of the chart API payload we use.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// Fetch retrieves the full Bundle for a ticker. A throttled response maps to
// ErrRateLimited; a ticker with no usable record at all maps to
// ErrDataUnavailable. Partially missing statements are NOT an error here -
// the extractor downstream degrades to its documented fallbacks.
func (f *YahooFetcher) Fetch(ctx context.Context, ticker string) (*Bundle, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return nil, ErrDataUnavailable
	}

	bundle := &Bundle{
		Ticker:          ticker,
		Info:            &CompanyInfo{},
		IncomeStatement: NewStatement(),
		CashFlow:        NewStatement(),
	}

	// 1. Chart API: price + symbol sanity check.
	if err := f.fetchQuote(ctx, ticker, bundle.Info); err != nil {
		// Rate limiting is fatal immediately; anything else falls through to
		// the page scrape, which carries its own copy of the price.
		if err == ErrRateLimited {
			return nil, err
		}
		fmt.Printf("[FETCH] chart API failed for %s: %v (continuing with page scrape)\n", ticker, err)
	}

	// 2. Financials page: statement tables + embedded quote summary.
	if doc, err := f.fetchPage(ctx, ticker, "financials"); err == nil {
		f.scrapeStatements(doc, bundle)
		f.applyEmbeddedSummary(doc, bundle)
	} else if err == ErrRateLimited {
		return nil, err
	}

	// 3. Key statistics: market cap, shares, debt, beta.
	if doc, err := f.fetchPage(ctx, ticker, "key-statistics"); err == nil {
		f.applyEmbeddedSummary(doc, bundle)
	} else if err == ErrRateLimited {
		return nil, err
	}

	// 4. Profile: sector + company name.
	if doc, err := f.fetchPage(ctx, ticker, "profile"); err == nil {
		f.scrapeProfile(doc, bundle.Info)
		f.applyEmbeddedSummary(doc, bundle)
	} else if err == ErrRateLimited {
		return nil, err
	}

	if !usable(bundle) {
		return nil, ErrDataUnavailable
	}
	if bundle.Info.LongName == "" {
		bundle.Info.LongName = ticker
	}
	return bundle, nil
}

// usable reports whether we got enough of a record to run a valuation on.
// The core needs SOME fundamentals; empty statements alone are fine.
func usable(b *Bundle) bool {
	info := b.Info
	fields := 0
	if info.Price() > 0 {
		fields++
	}
	if info.MarketCap > 0 {
		fields++
	}
	if info.SharesOutstanding > 0 {
		fields++
	}
	if info.OperatingCashflow != 0 {
		fields++
	}
	return fields >= minInfoFields || !b.CashFlow.Empty()
}

func (f *YahooFetcher) fetchQuote(ctx context.Context, ticker string, info *CompanyInfo) error {
	body, err := f.get(ctx, fmt.Sprintf(chartAPIURL, ticker))
	if err != nil {
		return err
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return fmt.Errorf("chart API decode: %w", err)
	}
	if len(chart.Chart.Result) == 0 {
		return fmt.Errorf("chart API: no result for %s", ticker)
	}
	info.RegularMarketPrice = chart.Chart.Result[0].Meta.RegularMarketPrice
	return nil
}

func (f *YahooFetcher) fetchPage(ctx context.Context, ticker, page string) (*goquery.Document, error) {
	body, err := f.get(ctx, fmt.Sprintf(quotePageURL, ticker, page))
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", page, err)
	}
	return doc, nil
}

func (f *YahooFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/json;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if strings.Contains(string(body), "Too Many Requests") {
		return nil, ErrRateLimited
	}
	return body, nil
}

// scrapeStatements walks the financials-page table rows. Row labels are the
// statement line items; data columns follow in newest-first period order.
func (f *YahooFetcher) scrapeStatements(doc *goquery.Document, bundle *Bundle) {
	// Period headers first (the date column labels).
	var periods []string
	doc.Find("div[data-test='fin-row']").First().Parent().Find("div[data-test='fin-col-header']").Each(func(i int, col *goquery.Selection) {
		label := strings.TrimSpace(col.Text())
		if label != "" && !strings.EqualFold(label, "Breakdown") {
			periods = append(periods, label)
		}
	})

	target := func(label string) *Statement {
		switch label {
		case "Free Cash Flow", "Operating Cash Flow", "Total Cash From Operating Activities",
			"Cash Flow From Operating Activities", "Capital Expenditure", "Capital Expenditures",
			"Purchase Of PPE":
			return bundle.CashFlow
		case "Total Revenue", "Revenue", "Operating Revenue", "EBITDA", "Normalized EBITDA":
			return bundle.IncomeStatement
		}
		return nil
	}

	doc.Find("div[data-test='fin-row']").Each(func(i int, row *goquery.Selection) {
		cols := row.Find("div[data-test='fin-col']")
		label := strings.TrimSpace(cols.First().Text())
		stmt := target(label)
		if stmt == nil {
			return
		}
		if len(stmt.Periods) == 0 && len(periods) > 0 {
			stmt.Periods = append([]string(nil), periods...)
		}
		cols.Each(func(j int, col *goquery.Selection) {
			if j == 0 || j > len(stmt.Periods) {
				return
			}
			if v, ok := parseNumber(col.Text()); ok {
				stmt.SetCell(label, j-1, v)
			}
		})
	})
}

func (f *YahooFetcher) scrapeProfile(doc *goquery.Document, info *CompanyInfo) {
	doc.Find("span[data-test='SECTOR'], dd[data-test='SECTOR']").Each(func(i int, s *goquery.Selection) {
		if info.Sector == "" {
			info.Sector = strings.TrimSpace(s.Text())
		}
	})
	doc.Find("h1").Each(func(i int, s *goquery.Selection) {
		if info.LongName == "" {
			info.LongName = strings.TrimSpace(s.Text())
		}
	})
}

var embeddedJSONRe = regexp.MustCompile(`root\.App\.main\s*=\s*(\{.*)`)

// applyEmbeddedSummary pulls the quote-summary JSON Yahoo embeds in page
// scripts. The blob is frequently cut off mid-object when pages are served
// partially, so it goes through json-repair before decoding.
func (f *YahooFetcher) applyEmbeddedSummary(doc *goquery.Document, bundle *Bundle) {
	doc.Find("script").EachWithBreak(func(i int, script *goquery.Selection) bool {
		content := script.Text()
		if !strings.Contains(content, "root.App.main") {
			return true
		}
		m := embeddedJSONRe.FindStringSubmatch(content)
		if len(m) < 2 {
			return true
		}
		raw := strings.TrimSuffix(strings.TrimSpace(m[1]), ";")
		repaired, err := jsonrepair.RepairJSON(raw)
		if err != nil {
			fmt.Printf("[FETCH] embedded JSON unrepairable: %v\n", err)
			return true
		}
		var page map[string]interface{}
		if err := json.Unmarshal([]byte(repaired), &page); err != nil {
			return true
		}
		if qs := dig(page, "context", "dispatcher", "stores", "QuoteSummaryStore"); qs != nil {
			applyQuoteSummary(qs, bundle)
		}
		return false
	})
}

// applyQuoteSummary maps QuoteSummaryStore fields onto the bundle. Only
// fields still missing are filled, so page order does not matter.
func applyQuoteSummary(qs map[string]interface{}, bundle *Bundle) {
	info := bundle.Info
	setIfZero := func(dst *float64, section, field string) {
		if *dst == 0 {
			if v, ok := rawNumber(dig(qs, section), field); ok {
				*dst = v
			}
		}
	}

	setIfZero(&info.CurrentPrice, "financialData", "currentPrice")
	setIfZero(&info.MarketCap, "summaryDetail", "marketCap")
	setIfZero(&info.SharesOutstanding, "defaultKeyStatistics", "sharesOutstanding")
	setIfZero(&info.Beta, "defaultKeyStatistics", "beta")
	setIfZero(&info.TotalDebt, "financialData", "totalDebt")
	setIfZero(&info.TotalCash, "financialData", "totalCash")
	setIfZero(&info.EBITDA, "financialData", "ebitda")
	setIfZero(&info.OperatingCashflow, "financialData", "operatingCashflow")
	setIfZero(&info.CapitalExpenditures, "financialData", "capitalExpenditures")
	setIfZero(&info.InterestExpense, "financialData", "interestExpense")

	if info.Sector == "" {
		if s, ok := dig(qs, "assetProfile")["sector"].(string); ok {
			info.Sector = s
		}
	}
	if info.LongName == "" {
		if s, ok := dig(qs, "price")["longName"].(string); ok {
			info.LongName = s
		}
	}

	// Statement histories: newest first, capped at 4 periods upstream of
	// the extractor (which enforces its own 4-period limit anyway).
	if bundle.CashFlow.Empty() {
		if rows, ok := dig(qs, "cashflowStatementHistory")["cashflowStatements"].([]interface{}); ok {
			fillStatement(bundle.CashFlow, rows, map[string]string{
				"totalCashFromOperatingActivities": "Operating Cash Flow",
				"capitalExpenditures":              "Capital Expenditure",
				"freeCashFlow":                     "Free Cash Flow",
			})
		}
	}
	if bundle.IncomeStatement.Empty() {
		if rows, ok := dig(qs, "incomeStatementHistory")["incomeStatementHistory"].([]interface{}); ok {
			fillStatement(bundle.IncomeStatement, rows, map[string]string{
				"totalRevenue": "Total Revenue",
				"ebitda":       "EBITDA",
			})
		}
	}
}

// fillStatement converts a quote-summary statement history (one object per
// period, newest first) into a Statement table using the canonical line-item
// names the extractor searches for.
func fillStatement(stmt *Statement, periods []interface{}, fields map[string]string) {
	for _, p := range periods {
		entry, ok := p.(map[string]interface{})
		if !ok {
			continue
		}
		label := ""
		if end, ok := entry["endDate"].(map[string]interface{}); ok {
			if s, ok := end["fmt"].(string); ok {
				label = s
			}
		}
		if label == "" {
			label = fmt.Sprintf("period-%d", len(stmt.Periods))
		}
		stmt.Periods = append(stmt.Periods, label)
		col := len(stmt.Periods) - 1
		for key, lineItem := range fields {
			if v, ok := rawNumber(entry, key); ok {
				stmt.SetCell(lineItem, col, v)
			}
		}
	}
}

// dig walks nested map[string]interface{} levels, returning an empty map on
// any miss so callers can chain without nil checks.
func dig(m map[string]interface{}, path ...string) map[string]interface{} {
	cur := m
	for _, key := range path {
		next, ok := cur[key].(map[string]interface{})
		if !ok {
			return map[string]interface{}{}
		}
		cur = next
	}
	return cur
}

// rawNumber extracts Yahoo's {raw: n, fmt: "..."} number wrapper, accepting
// a bare number too.
func rawNumber(m map[string]interface{}, field string) (float64, bool) {
	switch v := m[field].(type) {
	case float64:
		return v, true
	case map[string]interface{}:
		if raw, ok := v["raw"].(float64); ok {
			return raw, true
		}
	}
	return 0, false
}

// parseNumber handles the display formats on the financials page:
// thousands separators, leading currency symbols, parenthesized negatives,
// K/M/B/T suffixes, and the N-A placeholders.
func parseNumber(text string) (float64, bool) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimPrefix(cleaned, "$")
	if cleaned == "" || cleaned == "N/A" || cleaned == "--" || cleaned == "-" {
		return 0, false
	}

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = strings.Trim(cleaned, "()")
	}

	multiplier := 1.0
	switch {
	case strings.HasSuffix(cleaned, "T"):
		multiplier = 1e12
	case strings.HasSuffix(cleaned, "B"):
		multiplier = 1e9
	case strings.HasSuffix(cleaned, "M"):
		multiplier = 1e6
	case strings.HasSuffix(cleaned, "K"):
		multiplier = 1e3
	}
	if multiplier != 1.0 {
		cleaned = cleaned[:len(cleaned)-1]
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v * multiplier, true
}
