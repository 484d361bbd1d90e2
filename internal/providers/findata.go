package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/finsearch/finsearch/config"
)

// statement metric fields worth keeping per statement type; everything else
// the upstream returns is dropped during normalization.
var (
	incomeMetrics = []string{
		"total_revenue", "gross_profit", "operating_income",
		"net_income", "earnings_per_share",
	}
	balanceMetrics = []string{
		"total_assets", "total_liabilities", "total_equity",
		"cash_and_equivalents", "total_debt",
	}
	cashFlowMetrics = []string{
		"operating_cash_flow", "investing_cash_flow", "financing_cash_flow",
		"free_cash_flow", "capital_expenditures",
	}
)

// IncomeMetrics returns the income-statement metric names in display order.
func IncomeMetrics() []string { return incomeMetrics }

// BalanceMetrics returns the balance-sheet metric names in display order.
func BalanceMetrics() []string { return balanceMetrics }

// CashFlowMetrics returns the cash-flow metric names in display order.
func CashFlowMetrics() []string { return cashFlowMetrics }

// FinDataClient implements FundamentalsProvider against FinancialDatasets.ai.
type FinDataClient struct {
	apiKey  string
	baseURL string
	http    *HTTPClient
}

func NewFinDataClient(cfg config.FinDataConfig) *FinDataClient {
	return &FinDataClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.Endpoint,
		http:    NewHTTPClient(cfg.Timeout, cfg.Retries),
	}
}

func (c *FinDataClient) get(ctx context.Context, path string, params url.Values) (Payload, error) {
	headers := map[string]string{"X-API-KEY": c.apiKey}
	var raw Payload
	if err := c.http.DoJSON(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), headers, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Statements fetches the three statement types and combines them into one
// payload under a "financials" key, the shape the aggregate response exposes.
func (c *FinDataClient) Statements(ctx context.Context, ticker string, limit int) (Payload, *Statements, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("period", "annual")
	params.Set("limit", strconv.Itoa(limit))

	income, err := c.get(ctx, "/financials/income-statements", params)
	if err != nil {
		return nil, nil, err
	}
	balance, err := c.get(ctx, "/financials/balance-sheets", params)
	if err != nil {
		return nil, nil, err
	}
	cashFlow, err := c.get(ctx, "/financials/cash-flow-statements", params)
	if err != nil {
		return nil, nil, err
	}

	raw := Payload{
		"financials": map[string]interface{}{
			"income_statements":    income["income_statements"],
			"balance_sheets":       balance["balance_sheets"],
			"cash_flow_statements": cashFlow["cash_flow_statements"],
		},
	}
	normalized := &Statements{
		Income:   normalizeStatements(asSlice(income["income_statements"]), incomeMetrics),
		Balance:  normalizeStatements(asSlice(balance["balance_sheets"]), balanceMetrics),
		CashFlow: normalizeStatements(asSlice(cashFlow["cash_flow_statements"]), cashFlowMetrics),
	}
	return raw, normalized, nil
}

// InsiderTrades returns recent insider transactions for a ticker.
func (c *FinDataClient) InsiderTrades(ctx context.Context, ticker string, limit int) (Payload, []InsiderTrade, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("limit", strconv.Itoa(limit))
	raw, err := c.get(ctx, "/insider-trades", params)
	if err != nil {
		return nil, nil, err
	}
	return raw, normalizeInsiderTrades(raw), nil
}

// Filings returns recent SEC filings, optionally filtered by form type.
func (c *FinDataClient) Filings(ctx context.Context, ticker, formType string, limit int) (Payload, []Filing, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("limit", strconv.Itoa(limit))
	if formType != "" {
		params.Set("form_type", formType)
	}
	raw, err := c.get(ctx, "/filings", params)
	if err != nil {
		return nil, nil, err
	}
	return raw, normalizeFilings(raw), nil
}

// Ownership returns institutional ownership data.
func (c *FinDataClient) Ownership(ctx context.Context, ticker string) (Payload, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	return c.get(ctx, "/institutional-ownership", params)
}

func normalizeStatements(items []interface{}, allowed []string) []Statement {
	var out []Statement
	for _, item := range items {
		m := asMap(item)
		if m == nil {
			continue
		}
		st := Statement{FiscalYear: fiscalYear(m), Metrics: map[string]float64{}}
		for _, metric := range allowed {
			if f, ok := m[metric].(float64); ok {
				st.Metrics[metric] = f
			}
		}
		out = append(out, st)
	}
	return out
}

func fiscalYear(m map[string]interface{}) string {
	if s := str(m, "fiscal_year"); s != "" {
		return s
	}
	if f, ok := m["fiscal_year"].(float64); ok {
		return strconv.Itoa(int(f))
	}
	return "N/A"
}

// normalizeInsiderTrades resolves the upstream's alternative field names
// (name vs insider_name, shares vs share_count, ...) in one place.
func normalizeInsiderTrades(raw Payload) []InsiderTrade {
	items := asSlice(raw["insider_trades"])
	if items == nil {
		items = asSlice(raw["results"])
	}
	var out []InsiderTrade
	for _, item := range items {
		m := asMap(item)
		if m == nil {
			continue
		}
		out = append(out, InsiderTrade{
			Name:            str(m, "name", "insider_name"),
			Title:           str(m, "title", "insider_title"),
			TransactionType: str(m, "transaction_type", "transaction_code"),
			Shares:          num(m, "shares", "share_count"),
			Price:           num(m, "price", "share_price"),
			Date:            str(m, "trade_date", "transaction_date"),
			SharesBefore:    numPtr(m, "shares_owned_before"),
			SharesAfter:     numPtr(m, "shares_owned_after"),
		})
	}
	return out
}

func normalizeFilings(raw Payload) []Filing {
	items := asSlice(raw["filings"])
	if items == nil {
		items = asSlice(raw["results"])
	}
	var out []Filing
	for _, item := range items {
		m := asMap(item)
		if m == nil {
			continue
		}
		out = append(out, Filing{
			FormType:    str(m, "form_type"),
			FilingDate:  str(m, "filing_date"),
			Description: str(m, "description"),
			URL:         str(m, "url"),
		})
	}
	return out
}
