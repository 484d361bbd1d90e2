package providers

import "context"

// Payload is the raw JSON document returned by an upstream provider. It is
// carried alongside the normalized record so API responses and the response
// cache can expose the original shape.
type Payload = map[string]interface{}

// PriceProvider serves market data for a ticker.
type PriceProvider interface {
	Price(ctx context.Context, ticker string) (Payload, *PriceQuote, error)
	News(ctx context.Context, ticker string, limit int) (Payload, []NewsArticle, error)
	History(ctx context.Context, ticker, from, to string) (Payload, error)
	Financials(ctx context.Context, ticker string, limit int) (Payload, error)
}

// FundamentalsProvider serves company filings and statement data.
type FundamentalsProvider interface {
	Statements(ctx context.Context, ticker string, limit int) (Payload, *Statements, error)
	InsiderTrades(ctx context.Context, ticker string, limit int) (Payload, []InsiderTrade, error)
	Filings(ctx context.Context, ticker, formType string, limit int) (Payload, []Filing, error)
	Ownership(ctx context.Context, ticker string) (Payload, error)
}

// SearchSummarizer answers free-text queries with cited web content.
type SearchSummarizer interface {
	QuickSearch(ctx context.Context, query string) (Payload, *SearchAnswer, error)
	DeepResearch(ctx context.Context, query string) (Payload, *SearchAnswer, error)
}

// field helpers shared by the normalizers

func asMap(v interface{}) map[string]interface{} {
	m, _ := v.(map[string]interface{})
	return m
}

func asSlice(v interface{}) []interface{} {
	s, _ := v.([]interface{})
	return s
}

// str returns the first present non-empty string among the given keys.
func str(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// num returns the first present numeric value among the given keys. Absent
// fields read as 0.
func num(m map[string]interface{}, keys ...string) float64 {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			return f
		}
	}
	return 0
}

// numPtr is like num but distinguishes absent fields.
func numPtr(m map[string]interface{}, keys ...string) *float64 {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			v := f
			return &v
		}
	}
	return nil
}
