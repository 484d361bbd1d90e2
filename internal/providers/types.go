package providers

// Canonical record types, one per capability. Provider clients normalize
// upstream payloads into these immediately after each call, so downstream
// consumers never branch on alternative field names.

// PriceQuote is a single trading session for a ticker.
type PriceQuote struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// Change returns the absolute close-over-open change.
func (q PriceQuote) Change() float64 { return q.Close - q.Open }

// ChangePercent returns the close-over-open change as a percentage. A zero
// open yields zero rather than a division fault.
func (q PriceQuote) ChangePercent() float64 {
	if q.Open == 0 {
		return 0
	}
	return q.Change() / q.Open * 100
}

// NewsArticle is one company news item.
type NewsArticle struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_utc"`
	Description string `json:"description,omitempty"`
}

// Statement is one fiscal period of a financial statement.
type Statement struct {
	FiscalYear string             `json:"fiscal_year"`
	Metrics    map[string]float64 `json:"metrics"`
}

// Statements groups the three statement types for one ticker, most recent
// period first.
type Statements struct {
	Income   []Statement `json:"income_statements"`
	Balance  []Statement `json:"balance_sheets"`
	CashFlow []Statement `json:"cash_flow_statements"`
}

// InsiderTrade is one insider transaction. SharesBefore/SharesAfter are nil
// when the upstream omits ownership context.
type InsiderTrade struct {
	Name            string   `json:"name"`
	Title           string   `json:"title,omitempty"`
	TransactionType string   `json:"transaction_type"`
	Shares          float64  `json:"shares"`
	Price           float64  `json:"price"`
	Date            string   `json:"date"`
	SharesBefore    *float64 `json:"shares_owned_before,omitempty"`
	SharesAfter     *float64 `json:"shares_owned_after,omitempty"`
}

// Filing is one SEC filing reference.
type Filing struct {
	FormType    string `json:"form_type"`
	FilingDate  string `json:"filing_date"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Document is a cited source attached to a search answer.
type Document struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// SearchAnswer is the normalized shape of a search-summarizer reply.
type SearchAnswer struct {
	Content   string     `json:"content"`
	Citations []string   `json:"citations,omitempty"`
	Documents []Document `json:"documents,omitempty"`
}
