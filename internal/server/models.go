package server

import "github.com/finsearch/finsearch/internal/providers"

// Response bodies for the pass-through endpoints. Change and ChangePercent
// are omitted when the quote could not be computed.

type StockPriceResponse struct {
	Ticker        string                 `json:"ticker"`
	Price         float64                `json:"price"`
	Change        *float64               `json:"change,omitempty"`
	ChangePercent *float64               `json:"change_percent,omitempty"`
	Data          map[string]interface{} `json:"data"`
}

type StockNewsResponse struct {
	Ticker string                  `json:"ticker"`
	News   []providers.NewsArticle `json:"news"`
}

type HistoricalPriceResponse struct {
	Ticker  string        `json:"ticker"`
	Results []interface{} `json:"results"`
}

type FinancialsResponse struct {
	Ticker     string        `json:"ticker"`
	Financials []interface{} `json:"financials"`
}

type InsiderTradesResponse struct {
	Ticker string                   `json:"ticker"`
	Trades []providers.InsiderTrade `json:"trades"`
}

type SECFilingsResponse struct {
	Ticker  string             `json:"ticker"`
	Filings []providers.Filing `json:"filings"`
}

type InstitutionalOwnershipResponse struct {
	Ticker    string        `json:"ticker"`
	Ownership []interface{} `json:"ownership"`
}
