// Package search implements the query pipeline: plan which providers to
// call, fan the calls out concurrently, aggregate what came back and
// synthesize a final answer.
package search

import (
	"github.com/finsearch/finsearch/internal/providers"
)

// Modes a client can request. Sonar is the default; deep research has to be
// asked for explicitly.
const (
	ModeSonar        = "sonar"
	ModeDeepResearch = "deep_research"
)

// Request is one search invocation.
type Request struct {
	Query     string `json:"query"`
	Mode      string `json:"mode"`
	SessionID string `json:"session_id"`
}

// Plan is the planner's routing decision for a query.
type Plan struct {
	CallSonar         bool     `json:"call_perplexity_sonar"`
	CallDeepResearch  bool     `json:"call_perplexity_deep_research"`
	NeedStockPrice    bool     `json:"need_stock_price"`
	NeedFinancials    bool     `json:"need_financials"`
	NeedInsiderTrades bool     `json:"need_insider_trades"`
	NeedSECFilings    bool     `json:"need_sec_filings"`
	Tickers           []string `json:"tickers"`
	Reasoning         string   `json:"reasoning"`
}

// Task kinds. The kind decides how a result is rendered during aggregation.
type TaskKind string

const (
	TaskSonar        TaskKind = "sonar"
	TaskDeepResearch TaskKind = "deep_research"
	TaskPrice        TaskKind = "price"
	TaskNews         TaskKind = "news"
	TaskFinancials   TaskKind = "financials"
	TaskInsider      TaskKind = "insider_trades"
	TaskFilings      TaskKind = "sec_filings"
)

// Task is one provider call scheduled by the executor. Status is announced
// to streaming clients before the call runs.
type Task struct {
	Key    string
	Kind   TaskKind
	Ticker string
	Status string
	Run    func() TaskResult
}

// TaskResult carries both the raw provider payload (exposed in the response
// data field) and the normalized record the aggregator consumes. Exactly one
// of the typed fields is set, matching Kind.
type TaskResult struct {
	Key    string
	Kind   TaskKind
	Ticker string
	Raw    providers.Payload
	Err    error

	Answer     *providers.SearchAnswer
	Quote      *providers.PriceQuote
	News       []providers.NewsArticle
	Statements *providers.Statements
	Trades     []providers.InsiderTrade
	Filings    []providers.Filing
}

// Source is one citation attached to an answer.
type Source struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
}

// Response is the synthesized answer plus supporting material.
type Response struct {
	Answer    string                 `json:"answer"`
	Sources   []Source               `json:"sources,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
}

// Event is one NDJSON line of a streamed search.
type Event struct {
	Type      string   `json:"type"` // status, result, error
	Content   string   `json:"content"`
	Sources   []Source `json:"sources,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
}
