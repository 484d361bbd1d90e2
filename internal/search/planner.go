package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/finsearch/finsearch/internal/llm"
	"github.com/finsearch/finsearch/internal/session"
	"github.com/finsearch/finsearch/internal/telemetry"
)

const plannerSystemPrompt = `You are an AI financial assistant that routes queries to the appropriate data sources.

Given the user's query and conversation history, determine which financial APIs should be called to provide the best answer.

Follow these routing rules:
- Stock prices & trading data -> Polygon.io
- Latest news & market insights -> Perplexity Sonar
- Financial statements & SEC filings -> FinancialDatasets.ai
- Deep research -> Perplexity Deep Research (ONLY if explicitly requested by user)

Return your decision in structured JSON format:

{
  "call_perplexity_sonar": true/false,
  "call_perplexity_deep_research": true/false,
  "need_stock_price": true/false,
  "need_financials": true/false,
  "need_insider_trades": true/false,
  "need_sec_filings": true/false,
  "tickers": ["AAPL", "TSLA"],
  "reasoning": "Explain why these APIs were selected."
}

Be precise and ensure no unnecessary API calls are made. Extract both ticker symbols AND company names.`

// plannerHistoryLimit bounds how much conversation context the planner sees.
const plannerHistoryLimit = 10

const plannerTemperature = 0.3

// Planner asks the LLM which providers a query needs. It never fails: when
// the model call or the JSON parse goes wrong, a conservative default plan
// (sonar only) is returned so the query still gets answered.
type Planner struct {
	llm    llm.Client
	logger *log.Logger
}

func NewPlanner(client llm.Client, logger *log.Logger) *Planner {
	if logger == nil {
		logger = log.New(log.Writer(), "[PLANNER] ", log.LstdFlags)
	}
	return &Planner{llm: client, logger: logger}
}

// Plan routes a query. History is the conversation so far; only the most
// recent messages are forwarded to the model.
func (p *Planner) Plan(ctx context.Context, query string, history []session.Message) Plan {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: plannerSystemPrompt})
	for _, msg := range tail(history, plannerHistoryLimit) {
		messages = append(messages, llm.Message{Role: msg.Role, Content: msg.Content})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: query})

	reply, err := p.llm.Complete(ctx, messages, plannerTemperature, 0)
	if err != nil {
		p.logger.Printf("planner llm call failed: %v", err)
		telemetry.PlannerOutcomes.WithLabelValues("llm_error").Inc()
		return defaultPlan(fmt.Sprintf("Error analyzing query: %v", err))
	}
	return p.parse(reply)
}

func (p *Planner) parse(reply string) Plan {
	raw, err := extractJSON(reply)
	if err != nil {
		p.logger.Printf("no JSON in planner reply: %v", err)
		telemetry.PlannerOutcomes.WithLabelValues("parse_fallback").Inc()
		return defaultPlan("Failed to parse API plan, using default.")
	}
	var plan Plan
	if err := json.Unmarshal([]byte(raw), &plan); err != nil {
		p.logger.Printf("planner JSON unmarshal failed: %v", err)
		telemetry.PlannerOutcomes.WithLabelValues("parse_fallback").Inc()
		return defaultPlan(fmt.Sprintf("Error parsing API plan: %v", err))
	}
	plan.Tickers = normalizeTickers(plan.Tickers)
	if plan.Reasoning == "" {
		plan.Reasoning = "No reasoning provided."
	}
	telemetry.PlannerOutcomes.WithLabelValues("ok").Inc()
	return plan
}

// normalizeTickers upper-cases and dedupes the symbol set, preserving the
// order of first appearance. Task keys are derived from ticker + capability,
// so a duplicate symbol would enqueue the same key twice.
func normalizeTickers(tickers []string) []string {
	out := make([]string, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		ticker := strings.ToUpper(strings.TrimSpace(t))
		if ticker == "" || seen[ticker] {
			continue
		}
		seen[ticker] = true
		out = append(out, ticker)
	}
	return out
}

func defaultPlan(reasoning string) Plan {
	return Plan{
		CallSonar: true,
		Tickers:   []string{},
		Reasoning: reasoning,
	}
}

func tail(msgs []session.Message, max int) []session.Message {
	if len(msgs) <= max {
		return msgs
	}
	return msgs[len(msgs)-max:]
}
