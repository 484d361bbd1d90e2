package search

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/finsearch/finsearch/internal/session"
)

func testLogger() *log.Logger { return log.New(io.Discard, "", 0) }

func TestPlannerParsesFencedReply(t *testing.T) {
	client := &stubLLM{replies: []string{"```json\n" + `{
		"call_perplexity_sonar": true,
		"need_stock_price": true,
		"tickers": ["AAPL"],
		"reasoning": "price plus news"
	}` + "\n```"}}
	p := NewPlanner(client, testLogger())

	plan := p.Plan(context.Background(), "how is AAPL doing", nil)
	if !plan.CallSonar || !plan.NeedStockPrice {
		t.Fatalf("unexpected plan: %+v", plan)
	}
	if len(plan.Tickers) != 1 || plan.Tickers[0] != "AAPL" {
		t.Fatalf("tickers = %v", plan.Tickers)
	}
	if client.temps[0] != plannerTemperature {
		t.Fatalf("temperature = %v, want %v", client.temps[0], plannerTemperature)
	}
}

func TestPlannerMalformedReplyFallsBack(t *testing.T) {
	client := &stubLLM{replies: []string{"I think you should call some APIs."}}
	p := NewPlanner(client, testLogger())

	plan := p.Plan(context.Background(), "anything", nil)
	if !plan.CallSonar {
		t.Fatal("default plan must call sonar")
	}
	if plan.CallDeepResearch || plan.NeedStockPrice || plan.NeedFinancials || plan.NeedInsiderTrades || plan.NeedSECFilings {
		t.Fatalf("default plan must not request other providers: %+v", plan)
	}
	if len(plan.Tickers) != 0 {
		t.Fatalf("default plan tickers = %v", plan.Tickers)
	}
	if plan.Reasoning == "" {
		t.Fatal("default plan should explain itself")
	}
}

func TestPlannerLLMErrorFallsBack(t *testing.T) {
	client := &stubLLM{err: errors.New("rate limited")}
	p := NewPlanner(client, testLogger())

	plan := p.Plan(context.Background(), "anything", nil)
	if !plan.CallSonar || plan.CallDeepResearch {
		t.Fatalf("unexpected fallback plan: %+v", plan)
	}
}

func TestPlannerLimitsHistory(t *testing.T) {
	client := &stubLLM{replies: []string{`{"call_perplexity_sonar": true}`}}
	p := NewPlanner(client, testLogger())

	history := make([]session.Message, 15)
	for i := range history {
		history[i] = session.Message{Role: "user", Content: "old"}
	}
	p.Plan(context.Background(), "latest", history)

	// system + capped history + current query
	if got := len(client.calls[0]); got != 1+plannerHistoryLimit+1 {
		t.Fatalf("messages sent = %d, want %d", got, 1+plannerHistoryLimit+1)
	}
}

func TestPlannerNormalizesTickers(t *testing.T) {
	client := &stubLLM{replies: []string{`{
		"call_perplexity_sonar": true,
		"need_stock_price": true,
		"tickers": ["aapl", "AAPL", " msft ", "", "tsla", "MSFT"]
	}`}}
	p := NewPlanner(client, testLogger())

	plan := p.Plan(context.Background(), "compare apple microsoft tesla", nil)
	want := []string{"AAPL", "MSFT", "TSLA"}
	if len(plan.Tickers) != len(want) {
		t.Fatalf("tickers = %v, want %v", plan.Tickers, want)
	}
	for i, ticker := range want {
		if plan.Tickers[i] != ticker {
			t.Fatalf("tickers = %v, want %v", plan.Tickers, want)
		}
	}
}

func TestPlannerFillsMissingFields(t *testing.T) {
	client := &stubLLM{replies: []string{`{"call_perplexity_sonar": false}`}}
	p := NewPlanner(client, testLogger())

	plan := p.Plan(context.Background(), "anything", nil)
	if plan.Tickers == nil {
		t.Fatal("tickers should never be nil")
	}
	if plan.Reasoning != "No reasoning provided." {
		t.Fatalf("reasoning = %q", plan.Reasoning)
	}
}
