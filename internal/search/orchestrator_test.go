package search

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/finsearch/finsearch/config"
	"github.com/finsearch/finsearch/internal/cache"
	"github.com/finsearch/finsearch/internal/providers"
	"github.com/finsearch/finsearch/internal/session"
)

const planReply = `{"call_perplexity_sonar": true, "need_stock_price": true, "tickers": ["AAPL"], "reasoning": "r"}`

func testOrchestrator(client *stubLLM, store cache.Store, sessions session.Store, opts Options) *Orchestrator {
	prices := &stubPrices{
		quote: &providers.PriceQuote{Open: 145, High: 152, Low: 144, Close: 150, Volume: 1000000},
		news:  []providers.NewsArticle{{Title: "headline", URL: "https://news/1"}},
	}
	web := &stubWeb{sonar: &providers.SearchAnswer{Content: "web answer", Citations: []string{"https://c/1"}}}
	executor := NewExecutor(prices, &stubFundamentals{}, web, config.SearchConfig{
		MaxConcurrentTasks: 4, NewsLimit: 5, StatementsLimit: 4, InsiderTradesLimit: 10, FilingsLimit: 5,
	}, testLogger())
	return NewOrchestrator(
		NewPlanner(client, testLogger()),
		executor,
		NewSynthesizer(client),
		sessions,
		store,
		prices,
		opts,
		testLogger(),
	)
}

func TestSearchFullPipeline(t *testing.T) {
	client := &stubLLM{replies: []string{planReply, "synthesized answer"}}
	store := cache.NewMemoryStore()
	sessions := session.NewMemoryStore(20)
	o := testOrchestrator(client, store, sessions, Options{
		EnableCaching: true, PlanTTL: time.Hour, ResponseTTL: 30 * time.Minute, NewsLimit: 5,
	})

	resp := o.Search(context.Background(), Request{Query: "how is AAPL doing"})
	if resp.Answer != "synthesized answer" {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if resp.SessionID == "" {
		t.Fatal("session id should be generated")
	}
	if _, ok := resp.Data["perplexity_sonar"]; !ok {
		t.Fatalf("data missing sonar payload: %v", resp.Data)
	}
	if _, ok := resp.Data["AAPL_price"]; !ok {
		t.Fatalf("data missing price payload: %v", resp.Data)
	}
	if len(resp.Sources) == 0 {
		t.Fatal("sources should include the citation")
	}

	history, _ := sessions.History(context.Background(), resp.SessionID)
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("history = %+v", history)
	}

	o.Wait()
	if _, err := store.Get(context.Background(), cache.PlanKey("how is AAPL doing")); err != nil {
		t.Fatalf("plan not cached: %v", err)
	}
	encoded, err := store.Get(context.Background(), cache.ResponseKey("how is AAPL doing"))
	if err != nil {
		t.Fatalf("response not cached: %v", err)
	}
	var entry cachedResponse
	if err := json.Unmarshal(encoded, &entry); err != nil {
		t.Fatalf("cached response decode: %v", err)
	}
	if entry.Answer != "synthesized answer" {
		t.Fatalf("cached answer = %q", entry.Answer)
	}
}

func TestSearchCacheHitSkipsPipeline(t *testing.T) {
	client := &stubLLM{}
	store := cache.NewMemoryStore()
	sessions := session.NewMemoryStore(20)
	entry, _ := json.Marshal(cachedResponse{Answer: "cached", Sources: []Source{{Title: "t", URL: "u"}}})
	store.Set(context.Background(), cache.ResponseKey("repeat question"), entry, time.Minute)

	o := testOrchestrator(client, store, sessions, Options{EnableCaching: true})
	resp := o.Search(context.Background(), Request{Query: "Repeat   QUESTION", SessionID: "s1"})
	if resp.Answer != "cached" {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if client.callCount() != 0 {
		t.Fatalf("llm called %d times on cache hit", client.callCount())
	}

	history, _ := sessions.History(context.Background(), "s1")
	if len(history) != 2 || history[1].Content != "cached" {
		t.Fatalf("cached answer should land in history: %+v", history)
	}
}

func TestSearchSynthesisFailureDegrades(t *testing.T) {
	client := &stubLLM{replies: []string{planReply}}
	store := cache.NewMemoryStore()
	o := testOrchestrator(client, store, session.NewMemoryStore(20), Options{})

	// First reply consumed by the planner; the synthesizer then runs dry.
	resp := o.Search(context.Background(), Request{Query: "anything", SessionID: "s1"})
	if !strings.Contains(resp.Answer, "An error occurred while processing your request") {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if resp.SessionID != "s1" {
		t.Fatalf("session id = %q", resp.SessionID)
	}
}

func TestSearchMalformedPlanStillAnswers(t *testing.T) {
	client := &stubLLM{replies: []string{"no json at all", "recovered answer"}}
	o := testOrchestrator(client, cache.NewMemoryStore(), session.NewMemoryStore(20), Options{})

	resp := o.Search(context.Background(), Request{Query: "anything"})
	if resp.Answer != "recovered answer" {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if _, ok := resp.Data["perplexity_sonar"]; !ok {
		t.Fatalf("default plan should still run sonar: %v", resp.Data)
	}
}

func TestSearchCachingDisabledWritesNothing(t *testing.T) {
	client := &stubLLM{replies: []string{planReply, "answer"}}
	store := cache.NewMemoryStore()
	o := testOrchestrator(client, store, session.NewMemoryStore(20), Options{})

	o.Search(context.Background(), Request{Query: "q"})
	o.Wait()
	if _, err := store.Get(context.Background(), cache.ResponseKey("q")); err != cache.ErrMiss {
		t.Fatalf("expected miss, got %v", err)
	}
}

func TestFastPathPriceSkipsLLM(t *testing.T) {
	client := &stubLLM{}
	sessions := session.NewMemoryStore(20)
	o := testOrchestrator(client, cache.NewMemoryStore(), sessions, Options{EnableFastPath: true})

	resp := o.Search(context.Background(), Request{Query: "AAPL stock price", SessionID: "s1"})
	if !strings.Contains(resp.Answer, "**$150.00**") {
		t.Fatalf("answer = %q", resp.Answer)
	}
	if client.callCount() != 0 {
		t.Fatal("fast path must not call the llm")
	}
	if _, ok := resp.Data["AAPL_price"]; !ok {
		t.Fatalf("fast path data missing: %v", resp.Data)
	}
}

func TestStreamSearchEventSequence(t *testing.T) {
	client := &stubLLM{replies: []string{planReply, "streamed answer"}}
	o := testOrchestrator(client, cache.NewMemoryStore(), session.NewMemoryStore(20), Options{})

	var events []Event
	o.StreamSearch(context.Background(), Request{Query: "how is AAPL doing", Mode: ModeDeepResearch}, func(ev Event) {
		events = append(events, ev)
	})
	if len(events) < 3 {
		t.Fatalf("events = %+v", events)
	}
	first, last := events[0], events[len(events)-1]
	if first.Type != "status" || first.Content != "Processing your query..." || first.SessionID == "" {
		t.Fatalf("first event = %+v", first)
	}
	if last.Type != "result" || last.Content != "streamed answer" {
		t.Fatalf("last event = %+v", last)
	}
	deepAnnounced := false
	for _, ev := range events[:len(events)-1] {
		if ev.Type != "status" {
			t.Fatalf("non-status event before result: %+v", ev)
		}
		if strings.Contains(ev.Content, "Deep Research mode activated") {
			deepAnnounced = true
		}
	}
	if !deepAnnounced {
		t.Fatal("deep research mode should be announced")
	}
}

func TestStreamSearchCacheHitIsTwoEvents(t *testing.T) {
	client := &stubLLM{}
	store := cache.NewMemoryStore()
	entry, _ := json.Marshal(cachedResponse{Answer: "cached"})
	store.Set(context.Background(), cache.ResponseKey("q"), entry, time.Minute)
	o := testOrchestrator(client, store, session.NewMemoryStore(20), Options{EnableCaching: true})

	var events []Event
	o.StreamSearch(context.Background(), Request{Query: "q"}, func(ev Event) { events = append(events, ev) })
	if len(events) != 2 {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Type != "status" || events[1].Type != "result" || events[1].Content != "cached" {
		t.Fatalf("events = %+v", events)
	}
}

func TestStreamSearchFailureEmitsError(t *testing.T) {
	client := &stubLLM{err: errors.New("llm down")}
	o := testOrchestrator(client, cache.NewMemoryStore(), session.NewMemoryStore(20), Options{})

	var events []Event
	o.StreamSearch(context.Background(), Request{Query: "q"}, func(ev Event) { events = append(events, ev) })
	last := events[len(events)-1]
	if last.Type != "error" || !strings.Contains(last.Content, "An error occurred") {
		t.Fatalf("last event = %+v", last)
	}
}
