package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/finsearch/finsearch/internal/cache"
	"github.com/finsearch/finsearch/internal/fastpath"
	"github.com/finsearch/finsearch/internal/llm"
	"github.com/finsearch/finsearch/internal/providers"
	"github.com/finsearch/finsearch/internal/session"
	"github.com/finsearch/finsearch/internal/telemetry"
)

// Options tunes orchestrator behavior outside of its collaborators.
type Options struct {
	EnableCaching  bool
	EnableFastPath bool
	PlanTTL        time.Duration
	ResponseTTL    time.Duration
	NewsLimit      int
}

// cachedResponse is the JSON shape stored under query_response keys.
type cachedResponse struct {
	Answer  string                 `json:"answer"`
	Sources []Source               `json:"sources"`
	Data    map[string]interface{} `json:"data"`
}

// Orchestrator drives a search end to end: session bookkeeping, cache
// lookup, fast path, planning, provider fan-out, aggregation and synthesis.
// It never returns an error to callers; every failure degrades into an
// answer explaining what went wrong.
type Orchestrator struct {
	planner  *Planner
	executor *Executor
	synth    *Synthesizer
	sessions session.Store
	cache    cache.Store
	prices   providers.PriceProvider
	opts     Options
	logger   *log.Logger

	jobs sync.WaitGroup
}

func NewOrchestrator(planner *Planner, executor *Executor, synth *Synthesizer, sessions session.Store, store cache.Store, prices providers.PriceProvider, opts Options, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	if store == nil {
		store = cache.Noop{}
	}
	return &Orchestrator{
		planner:  planner,
		executor: executor,
		synth:    synth,
		sessions: sessions,
		cache:    store,
		prices:   prices,
		opts:     opts,
		logger:   logger,
	}
}

// Wait blocks until detached cache writes finish. Used on shutdown and by
// tests that assert on cache contents.
func (o *Orchestrator) Wait() { o.jobs.Wait() }

// Search runs a full query synchronously. Failures surface as a degraded
// answer, never as an error.
func (o *Orchestrator) Search(ctx context.Context, req Request) Response {
	resp, _ := o.run(ctx, req, nil)
	return resp
}

// StreamSearch runs the same pipeline while reporting progress. Side
// effects (session updates, cache writes) are identical to Search; only the
// status events differ. The final result or error is delivered through emit
// as well.
func (o *Orchestrator) StreamSearch(ctx context.Context, req Request, emit func(Event)) {
	resp, failed := o.run(ctx, req, emit)
	eventType := "result"
	if failed {
		eventType = "error"
	}
	emit(Event{Type: eventType, Content: resp.Answer, Sources: resp.Sources, SessionID: resp.SessionID})
}

func (o *Orchestrator) run(ctx context.Context, req Request, emit func(Event)) (Response, bool) {
	start := time.Now()
	defer func() { telemetry.SearchDuration.Observe(time.Since(start).Seconds()) }()

	if emit == nil {
		emit = func(Event) {}
	}
	query := req.Query
	mode := req.Mode
	if mode == "" {
		mode = ModeSonar
	}
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	emit(Event{Type: "status", Content: "Processing your query...", SessionID: sessionID})

	history, err := o.sessions.History(ctx, sessionID)
	if err != nil {
		o.logger.Printf("session history: %v", err)
	}
	o.appendMessage(ctx, sessionID, llm.RoleUser, query)

	if o.opts.EnableCaching {
		if resp, hit := o.cachedAnswer(ctx, query, sessionID); hit {
			telemetry.SearchRequests.WithLabelValues("cache_hit").Inc()
			return resp, false
		}
	}

	if o.opts.EnableFastPath {
		if resp, handled := o.fastPath(ctx, query, sessionID, emit); handled {
			telemetry.SearchRequests.WithLabelValues("fast_path").Inc()
			return resp, false
		}
	}

	emit(Event{Type: "status", Content: "Analyzing your query..."})
	plan := o.planner.Plan(ctx, query, history)

	if o.opts.EnableCaching {
		planCopy := plan
		o.detach("plan cache write", func(ctx context.Context) error {
			encoded, err := json.Marshal(planCopy)
			if err != nil {
				return err
			}
			return o.cache.Set(ctx, cache.PlanKey(query), encoded, o.opts.PlanTTL)
		})
	}

	if mode == ModeDeepResearch {
		plan.CallDeepResearch = true
		emit(Event{Type: "status", Content: "Deep Research mode activated. This may take longer..."})
	}
	emit(Event{Type: "status", Content: "Gathering financial data..."})

	tasks := o.executor.BuildTasks(ctx, query, mode, plan)
	for _, task := range tasks {
		emit(Event{Type: "status", Content: task.Status})
	}
	results := o.executor.Execute(ctx, tasks)

	emit(Event{Type: "status", Content: "Analyzing data and generating insights..."})
	answer, err := o.synth.Synthesize(ctx, query, history, FormatNarrative(results))
	if err != nil {
		o.logger.Printf("synthesis failed: %v", err)
		telemetry.SearchRequests.WithLabelValues("error").Inc()
		return Response{
			Answer:    fmt.Sprintf("An error occurred while processing your request: %v", err),
			Sources:   []Source{},
			SessionID: sessionID,
		}, true
	}

	sources := ExtractSources(results)
	data := DataPayload(results)
	o.appendMessage(ctx, sessionID, llm.RoleAssistant, answer)

	if o.opts.EnableCaching {
		entry := cachedResponse{Answer: answer, Sources: sources, Data: data}
		o.detach("response cache write", func(ctx context.Context) error {
			encoded, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			return o.cache.Set(ctx, cache.ResponseKey(query), encoded, o.opts.ResponseTTL)
		})
	}

	telemetry.SearchRequests.WithLabelValues("ok").Inc()
	return Response{Answer: answer, Sources: sources, Data: data, SessionID: sessionID}, false
}

// cachedAnswer serves a previously synthesized answer. The hit still lands
// in the conversation history so follow-up questions keep their context.
func (o *Orchestrator) cachedAnswer(ctx context.Context, query, sessionID string) (Response, bool) {
	encoded, err := o.cache.Get(ctx, cache.ResponseKey(query))
	if err != nil {
		if err != cache.ErrMiss {
			o.logger.Printf("response cache read: %v", err)
			telemetry.CacheOps.WithLabelValues("response", "error").Inc()
		} else {
			telemetry.CacheOps.WithLabelValues("response", "miss").Inc()
		}
		return Response{}, false
	}
	var entry cachedResponse
	if err := json.Unmarshal(encoded, &entry); err != nil {
		o.logger.Printf("response cache decode: %v", err)
		telemetry.CacheOps.WithLabelValues("response", "error").Inc()
		return Response{}, false
	}
	telemetry.CacheOps.WithLabelValues("response", "hit").Inc()
	o.appendMessage(ctx, sessionID, llm.RoleAssistant, entry.Answer)
	return Response{
		Answer:    entry.Answer,
		Sources:   entry.Sources,
		Data:      entry.Data,
		SessionID: sessionID,
	}, true
}

// fastPath answers trivially-shaped single-ticker queries without the
// planner. Provider failures fall back to the full pipeline.
func (o *Orchestrator) fastPath(ctx context.Context, query, sessionID string, emit func(Event)) (Response, bool) {
	kind, ticker, matched := fastpath.Match(query)
	if !matched {
		return Response{}, false
	}

	var answer string
	data := map[string]interface{}{}
	switch kind {
	case fastpath.KindPrice:
		emit(Event{Type: "status", Content: fmt.Sprintf("Fetching stock price for %s...", ticker)})
		raw, quote, err := o.prices.Price(ctx, ticker)
		if err != nil {
			o.logger.Printf("fast path price for %s: %v", ticker, err)
			return Response{}, false
		}
		answer = fastpath.FormatPrice(ticker, quote)
		data[ticker+"_price"] = map[string]interface{}(raw)
	case fastpath.KindNews:
		emit(Event{Type: "status", Content: fmt.Sprintf("Fetching latest news for %s...", ticker)})
		raw, articles, err := o.prices.News(ctx, ticker, o.opts.NewsLimit)
		if err != nil {
			o.logger.Printf("fast path news for %s: %v", ticker, err)
			return Response{}, false
		}
		answer = fastpath.FormatNews(ticker, articles)
		data[ticker+"_news"] = map[string]interface{}(raw)
	case fastpath.KindFinancials:
		answer = fastpath.FormatFinancials(ticker)
	case fastpath.KindInsider:
		answer = fastpath.FormatInsider(ticker)
	default:
		return Response{}, false
	}

	o.appendMessage(ctx, sessionID, llm.RoleAssistant, answer)
	return Response{Answer: answer, Data: data, SessionID: sessionID}, true
}

func (o *Orchestrator) appendMessage(ctx context.Context, sessionID, role, content string) {
	if err := o.sessions.Append(ctx, sessionID, role, content); err != nil {
		o.logger.Printf("session append: %v", err)
	}
}

// detach runs a cache write in the background with its own deadline, so a
// slow store never delays the response already on its way to the client.
func (o *Orchestrator) detach(name string, fn func(context.Context) error) {
	o.jobs.Add(1)
	go func() {
		defer o.jobs.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := fn(ctx); err != nil {
			o.logger.Printf("%s: %v", name, err)
		}
	}()
}
