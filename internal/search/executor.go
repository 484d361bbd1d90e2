package search

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/finsearch/finsearch/config"
	"github.com/finsearch/finsearch/internal/providers"
	"github.com/finsearch/finsearch/internal/telemetry"
)

// Executor builds the provider task list for a plan and runs it
// concurrently. A failed task never cancels its siblings; its error is
// captured in the result slot so the aggregator can report partial data.
type Executor struct {
	prices       providers.PriceProvider
	fundamentals providers.FundamentalsProvider
	web          providers.SearchSummarizer
	cfg          config.SearchConfig
	logger       *log.Logger
}

func NewExecutor(prices providers.PriceProvider, fundamentals providers.FundamentalsProvider, web providers.SearchSummarizer, cfg config.SearchConfig, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.New(log.Writer(), "[EXECUTOR] ", log.LstdFlags)
	}
	return &Executor{prices: prices, fundamentals: fundamentals, web: web, cfg: cfg, logger: logger}
}

// BuildTasks translates a plan into provider calls. The requested mode can
// force perplexity calls beyond what the plan asked for: sonar mode always
// runs a sonar search, deep_research mode always runs deep research.
func (e *Executor) BuildTasks(ctx context.Context, query, mode string, plan Plan) []Task {
	var tasks []Task

	if mode == ModeSonar || plan.CallSonar {
		tasks = append(tasks, Task{
			Key:    "perplexity_sonar",
			Kind:   TaskSonar,
			Status: "Searching for latest market information...",
			Run: func() TaskResult {
				raw, answer, err := e.web.QuickSearch(ctx, query)
				return TaskResult{Key: "perplexity_sonar", Kind: TaskSonar, Raw: raw, Answer: answer, Err: err}
			},
		})
	}
	if mode == ModeDeepResearch || plan.CallDeepResearch {
		tasks = append(tasks, Task{
			Key:    "perplexity_deep_research",
			Kind:   TaskDeepResearch,
			Status: "Conducting deep financial research...",
			Run: func() TaskResult {
				raw, answer, err := e.web.DeepResearch(ctx, query)
				return TaskResult{Key: "perplexity_deep_research", Kind: TaskDeepResearch, Raw: raw, Answer: answer, Err: err}
			},
		})
	}

	for _, t := range plan.Tickers {
		ticker := strings.ToUpper(t)
		if plan.NeedStockPrice {
			key := ticker + "_price"
			tasks = append(tasks, Task{
				Key:    key,
				Kind:   TaskPrice,
				Ticker: ticker,
				Status: fmt.Sprintf("Fetching stock price for %s...", ticker),
				Run: func() TaskResult {
					raw, quote, err := e.prices.Price(ctx, ticker)
					return TaskResult{Key: key, Kind: TaskPrice, Ticker: ticker, Raw: raw, Quote: quote, Err: err}
				},
			})
		}
		if plan.NeedFinancials {
			key := ticker + "_financials"
			tasks = append(tasks, Task{
				Key:    key,
				Kind:   TaskFinancials,
				Ticker: ticker,
				Status: fmt.Sprintf("Retrieving financial statements for %s...", ticker),
				Run: func() TaskResult {
					raw, sts, err := e.fundamentals.Statements(ctx, ticker, e.cfg.StatementsLimit)
					return TaskResult{Key: key, Kind: TaskFinancials, Ticker: ticker, Raw: raw, Statements: sts, Err: err}
				},
			})
		}
		if plan.NeedInsiderTrades {
			key := ticker + "_insider_trades"
			tasks = append(tasks, Task{
				Key:    key,
				Kind:   TaskInsider,
				Ticker: ticker,
				Status: fmt.Sprintf("Checking insider trades for %s...", ticker),
				Run: func() TaskResult {
					raw, trades, err := e.fundamentals.InsiderTrades(ctx, ticker, e.cfg.InsiderTradesLimit)
					return TaskResult{Key: key, Kind: TaskInsider, Ticker: ticker, Raw: raw, Trades: trades, Err: err}
				},
			})
		}
		if plan.NeedSECFilings {
			key := ticker + "_sec_filings"
			tasks = append(tasks, Task{
				Key:    key,
				Kind:   TaskFilings,
				Ticker: ticker,
				Status: fmt.Sprintf("Retrieving SEC filings for %s...", ticker),
				Run: func() TaskResult {
					raw, filings, err := e.fundamentals.Filings(ctx, ticker, "", e.cfg.FilingsLimit)
					return TaskResult{Key: key, Kind: TaskFilings, Ticker: ticker, Raw: raw, Filings: filings, Err: err}
				},
			})
		}
		// News rides along whenever the plan wants market insights.
		if plan.CallSonar {
			key := ticker + "_news"
			tasks = append(tasks, Task{
				Key:    key,
				Kind:   TaskNews,
				Ticker: ticker,
				Status: fmt.Sprintf("Fetching latest news for %s...", ticker),
				Run: func() TaskResult {
					raw, articles, err := e.prices.News(ctx, ticker, e.cfg.NewsLimit)
					return TaskResult{Key: key, Kind: TaskNews, Ticker: ticker, Raw: raw, News: articles, Err: err}
				},
			})
		}
	}
	return tasks
}

// Execute runs the tasks with bounded concurrency and returns results in
// task order.
func (e *Executor) Execute(ctx context.Context, tasks []Task) []TaskResult {
	results := make([]TaskResult, len(tasks))

	g := &errgroup.Group{}
	limit := e.cfg.MaxConcurrentTasks
	if limit <= 0 {
		limit = len(tasks)
	}
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			res := task.Run()
			if res.Err != nil {
				e.logger.Printf("task %s failed: %v", task.Key, res.Err)
				telemetry.TaskResults.WithLabelValues(string(task.Kind), "error").Inc()
			} else {
				telemetry.TaskResults.WithLabelValues(string(task.Kind), "ok").Inc()
			}
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return results
}

// DataPayload flattens results into the response data map. Failed tasks are
// represented by an error object under their key.
func DataPayload(results []TaskResult) map[string]interface{} {
	data := make(map[string]interface{}, len(results))
	for _, res := range results {
		if res.Err != nil {
			data[res.Key] = map[string]interface{}{"error": res.Err.Error()}
			continue
		}
		data[res.Key] = map[string]interface{}(res.Raw)
	}
	return data
}
