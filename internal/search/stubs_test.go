package search

import (
	"context"
	"errors"
	"sync"

	"github.com/finsearch/finsearch/internal/llm"
	"github.com/finsearch/finsearch/internal/providers"
)

// stubLLM returns canned replies in order and records what it was asked.
type stubLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]llm.Message
	temps   []float64
}

func (s *stubLLM) Complete(_ context.Context, messages []llm.Message, temperature float64, _ int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, messages)
	s.temps = append(s.temps, temperature)
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", errors.New("stubLLM: out of replies")
	}
	reply := s.replies[0]
	s.replies = s.replies[1:]
	return reply, nil
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// stubPrices implements providers.PriceProvider.
type stubPrices struct {
	quote    *providers.PriceQuote
	news     []providers.NewsArticle
	priceErr error
	newsErr  error
}

func (s *stubPrices) Price(context.Context, string) (providers.Payload, *providers.PriceQuote, error) {
	if s.priceErr != nil {
		return nil, nil, s.priceErr
	}
	return providers.Payload{"results": []interface{}{}}, s.quote, nil
}

func (s *stubPrices) News(context.Context, string, int) (providers.Payload, []providers.NewsArticle, error) {
	if s.newsErr != nil {
		return nil, nil, s.newsErr
	}
	return providers.Payload{"results": []interface{}{}}, s.news, nil
}

func (s *stubPrices) History(context.Context, string, string, string) (providers.Payload, error) {
	return providers.Payload{}, nil
}

func (s *stubPrices) Financials(context.Context, string, int) (providers.Payload, error) {
	return providers.Payload{}, nil
}

// stubFundamentals implements providers.FundamentalsProvider.
type stubFundamentals struct {
	statements    *providers.Statements
	trades        []providers.InsiderTrade
	filings       []providers.Filing
	statementsErr error
}

func (s *stubFundamentals) Statements(context.Context, string, int) (providers.Payload, *providers.Statements, error) {
	if s.statementsErr != nil {
		return nil, nil, s.statementsErr
	}
	return providers.Payload{"financials": map[string]interface{}{}}, s.statements, nil
}

func (s *stubFundamentals) InsiderTrades(context.Context, string, int) (providers.Payload, []providers.InsiderTrade, error) {
	return providers.Payload{}, s.trades, nil
}

func (s *stubFundamentals) Filings(context.Context, string, string, int) (providers.Payload, []providers.Filing, error) {
	return providers.Payload{}, s.filings, nil
}

func (s *stubFundamentals) Ownership(context.Context, string) (providers.Payload, error) {
	return providers.Payload{}, nil
}

// stubWeb implements providers.SearchSummarizer.
type stubWeb struct {
	sonar    *providers.SearchAnswer
	deep     *providers.SearchAnswer
	sonarErr error
	deepErr  error
}

func (s *stubWeb) QuickSearch(context.Context, string) (providers.Payload, *providers.SearchAnswer, error) {
	if s.sonarErr != nil {
		return nil, nil, s.sonarErr
	}
	return providers.Payload{"choices": []interface{}{}}, s.sonar, nil
}

func (s *stubWeb) DeepResearch(context.Context, string) (providers.Payload, *providers.SearchAnswer, error) {
	if s.deepErr != nil {
		return nil, nil, s.deepErr
	}
	return providers.Payload{"choices": []interface{}{}}, s.deep, nil
}
