package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/finsearch/finsearch/config"
)

const (
	sonarSystemPrompt = "You are a financial research assistant. Provide accurate, " +
		"up-to-date information about markets, companies and economic events. " +
		"Cite your sources."
	deepResearchSystemPrompt = "You are an expert financial analyst. Conduct thorough, " +
		"multi-step research and produce a detailed, well-sourced analysis."
)

// PerplexityClient implements SearchSummarizer. Deep research calls use a
// separate HTTP client with a longer timeout than sonar searches.
type PerplexityClient struct {
	apiKey  string
	baseURL string
	model   string
	sonar   *HTTPClient
	deep    *HTTPClient
}

func NewPerplexityClient(cfg config.PerplexityConfig) *PerplexityClient {
	return &PerplexityClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.Endpoint,
		model:   cfg.Model,
		sonar:   NewHTTPClient(cfg.SonarTimeout, 0),
		deep:    NewHTTPClient(cfg.DeepResearchTimeout, 0),
	}
}

// QuickSearch runs a sonar web search for the query.
func (c *PerplexityClient) QuickSearch(ctx context.Context, query string) (Payload, *SearchAnswer, error) {
	return c.chat(ctx, c.sonar, sonarSystemPrompt, query)
}

// DeepResearch runs an extended multi-step analysis of the query.
func (c *PerplexityClient) DeepResearch(ctx context.Context, query string) (Payload, *SearchAnswer, error) {
	prompt := fmt.Sprintf("Conduct a deep financial analysis on: %s", query)
	return c.chat(ctx, c.deep, deepResearchSystemPrompt, prompt)
}

func (c *PerplexityClient) chat(ctx context.Context, client *HTTPClient, system, user string) (Payload, *SearchAnswer, error) {
	body := map[string]interface{}{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}
	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"Content-Type":  "application/json",
	}
	var raw Payload
	if err := client.DoJSON(ctx, http.MethodPost, c.baseURL+"/chat/completions", headers, body, &raw); err != nil {
		return nil, nil, err
	}
	return raw, normalizeSearchAnswer(raw), nil
}

// normalizeSearchAnswer pulls the answer text, citation URLs and any context
// documents out of a chat completion payload.
func normalizeSearchAnswer(raw Payload) *SearchAnswer {
	answer := &SearchAnswer{}

	choices := asSlice(raw["choices"])
	if len(choices) > 0 {
		if msg := asMap(asMap(choices[0])["message"]); msg != nil {
			answer.Content = str(msg, "content")
			if docs := asSlice(asMap(msg["context"])["documents"]); docs != nil {
				for _, d := range docs {
					dm := asMap(d)
					if dm == nil {
						continue
					}
					answer.Documents = append(answer.Documents, Document{
						Title: str(dm, "title"),
						URL:   str(dm, "url"),
					})
				}
			}
		}
	}

	for _, cit := range asSlice(raw["citations"]) {
		if s, ok := cit.(string); ok {
			answer.Citations = append(answer.Citations, s)
		}
	}
	return answer
}
