package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/finsearch/finsearch/config"
)

// PolygonClient implements PriceProvider against the Polygon.io REST API.
type PolygonClient struct {
	apiKey  string
	baseURL string
	http    *HTTPClient
}

func NewPolygonClient(cfg config.PolygonConfig) *PolygonClient {
	return &PolygonClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.Endpoint,
		http:    NewHTTPClient(cfg.Timeout, cfg.Retries),
	}
}

func (c *PolygonClient) get(ctx context.Context, path string, params url.Values) (Payload, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apiKey", c.apiKey)
	var raw Payload
	if err := c.http.DoJSON(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// Price returns the previous-day aggregate for a ticker.
func (c *PolygonClient) Price(ctx context.Context, ticker string) (Payload, *PriceQuote, error) {
	raw, err := c.get(ctx, fmt.Sprintf("/v2/aggs/ticker/%s/prev", ticker), nil)
	if err != nil {
		return nil, nil, err
	}
	return raw, normalizePrice(raw), nil
}

// News returns recent company news, newest first.
func (c *PolygonClient) News(ctx context.Context, ticker string, limit int) (Payload, []NewsArticle, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("limit", strconv.Itoa(limit))
	raw, err := c.get(ctx, "/v2/reference/news", params)
	if err != nil {
		return nil, nil, err
	}
	return raw, normalizeNews(raw), nil
}

// History returns daily aggregates between two YYYY-MM-DD dates.
func (c *PolygonClient) History(ctx context.Context, ticker, from, to string) (Payload, error) {
	return c.get(ctx, fmt.Sprintf("/v2/aggs/ticker/%s/range/1/day/%s/%s", ticker, from, to), nil)
}

// Financials returns Polygon's reference financial reports.
func (c *PolygonClient) Financials(ctx context.Context, ticker string, limit int) (Payload, error) {
	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("limit", strconv.Itoa(limit))
	return c.get(ctx, "/vX/reference/financials", params)
}

func normalizePrice(raw Payload) *PriceQuote {
	results := asSlice(raw["results"])
	if len(results) == 0 {
		return nil
	}
	r := asMap(results[0])
	if r == nil {
		return nil
	}
	return &PriceQuote{
		Open:   num(r, "o"),
		High:   num(r, "h"),
		Low:    num(r, "l"),
		Close:  num(r, "c"),
		Volume: num(r, "v"),
	}
}

func normalizeNews(raw Payload) []NewsArticle {
	var articles []NewsArticle
	for _, item := range asSlice(raw["results"]) {
		m := asMap(item)
		if m == nil {
			continue
		}
		articles = append(articles, NewsArticle{
			Title:       str(m, "title"),
			URL:         str(m, "article_url"),
			PublishedAt: str(m, "published_utc"),
			Description: str(m, "description"),
		})
	}
	return articles
}
