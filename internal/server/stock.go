package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/finsearch/finsearch/internal/providers"
)

type StockHandler struct {
	Prices providers.PriceProvider
}

func (h *StockHandler) Register(g *echo.Group) {
	g.GET("/stock/price/:ticker", h.price)
	g.GET("/stock/news/:ticker", h.news)
	g.GET("/stock/historical/:ticker", h.historical)
}

// price returns the latest session quote. Provider failures degrade into a
// zero price with the error carried in the data field, so clients always
// get a well-formed body.
func (h *StockHandler) price(c echo.Context) error {
	ticker := c.Param("ticker")
	raw, quote, err := h.Prices.Price(c.Request().Context(), ticker)
	if err != nil {
		return c.JSON(http.StatusOK, StockPriceResponse{
			Ticker: ticker,
			Data:   map[string]interface{}{"error": err.Error()},
		})
	}
	if quote == nil {
		return c.JSON(http.StatusOK, StockPriceResponse{
			Ticker: ticker,
			Data:   map[string]interface{}{"error": "No results found"},
		})
	}

	var data map[string]interface{}
	if results := rawResults(raw); len(results) > 0 {
		data, _ = results[0].(map[string]interface{})
	}
	change := quote.Change()
	changePercent := quote.ChangePercent()
	return c.JSON(http.StatusOK, StockPriceResponse{
		Ticker:        ticker,
		Price:         quote.Close,
		Change:        &change,
		ChangePercent: &changePercent,
		Data:          data,
	})
}

func (h *StockHandler) news(c echo.Context) error {
	ticker := c.Param("ticker")
	limit := queryInt(c, "limit", 5, 1, 50)
	_, articles, err := h.Prices.News(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusOK, StockNewsResponse{Ticker: ticker, News: []providers.NewsArticle{}})
	}
	if articles == nil {
		articles = []providers.NewsArticle{}
	}
	return c.JSON(http.StatusOK, StockNewsResponse{Ticker: ticker, News: articles})
}

func (h *StockHandler) historical(c echo.Context) error {
	ticker := c.Param("ticker")
	from := c.QueryParam("from_date")
	to := c.QueryParam("to_date")
	if from == "" || to == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "from_date and to_date required")
	}
	raw, err := h.Prices.History(c.Request().Context(), ticker, from, to)
	if err != nil {
		return c.JSON(http.StatusOK, HistoricalPriceResponse{Ticker: ticker, Results: []interface{}{}})
	}
	results := rawResults(raw)
	if results == nil {
		results = []interface{}{}
	}
	return c.JSON(http.StatusOK, HistoricalPriceResponse{Ticker: ticker, Results: results})
}

func rawResults(raw providers.Payload) []interface{} {
	if raw == nil {
		return nil
	}
	s, _ := raw["results"].([]interface{})
	return s
}

func queryInt(c echo.Context, name string, def, min, max int) int {
	v := c.QueryParam(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < min || n > max {
		return def
	}
	return n
}
