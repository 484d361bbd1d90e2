package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finsearch/finsearch/config"
	"github.com/finsearch/finsearch/internal/providers"
)

type FinancialsHandler struct {
	Prices       providers.PriceProvider
	Fundamentals providers.FundamentalsProvider
	Limits       config.SearchConfig
}

func (h *FinancialsHandler) Register(g *echo.Group) {
	g.GET("/financials/:ticker", h.financials)
	g.GET("/financials/statements/:ticker", h.statements)
	g.GET("/insider-trades/:ticker", h.insiderTrades)
	g.GET("/sec-filings/:ticker", h.secFilings)
	g.GET("/institutional-ownership/:ticker", h.ownership)
}

// financials proxies Polygon's reference financial reports.
func (h *FinancialsHandler) financials(c echo.Context) error {
	ticker := c.Param("ticker")
	limit := queryInt(c, "limit", h.Limits.StatementsLimit, 1, 20)
	raw, err := h.Prices.Financials(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusOK, FinancialsResponse{Ticker: ticker, Financials: []interface{}{}})
	}
	results := rawResults(raw)
	if results == nil {
		results = []interface{}{}
	}
	return c.JSON(http.StatusOK, FinancialsResponse{Ticker: ticker, Financials: results})
}

// statements flattens the three statement types into a single list, the
// shape the frontend table consumes.
func (h *FinancialsHandler) statements(c echo.Context) error {
	ticker := c.Param("ticker")
	limit := queryInt(c, "limit", h.Limits.StatementsLimit, 1, 20)
	raw, _, err := h.Fundamentals.Statements(c.Request().Context(), ticker, limit)
	if err != nil {
		return c.JSON(http.StatusOK, FinancialsResponse{Ticker: ticker, Financials: []interface{}{}})
	}

	financials := []interface{}{}
	if fin, ok := raw["financials"].(map[string]interface{}); ok {
		for _, key := range []string{"income_statements", "balance_sheets", "cash_flow_statements"} {
			if items, ok := fin[key].([]interface{}); ok {
				financials = append(financials, items...)
			}
		}
	}
	return c.JSON(http.StatusOK, FinancialsResponse{Ticker: ticker, Financials: financials})
}

func (h *FinancialsHandler) insiderTrades(c echo.Context) error {
	ticker := c.Param("ticker")
	limit := queryInt(c, "limit", h.Limits.InsiderTradesLimit, 1, 50)
	_, trades, err := h.Fundamentals.InsiderTrades(c.Request().Context(), ticker, limit)
	if err != nil || trades == nil {
		trades = []providers.InsiderTrade{}
	}
	return c.JSON(http.StatusOK, InsiderTradesResponse{Ticker: ticker, Trades: trades})
}

func (h *FinancialsHandler) secFilings(c echo.Context) error {
	ticker := c.Param("ticker")
	formType := c.QueryParam("form_type")
	limit := queryInt(c, "limit", h.Limits.FilingsLimit, 1, 20)
	_, filings, err := h.Fundamentals.Filings(c.Request().Context(), ticker, formType, limit)
	if err != nil || filings == nil {
		filings = []providers.Filing{}
	}
	return c.JSON(http.StatusOK, SECFilingsResponse{Ticker: ticker, Filings: filings})
}

func (h *FinancialsHandler) ownership(c echo.Context) error {
	ticker := c.Param("ticker")
	raw, err := h.Fundamentals.Ownership(c.Request().Context(), ticker)
	ownership := []interface{}{}
	if err == nil && raw != nil {
		if items, ok := raw["institutional_ownership"].([]interface{}); ok {
			ownership = items
		} else if items, ok := raw["results"].([]interface{}); ok {
			ownership = items
		}
	}
	return c.JSON(http.StatusOK, InstitutionalOwnershipResponse{Ticker: ticker, Ownership: ownership})
}
