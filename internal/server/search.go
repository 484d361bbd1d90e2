package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/finsearch/finsearch/internal/search"
)

// Searcher is what the search routes need from the orchestrator.
type Searcher interface {
	Search(ctx context.Context, req search.Request) search.Response
	StreamSearch(ctx context.Context, req search.Request, emit func(search.Event))
}

type SearchHandler struct {
	Orch      Searcher
	Streaming bool
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.POST("/search", h.search)
	g.POST("/search/stream", h.stream)
}

func (h *SearchHandler) search(c echo.Context) error {
	var req search.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	resp := h.Orch.Search(c.Request().Context(), req)
	return c.JSON(http.StatusOK, resp)
}

// stream writes newline-delimited JSON events as the pipeline progresses.
// When streaming is disabled it behaves exactly like the sync endpoint.
func (h *SearchHandler) stream(c echo.Context) error {
	var req search.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query required")
	}
	if !h.Streaming {
		resp := h.Orch.Search(c.Request().Context(), req)
		return c.JSON(http.StatusOK, resp)
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "application/x-ndjson")
	res.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(res)
	h.Orch.StreamSearch(c.Request().Context(), req, func(ev search.Event) {
		if err := enc.Encode(ev); err != nil {
			return
		}
		res.Flush()
	})
	return nil
}
