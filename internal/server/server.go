// Package server exposes the search pipeline and the provider pass-through
// endpoints over HTTP.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/finsearch/finsearch/config"
	"github.com/finsearch/finsearch/internal/cache"
	"github.com/finsearch/finsearch/internal/llm"
	"github.com/finsearch/finsearch/internal/providers"
	"github.com/finsearch/finsearch/internal/search"
	"github.com/finsearch/finsearch/internal/session"
)

// Run wires all dependencies from config and serves until the listener
// fails.
func Run(addr string, cfg *config.Config) error {
	ctx := context.Background()

	store, err := newCacheStore(ctx, cfg)
	if err != nil {
		return err
	}
	sessions, err := newSessionStore(ctx, cfg)
	if err != nil {
		return err
	}

	polygon := providers.NewPolygonClient(cfg.Providers.Polygon)
	findata := providers.NewFinDataClient(cfg.Providers.FinData)
	perplexity := providers.NewPerplexityClient(cfg.Providers.Perplexity)
	llmClient := llm.NewOpenAIClient(cfg.LLM)

	orch := search.NewOrchestrator(
		search.NewPlanner(llmClient, nil),
		search.NewExecutor(polygon, findata, perplexity, cfg.Search, nil),
		search.NewSynthesizer(llmClient),
		sessions,
		store,
		polygon,
		search.Options{
			EnableCaching:  cfg.General.EnableCaching,
			EnableFastPath: cfg.General.EnableFastPath,
			PlanTTL:        cfg.Storage.Cache.PlanTTL,
			ResponseTTL:    cfg.Storage.Cache.ResponseTTL,
			NewsLimit:      cfg.Search.NewsLimit,
		},
		nil,
	)

	e := newEcho()
	api := e.Group("/api")
	sh := &SearchHandler{Orch: orch, Streaming: cfg.General.EnableStreaming}
	sh.Register(api)
	st := &StockHandler{Prices: polygon}
	st.Register(api)
	fh := &FinancialsHandler{Prices: polygon, Fundamentals: findata, Limits: cfg.Search}
	fh.Register(api)

	if addr == "" {
		addr = cfg.General.Listen
	}
	log.Printf("listening on %s", addr)
	return e.Start(addr)
}

// newEcho builds the echo instance with recovery, CORS, a JSON error
// handler and the operational endpoints.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		httpLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
	}))

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"message": "Welcome to the Financial Search Engine API"})
	})
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	return e
}

func newCacheStore(ctx context.Context, cfg *config.Config) (cache.Store, error) {
	if !cfg.General.EnableCaching {
		return cache.Noop{}, nil
	}
	switch cfg.Storage.Cache.Backend {
	case "redis":
		store, err := cache.NewRedisStore(ctx, cfg.Storage.Redis)
		if err != nil {
			return nil, fmt.Errorf("cache backend: %w", err)
		}
		return store, nil
	case "memory":
		return cache.NewMemoryStore(), nil
	default:
		return cache.Noop{}, nil
	}
}

func newSessionStore(ctx context.Context, cfg *config.Config) (session.Store, error) {
	switch cfg.Sessions.Backend {
	case "redis":
		store, err := session.NewRedisStore(ctx, cfg.Storage.Redis, cfg.Sessions.TTL, cfg.Sessions.MaxMessages)
		if err != nil {
			return nil, fmt.Errorf("session backend: %w", err)
		}
		return store, nil
	default:
		return session.NewMemoryStore(cfg.Sessions.MaxMessages), nil
	}
}
