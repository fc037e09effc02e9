package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DGFellow/product-research-agent/config"
	"github.com/DGFellow/product-research-agent/internal/agent"
	"github.com/DGFellow/product-research-agent/internal/agent/telemetry"
	"github.com/DGFellow/product-research-agent/internal/browse"
	"github.com/DGFellow/product-research-agent/internal/store"
	"github.com/DGFellow/product-research-agent/models"
	"github.com/DGFellow/product-research-agent/provider"
)

// researchRequest is the POST /api/research body. Omitted filter fields fall
// back to the configured defaults.
type researchRequest struct {
	Query                string `json:"query"`
	MinMOQ               *int   `json:"min_moq,omitempty"`
	MinSellerTenureYears *int   `json:"min_seller_tenure_years,omitempty"`
	MaxResultsPerTool    *int   `json:"max_results_per_tool,omitempty"`
}

// Server exposes the research agent over HTTP. Runs are serialized: the
// browser session is a heavyweight singleton, so concurrent research requests
// queue behind runMu rather than racing for it.
type Server struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	store     *store.Store
	logger    *log.Logger
	runMu     sync.Mutex
}

// Run builds the server with its dependencies and blocks serving addr. An
// empty addr falls back to the configured server address.
func Run(cfg *config.Config, addr string) error {
	srv := &Server{
		cfg:       cfg,
		telemetry: telemetry.NewTelemetry(cfg.Telemetry),
		logger:    log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}

	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		st, err := store.Open(context.Background(), dsn)
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		srv.store = st
	} else {
		srv.logger.Printf("postgres not configured, run history disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
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
		srv.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/research", srv.handleResearch)
	api.GET("/runs", srv.handleListRuns)
	api.GET("/runs/:id/records", srv.handleRunRecords)

	if addr == "" {
		addr = cfg.Server.Address
	}
	if addr == "" {
		addr = ":8080"
	}
	srv.logger.Printf("listening on %s", addr)
	return e.Start(addr)
}

func (s *Server) handleResearch(c echo.Context) error {
	var req researchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	criteria := models.SearchCriteria{
		Query:                req.Query,
		MinMOQ:               s.cfg.General.MinMOQ,
		MinSellerTenureYears: s.cfg.General.MinSellerTenureYears,
		MaxResultsPerTool:    s.cfg.General.MaxProductsPerSite,
	}
	if req.MinMOQ != nil {
		criteria.MinMOQ = *req.MinMOQ
	}
	if req.MinSellerTenureYears != nil {
		criteria.MinSellerTenureYears = *req.MinSellerTenureYears
	}
	if req.MaxResultsPerTool != nil {
		criteria.MaxResultsPerTool = *req.MaxResultsPerTool
	}
	if err := criteria.Validate(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	ctx := c.Request().Context()
	result, err := s.runResearch(ctx, criteria)
	if err != nil {
		return err
	}

	if s.store != nil {
		run := store.Run{
			ID:          result.RunID,
			Query:       result.Query,
			StartedAt:   result.Started,
			CompletedAt: result.Finished,
			Summary:     result.Analysis,
		}
		if err := s.store.SaveRun(ctx, run, result.Records); err != nil {
			s.logger.Printf("saving run %s failed: %v", result.RunID, err)
		}
	}
	return c.JSON(http.StatusOK, result)
}

// runResearch stands up a fresh browser session and agent for one run. The
// session is per-run on purpose: a long-lived tab accumulates marketplace
// anti-bot state.
func (s *Server) runResearch(ctx context.Context, criteria models.SearchCriteria) (agent.Result, error) {
	session := browse.NewSession(s.cfg.Browser)
	llm, err := provider.NewProvider(provider.Local, s.cfg.LLM)
	if err != nil {
		return agent.Result{}, err
	}
	planner := agent.NewPlanner(s.cfg.LLM, llm, s.telemetry)
	toolset := agent.NewToolset(session, s.cfg.Scrapers)

	ag := agent.New(session, planner, toolset, s.telemetry)
	if err := ag.Initialize(ctx); err != nil {
		return agent.Result{}, echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	defer ag.Close()

	return ag.Research(ctx, criteria)
}

func (s *Server) handleListRuns(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history not configured")
	}
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
	}
	runs, err := s.store.ListRuns(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []store.Run{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleRunRecords(c echo.Context) error {
	if s.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "run history not configured")
	}
	records, err := s.store.RecordsByRun(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	if records == nil {
		records = []models.ProductRecord{}
	}
	return c.JSON(http.StatusOK, records)
}
