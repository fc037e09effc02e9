package server

import (
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/DGFellow/product-research-agent/config"
)

func testServer() *Server {
	return &Server{
		cfg: &config.Config{
			General: config.GeneralConfig{MaxProductsPerSite: 10, MinMOQ: 100, MinSellerTenureYears: 2},
		},
		logger: log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

func TestHandleResearchRejectsBadBody(t *testing.T) {
	srv := testServer()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := srv.handleResearch(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandleResearchRejectsEmptyQuery(t *testing.T) {
	srv := testServer()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/research", strings.NewReader(`{"query": ""}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	err := srv.handleResearch(e.NewContext(req, rec))
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty query, got %v", err)
	}
}

func TestHistoryEndpointsWithoutStore(t *testing.T) {
	srv := testServer()
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/runs", nil)
	err := srv.handleListRuns(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a store, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/runs/abc/records", nil)
	err = srv.handleRunRecords(e.NewContext(req, httptest.NewRecorder()))
	if he, ok := err.(*echo.HTTPError); !ok || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a store, got %v", err)
	}
}
