package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gashedge/gashedge/metrics"
)

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	handler := metricsMiddleware(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/price", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", rec.Code)
	}

	// the recorded counter shows up on the scrape endpoint
	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(scrape.Body.String(), "gashedge_api_requests_total") {
		t.Error("request counter missing from scrape output")
	}
}

func TestMetricsMiddlewareSkipsWebSocketPath(t *testing.T) {
	reached := false
	wrapped := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		_, wrapped = w.(*statusRecorder)
	})
	handler := metricsMiddleware(inner)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ws", nil))
	if !reached {
		t.Fatal("wrapped handler not reached")
	}
	// the upgrade needs the raw ResponseWriter for hijacking
	if wrapped {
		t.Error("websocket path must see the original ResponseWriter")
	}
}
