package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInstrumentCountsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Instrument)
	router.Post("/generate-report", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := HTTPRequestTotals.WithLabelValues(http.MethodPost, "/generate-report", "200")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodPost, "/generate-report", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if got := testutil.ToFloat64(counter); got != before+1 {
		t.Errorf("Expected counter to increase by 1, got %v -> %v", before, got)
	}
}

func TestInstrumentPreservesStatus(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Instrument)
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 to pass through, got %d", rr.Code)
	}
}

func TestRouteLabelFallsBackForUnmatched(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/no/such/route", nil)

	if got := routeLabel(req); got != "unmatched" {
		t.Errorf("Expected unmatched label, got %q", got)
	}
}
