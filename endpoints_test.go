package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/health"
	"github.com/medsafe/interactions-api/llm"
	"github.com/medsafe/interactions-api/openfda"
	"github.com/medsafe/interactions-api/report"
	"github.com/medsafe/interactions-api/server"
	"github.com/medsafe/interactions-api/validation"
)

// fakeOpenFDA serves a minimal label for every drug it is asked about.
func fakeOpenFDA(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"results": [{
				"warnings": ["may cause hyperkalemia"],
				"openfda": {"generic_name": ["LISINOPRIL"], "brand_name": ["Zestril"]}
			}]
		}`))
	}))
}

// fakeGemini returns one canned interaction alert.
func fakeGemini(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func testServer(t *testing.T, fdaURL, geminiURL string) *server.Server {
	t.Helper()

	cfg := &config.Config{
		Port:               "8000",
		Address:            "127.0.0.1",
		Env:                "test",
		LogLevel:           "info",
		MaxRequestBody:     1048576,
		MaxHeaderSize:      1048576,
		GeminiAPIKey:       "test-key",
		GeminiModel:        "gemini-2.0-flash",
		GeminiBaseURL:      geminiURL,
		OpenFDABaseURL:     fdaURL,
		PromptSectionLimit: 6000,
		ReportWorkers:      2,
		Drugs: []config.Drug{
			{Name: "Lisinopril", Class: "ACE Inhibitor"},
		},
	}

	orchestrator := report.NewOrchestrator(
		openfda.NewClient(cfg.OpenFDABaseURL),
		llm.NewClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey),
		cfg,
	)

	return server.NewServer(cfg, server.Deps{
		Validator: validation.NewProfileValidator(),
		Generator: orchestrator,
		Checker:   health.NewHealthChecker(cfg),
	})
}

func TestGenerateReportEndToEnd(t *testing.T) {
	fda := fakeOpenFDA(t)
	defer fda.Close()

	gemini := fakeGemini(t, http.StatusOK, `{
		"candidates": [{"content": {"parts": [{"text":
			"[{\"drug\":\"lisinopril\",\"category\":\"interaction\",\"explanation\":\"Additive hyperkalemia risk with spironolactone.\",\"attribute\":\"medications\"}]"
		}]}}]
	}`)
	defer gemini.Close()

	srv := testServer(t, fda.URL, gemini.URL)

	body := `{"notes": "", "allergies": ["penicillin"], "medications": ["spironolactone"]}`
	req := httptest.NewRequest(http.MethodPost, "/generate-report", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Report    []report.ConflictAlert `json:"report"`
		Evaluated int                    `json:"evaluated"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response not JSON: %v", err)
	}

	if resp.Evaluated != 1 {
		t.Errorf("Expected 1 drug evaluated, got %d", resp.Evaluated)
	}
	if len(resp.Report) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(resp.Report))
	}
	if resp.Report[0].Drug != "Lisinopril" {
		t.Errorf("Expected alert tagged with canonical name, got %s", resp.Report[0].Drug)
	}
	if resp.Report[0].Category != "interaction" {
		t.Errorf("Expected interaction category, got %s", resp.Report[0].Category)
	}
	if resp.Report[0].Class != "ACE Inhibitor" {
		t.Errorf("Expected configured drug class on the alert, got %q", resp.Report[0].Class)
	}
	if resp.Report[0].GenericName != "LISINOPRIL" || resp.Report[0].BrandName != "Zestril" {
		t.Errorf("Expected resolved label names on the alert, got %q / %q",
			resp.Report[0].GenericName, resp.Report[0].BrandName)
	}
}

func TestGenerateReportEndToEndAuthFailure(t *testing.T) {
	fda := fakeOpenFDA(t)
	defer fda.Close()

	gemini := fakeGemini(t, http.StatusForbidden,
		`{"error": {"code": 403, "status": "PERMISSION_DENIED", "message": "permission denied"}}`)
	defer gemini.Close()

	srv := testServer(t, fda.URL, gemini.URL)

	req := httptest.NewRequest(http.MethodPost, "/generate-report", strings.NewReader(`{"notes": "dizzy"}`))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502 on credential rejection, got %d", rr.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Error body not JSON: %v", err)
	}
	if _, hasReport := resp["report"]; hasReport {
		t.Error("Fatal failure must not include a partial report")
	}
	if resp["error"] == "" || resp["error"] == nil {
		t.Error("Expected top-level error message")
	}
}

func TestGenerateReportEndToEndValidation(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:0", "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodPost, "/generate-report", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for empty profile, got %d", rr.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:0", "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "healthy") {
		t.Errorf("Expected healthy status, got %s", rr.Body.String())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(t, "http://127.0.0.1:0", "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "http_request") {
		t.Error("Expected prometheus metrics output")
	}
}

func TestCheckDrugEndToEndUnknownDrug(t *testing.T) {
	fda := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": "NOT_FOUND", "message": "No matches found!"}}`))
	}))
	defer fda.Close()

	srv := testServer(t, fda.URL, "http://127.0.0.1:0")

	body := `{"profile": {"notes": "dizzy"}, "drugName": "Notarealdrug"}`
	req := httptest.NewRequest(http.MethodPost, "/check-drug", strings.NewReader(body))
	rr := httptest.NewRecorder()

	srv.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 with fetch_error entry, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Report []report.ConflictAlert `json:"report"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Response not JSON: %v", err)
	}
	if len(resp.Report) != 1 || resp.Report[0].Category != "fetch_error" {
		t.Errorf("Expected one fetch_error entry, got %+v", resp.Report)
	}
}
