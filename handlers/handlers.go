// Package handlers provides the HTTP request handlers for the interactions
// API: report generation, single-drug checks, health checks, and JSON
// response formatting with input validation and fatal-vs-recoverable error
// mapping.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/medsafe/interactions-api/interfaces"
	"github.com/medsafe/interactions-api/llm"
	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/report"
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	_, _ = w.Write(data)
}

// RespondWithError writes a JSON error body {"error": msg}
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// GenerateReport handles POST /generate-report: validates the patient
// profile, runs the full configured drug list, and returns the aggregated
// report. Recoverable per-drug failures are entries inside the report;
// only fatal errors produce a non-200 response.
func GenerateReport(validator interfaces.ProfileValidator, generator interfaces.ReportGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var profile report.PatientProfile
		if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
			RespondWithError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}

		if err := validator.ValidateProfile(&profile); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		rep, err := generator.Generate(r.Context(), profile)
		if err != nil {
			respondFatal(w, err)
			return
		}

		RespondWithJSON(w, http.StatusOK, rep)
	}
}

// checkDrugRequest is the POST /check-drug payload.
type checkDrugRequest struct {
	Profile  report.PatientProfile `json:"profile"`
	DrugName string                `json:"drugName"`
}

// CheckDrug handles POST /check-drug: runs the pipeline for one
// user-supplied drug name. An unknown drug is a 200 report with a
// fetch_error entry, matching the full report's per-drug semantics.
func CheckDrug(validator interfaces.ProfileValidator, generator interfaces.ReportGenerator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkDrugRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondWithError(w, http.StatusBadRequest, "invalid JSON payload")
			return
		}

		if err := validator.ValidateDrugName(req.DrugName); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := validator.ValidateProfile(&req.Profile); err != nil {
			RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		rep, err := generator.CheckDrug(r.Context(), req.Profile, req.DrugName)
		if err != nil {
			respondFatal(w, err)
			return
		}

		RespondWithJSON(w, http.StatusOK, rep)
	}
}

// respondFatal maps fatal pipeline errors to top-level error responses.
// The credential itself never appears in any message.
func respondFatal(w http.ResponseWriter, err error) {
	var authErr *llm.AuthError
	if errors.As(err, &authErr) {
		logging.Error("Report aborted: LLM rejected credentials", "status", authErr.Status)
		RespondWithError(w, http.StatusBadGateway, "analysis service rejected the configured credentials")
		return
	}

	logging.Error("Report generation failed", "error", err)
	RespondWithError(w, http.StatusInternalServerError, "failed to generate report")
}

// HealthCheck handles GET /health
func HealthCheck(checker interfaces.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status, data, httpStatus := checker.HealthCheck()

		body := map[string]any{"status": status}
		for k, v := range data {
			body[k] = v
		}

		RespondWithJSON(w, httpStatus, body)
	}
}
