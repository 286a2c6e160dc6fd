// Package interfaces defines the contracts between the HTTP layer and the
// report pipeline, so handlers can be tested against mocks.
package interfaces

import (
	"context"

	"github.com/medsafe/interactions-api/report"
)

// ReportGenerator produces conflict reports for a patient profile.
type ReportGenerator interface {
	// Generate evaluates the full configured drug list.
	Generate(ctx context.Context, profile report.PatientProfile) (report.Report, error)
	// CheckDrug evaluates a single user-supplied drug name.
	CheckDrug(ctx context.Context, profile report.PatientProfile, drugName string) (report.Report, error)
}

// ProfileValidator screens inbound payloads before any upstream call is made.
type ProfileValidator interface {
	ValidateProfile(profile *report.PatientProfile) error
	ValidateDrugName(name string) error
}

// HealthChecker reports service readiness for the /health endpoint.
type HealthChecker interface {
	HealthCheck() (status string, data map[string]any, httpStatus int)
}

// Compile-time check that the orchestrator satisfies ReportGenerator.
var _ ReportGenerator = (*report.Orchestrator)(nil)
