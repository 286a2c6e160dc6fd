// Package validation screens inbound request payloads for the interactions
// API. Validation failures are request-level and resolve to a 4xx before any
// upstream call is made.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/medsafe/interactions-api/interfaces"
	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/report"
)

const (
	maxNotesLength    = 10000
	maxListEntries    = 50
	maxEntryLength    = 200
	maxDrugNameLength = 100
)

// Pre-compiled regex patterns, compiled once at package initialization.
var (
	// Drug names: letters, digits and the punctuation that appears in
	// real medication names.
	drugNameRegex = regexp.MustCompile(`^[a-zA-Z0-9\s\-\.\+'/]+$`)
)

// Dangerous patterns as plain substrings; strings.Contains is much faster
// than regex for these.
var dangerousPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
	"onclick=", "eval(", "expression(",
	"union select", "drop table", "delete from", "insert into",
	"../", "..\\", "%2e%2e", "file://",
	"{$ne:", "{$gt:", "{$where:", "{$regex:",
}

// ProfileValidatorImpl implements the interfaces.ProfileValidator interface
type ProfileValidatorImpl struct{}

// NewProfileValidator creates a new profile validator
func NewProfileValidator() interfaces.ProfileValidator {
	return &ProfileValidatorImpl{}
}

var _ interfaces.ProfileValidator = (*ProfileValidatorImpl)(nil)

// ValidateProfile checks that the inbound patient profile is usable: not
// nil, not entirely empty, within size limits, and free of injection
// payloads.
func (v *ProfileValidatorImpl) ValidateProfile(profile *report.PatientProfile) error {
	if profile == nil {
		return fmt.Errorf("no patient profile provided")
	}

	if strings.TrimSpace(profile.Notes) == "" &&
		len(profile.Allergies) == 0 &&
		len(profile.Medications) == 0 {
		return fmt.Errorf("patient profile is empty: provide notes, allergies or medications")
	}

	if len(profile.Notes) > maxNotesLength {
		return fmt.Errorf("notes exceed maximum length of %d characters", maxNotesLength)
	}
	if err := checkDangerous(profile.Notes, "notes"); err != nil {
		return err
	}

	if err := validateList(profile.Allergies, "allergies"); err != nil {
		return err
	}
	if err := validateList(profile.Medications, "medications"); err != nil {
		return err
	}

	return nil
}

// ValidateDrugName checks a user-supplied drug name for the /check-drug
// endpoint. The configured drug list never passes through here.
func (v *ProfileValidatorImpl) ValidateDrugName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("drugName is required")
	}

	if len(trimmed) > maxDrugNameLength {
		return fmt.Errorf("drugName exceeds maximum length of %d characters", maxDrugNameLength)
	}

	if !drugNameRegex.MatchString(trimmed) {
		logging.Warn("Rejected drug name with unexpected characters", "length", len(trimmed))
		return fmt.Errorf("drugName contains invalid characters")
	}

	return nil
}

func validateList(entries []string, field string) error {
	if len(entries) > maxListEntries {
		return fmt.Errorf("%s list exceeds maximum of %d entries", field, maxListEntries)
	}

	for _, entry := range entries {
		if len(entry) > maxEntryLength {
			return fmt.Errorf("%s entry exceeds maximum length of %d characters", field, maxEntryLength)
		}
		if err := checkDangerous(entry, field); err != nil {
			return err
		}
	}

	return nil
}

func checkDangerous(value, field string) error {
	lower := strings.ToLower(value)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lower, pattern) {
			logging.Warn("Rejected input containing dangerous pattern", "field", field)
			return fmt.Errorf("%s contains disallowed content", field)
		}
	}
	return nil
}
