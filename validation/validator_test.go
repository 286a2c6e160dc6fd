package validation

import (
	"strings"
	"testing"

	"github.com/medsafe/interactions-api/report"
)

func TestValidateProfileValid(t *testing.T) {
	v := NewProfileValidator()

	tests := []struct {
		name    string
		profile report.PatientProfile
	}{
		{
			name: "full profile",
			profile: report.PatientProfile{
				Notes:       "Type 2 diabetes, occasional dizziness.",
				Allergies:   []string{"penicillin"},
				Medications: []string{"metformin", "aspirin"},
			},
		},
		{
			name:    "allergies only",
			profile: report.PatientProfile{Allergies: []string{"sulfa"}},
		},
		{
			name:    "notes only",
			profile: report.PatientProfile{Notes: "No known conditions."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateProfile(&tt.profile); err != nil {
				t.Errorf("Expected valid profile, got %v", err)
			}
		})
	}
}

func TestValidateProfileInvalid(t *testing.T) {
	v := NewProfileValidator()

	tests := []struct {
		name    string
		profile *report.PatientProfile
	}{
		{"nil profile", nil},
		{"empty profile", &report.PatientProfile{}},
		{"whitespace notes only", &report.PatientProfile{Notes: "   "}},
		{"oversized notes", &report.PatientProfile{Notes: strings.Repeat("a", 10001)}},
		{"script in notes", &report.PatientProfile{Notes: "<script>alert(1)</script>"}},
		{"sql in allergy", &report.PatientProfile{Allergies: []string{"x'; drop table patients"}}},
		{"oversized entry", &report.PatientProfile{Medications: []string{strings.Repeat("b", 201)}}},
		{"too many entries", &report.PatientProfile{Allergies: make([]string, 51)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := v.ValidateProfile(tt.profile); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestValidateDrugName(t *testing.T) {
	v := NewProfileValidator()

	valid := []string{"Lisinopril", "co-trimoxazole", "Vitamin B12", "st. john's wort"}
	for _, name := range valid {
		if err := v.ValidateDrugName(name); err != nil {
			t.Errorf("Expected %q to be valid, got %v", name, err)
		}
	}

	invalid := []string{"", "   ", strings.Repeat("x", 101), "drug<script>", "name;rm -rf"}
	for _, name := range invalid {
		if err := v.ValidateDrugName(name); err == nil {
			t.Errorf("Expected %q to be rejected", name)
		}
	}
}
