package report

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/openfda"
)

func sampleDrug() config.Drug {
	return config.Drug{Name: "Lisinopril", Class: "ACE Inhibitor"}
}

func sampleLabel() openfda.DrugLabel {
	return openfda.DrugLabel{
		Name:              "Lisinopril",
		GenericName:       "LISINOPRIL",
		BrandName:         "Zestril",
		Contraindications: "History of angioedema.",
		Warnings:          "May cause hyperkalemia.",
		DrugInteractions:  "Potassium supplements increase risk.",
	}
}

func sampleProfile() PatientProfile {
	return PatientProfile{
		Notes:       "Patient reports dizziness.",
		Allergies:   []string{"penicillin"},
		Medications: []string{"spironolactone"},
	}
}

func TestBuildUserPromptDeterministic(t *testing.T) {
	a := BuildUserPrompt(sampleProfile(), sampleDrug(), sampleLabel(), 6000)
	b := BuildUserPrompt(sampleProfile(), sampleDrug(), sampleLabel(), 6000)

	if a != b {
		t.Error("Expected identical inputs to produce identical prompts")
	}
}

func TestBuildUserPromptEmbedsProfileAndLabel(t *testing.T) {
	prompt := BuildUserPrompt(sampleProfile(), sampleDrug(), sampleLabel(), 6000)

	for _, want := range []string{
		"Patient reports dizziness.",
		"penicillin",
		"spironolactone",
		"LISINOPRIL",
		"ACE Inhibitor",
		"Zestril",
		"History of angioedema.",
		"May cause hyperkalemia.",
		"Potassium supplements increase risk.",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}

	if !strings.Contains(prompt, "[]") {
		t.Error("Expected prompt to state that an empty array is the no-conflict answer")
	}
}

func TestBuildUserPromptEmptyFields(t *testing.T) {
	drug := config.Drug{Name: "Lisinopril"}
	prompt := BuildUserPrompt(PatientProfile{}, drug, openfda.DrugLabel{GenericName: "LISINOPRIL"}, 6000)

	if !strings.Contains(prompt, "N/A") {
		t.Error("Expected empty profile fields to render as N/A")
	}
	if !strings.Contains(prompt, "No information listed.") {
		t.Error("Expected empty label sections to render as no-data markers")
	}
	if strings.Contains(prompt, "class:") {
		t.Error("Expected class annotation to be omitted when no class is set")
	}
}

func TestBuildUserPromptTruncation(t *testing.T) {
	long := strings.Repeat("x", 2000)
	profile := PatientProfile{Notes: long}
	label := openfda.DrugLabel{GenericName: "LISINOPRIL", Warnings: long}

	prompt := BuildUserPrompt(profile, sampleDrug(), label, 500)

	if strings.Contains(prompt, long) {
		t.Error("Expected long sections to be clamped")
	}
	if strings.Count(prompt, truncationMarker) != 2 {
		t.Errorf("Expected two visible truncation markers, got %d", strings.Count(prompt, truncationMarker))
	}
}

func TestBuildUserPromptTruncationKeepsRunesIntact(t *testing.T) {
	// Two-byte runes with an odd byte limit force a cut inside a rune
	notes := strings.Repeat("é", 600)
	prompt := BuildUserPrompt(PatientProfile{Notes: notes}, sampleDrug(), sampleLabel(), 501)

	if !utf8.ValidString(prompt) {
		t.Error("Expected clamped prompt to remain valid UTF-8")
	}
	if !strings.Contains(prompt, truncationMarker) {
		t.Error("Expected truncation marker on the clamped notes")
	}
}

func TestBuildUserPromptUnlimitedWhenZero(t *testing.T) {
	long := strings.Repeat("y", 20000)
	prompt := BuildUserPrompt(PatientProfile{Notes: long}, sampleDrug(), sampleLabel(), 0)

	if !strings.Contains(prompt, long) {
		t.Error("Expected limit 0 to mean unlimited")
	}
}

func TestSystemPromptContract(t *testing.T) {
	for _, want := range []string{
		"pharmacologist",
		`"drug"`,
		`"category"`,
		`"explanation"`,
		`"attribute"`,
		"empty JSON array",
	} {
		if !strings.Contains(SystemPrompt, want) {
			t.Errorf("Expected system prompt to contain %q", want)
		}
	}
}
