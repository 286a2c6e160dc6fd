package report

import (
	"strings"
	"unicode/utf8"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/openfda"
)

// SystemPrompt sets the clinical-analysis persona and the exact output
// contract. The response schema is restated here even though the request
// also asks for JSON output, so a model that ignores the mime-type hint
// still gets the instruction in text.
const SystemPrompt = `You are an expert clinical pharmacologist's assistant. Your sole purpose is
to read a patient's profile and cross-reference it with the full text of a
drug's official label sections (contraindications, warnings, boxed warning,
drug interactions).

Be extremely thorough. Find every potential conflict, even minor ones.
Classify each finding with exactly one category:
- "contraindication": a direct do-not-use situation (e.g. a listed allergy or condition).
- "warning": a use-with-caution situation matching the patient's profile.
- "interaction": a conflict with one of the patient's other medications.
- "side_effect": the patient's notes match a known adverse reaction.
- "info": a relevant observation that is not a conflict.

Respond ONLY with a JSON array of objects, each with exactly these keys:
  "drug": the drug being evaluated
  "category": one of the categories above
  "explanation": a concise one-sentence explanation of the finding
  "attribute": the specific patient allergy, medication, or note implicated ("none" if not tied to one)

If there are no conflicts, respond with an empty JSON array: []
Do not add any other text or explanation.`

const truncationMarker = "... [truncated]"

// BuildUserPrompt constructs the per-drug analysis prompt. It is a pure
// function: identical inputs always produce identical text. Each embedded
// section is clamped to sectionLimit characters with a visible marker, so
// nothing is cut silently.
func BuildUserPrompt(profile PatientProfile, drug config.Drug, label openfda.DrugLabel, sectionLimit int) string {
	var b strings.Builder

	b.WriteString("PATIENT PROFILE:\n")
	b.WriteString("- Notes/History: " + orNA(clamp(profile.Notes, sectionLimit)) + "\n")
	b.WriteString("- Allergies: " + orNA(strings.Join(profile.Allergies, ", ")) + "\n")
	b.WriteString("- Other Medications: " + orNA(strings.Join(profile.Medications, ", ")) + "\n")

	b.WriteString("\nDRUG DATA FOR: " + label.GenericName)
	if drug.Class != "" {
		b.WriteString(" (class: " + drug.Class + ")")
	}
	if label.BrandName != "" {
		b.WriteString(" (brand names: " + label.BrandName + ")")
	}
	b.WriteString("\n")

	writeSection(&b, "CONTRAINDICATIONS", label.Contraindications, sectionLimit)
	writeSection(&b, "WARNINGS", label.Warnings, sectionLimit)
	writeSection(&b, "BOXED WARNING", label.BoxedWarning, sectionLimit)
	writeSection(&b, "DRUG INTERACTIONS", label.DrugInteractions, sectionLimit)

	b.WriteString("---\n")
	b.WriteString("ANALYZE and return all conflicts as the JSON array described in your instructions. ")
	b.WriteString("Return [] if no conflicts are found.\n")

	return b.String()
}

func writeSection(b *strings.Builder, title, text string, limit int) {
	b.WriteString("---\n")
	b.WriteString(title + ":\n")
	b.WriteString(orNoData(clamp(text, limit)) + "\n")
}

// clamp cuts s to at most limit bytes on a rune boundary, appending a marker
// when it does. limit <= 0 means unlimited.
func clamp(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func orNoData(s string) string {
	if strings.TrimSpace(s) == "" {
		return "No information listed."
	}
	return s
}
