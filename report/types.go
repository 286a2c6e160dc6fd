// Package report contains the conflict-report pipeline: prompt building,
// response normalization, and the per-drug orchestration loop.
package report

// PatientProfile is the caller-supplied profile. It is immutable for the
// duration of one report generation and carries no identity beyond the
// single request.
type PatientProfile struct {
	Notes       string   `json:"notes"`
	Allergies   []string `json:"allergies"`
	Medications []string `json:"medications"`
}

// ConflictAlert is one flagged interaction between a patient attribute and
// a drug's label data. Alerts are produced by the normalizer; the only
// hand-constructed ones are the tagged error placeholders. The class and
// label names are stamped on by the orchestrator, never by the model.
type ConflictAlert struct {
	Drug        string `json:"drug"`
	Class       string `json:"drugClass,omitempty"`
	GenericName string `json:"genericName,omitempty"`
	BrandName   string `json:"brandName,omitempty"`
	Category    string `json:"category"`
	Explanation string `json:"explanation"`
	Attribute   string `json:"attribute"`
}

// Report is the aggregated outcome for every configured drug, in configured
// drug-list order. It is assembled once and never mutated after return.
type Report struct {
	Alerts    []ConflictAlert `json:"report"`
	Evaluated int             `json:"evaluated"`
}

// Alert categories the model is instructed to use, plus the system-generated
// error categories. Every recoverable failure becomes a visible entry with
// one of the error categories; nothing is silently dropped.
const (
	CategoryContraindication = "contraindication"
	CategoryWarning          = "warning"
	CategoryInteraction      = "interaction"
	CategorySideEffect       = "side_effect"
	CategoryInfo             = "info"

	CategoryFetchError = "fetch_error"
	CategoryLLMError   = "llm_error"
	CategoryParseError = "parse_error"
)
