package report

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// Raw model output kept in a parse_error explanation is cut to this many
// characters so a rambling response stays readable in the report.
const rawExcerptLimit = 240

// rawAlert mirrors the key set the model is asked to produce. Extra keys
// are ignored; "severity" and "finding" are accepted as aliases because
// models occasionally echo schema variants.
type rawAlert struct {
	Drug        string `json:"drug"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Explanation string `json:"explanation"`
	Finding     string `json:"finding"`
	Attribute   string `json:"attribute"`
}

// Normalize parses raw model output into alerts for one drug. It never
// fails: unparseable output becomes a single parse_error placeholder so the
// caller can see the model produced something unusable, and malformed
// elements are dropped individually without sinking the rest.
func Normalize(drugName, raw string) []ConflictAlert {
	payload := extractJSON(raw)

	elements, ok := parseElements(payload)
	if !ok {
		return []ConflictAlert{{
			Drug:        drugName,
			Category:    CategoryParseError,
			Explanation: "model returned unparseable output: " + excerpt(raw),
			Attribute:   "none",
		}}
	}

	alerts := make([]ConflictAlert, 0, len(elements))
	for _, el := range elements {
		category := strings.TrimSpace(el.Category)
		if category == "" {
			category = strings.TrimSpace(el.Severity)
		}
		explanation := strings.TrimSpace(el.Explanation)
		if explanation == "" {
			explanation = strings.TrimSpace(el.Finding)
		}
		attribute := strings.TrimSpace(el.Attribute)

		// Required keys must be present and non-empty; bad elements are
		// discarded individually.
		if category == "" || explanation == "" || attribute == "" {
			continue
		}

		alerts = append(alerts, ConflictAlert{
			// The canonical drug name always wins over whatever the model
			// echoed back.
			Drug:        drugName,
			Category:    canonicalCategory(category),
			Explanation: explanation,
			Attribute:   attribute,
		})
	}

	return alerts
}

// extractJSON locates the outermost JSON array (or, failing that, object)
// inside text the model may have wrapped in prose or code fences.
func extractJSON(raw string) string {
	if start := strings.Index(raw, "["); start != -1 {
		if end := strings.LastIndex(raw, "]"); end > start {
			return raw[start : end+1]
		}
	}
	if start := strings.Index(raw, "{"); start != -1 {
		if end := strings.LastIndex(raw, "}"); end > start {
			return raw[start : end+1]
		}
	}
	return raw
}

func parseElements(payload string) ([]rawAlert, bool) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, false
	}

	// Only accept an actual array or object: bare JSON literals like null
	// or a quoted string would unmarshal cleanly into a nil slice and read
	// as zero conflicts.
	if strings.HasPrefix(trimmed, "[") {
		var list []rawAlert
		if err := json.Unmarshal([]byte(trimmed), &list); err == nil {
			return list, true
		}
	}

	// A single object counts as a one-element array.
	if strings.HasPrefix(trimmed, "{") {
		var single rawAlert
		if err := json.Unmarshal([]byte(trimmed), &single); err == nil {
			return []rawAlert{single}, true
		}
	}

	return nil, false
}

// canonicalCategory lowercases and snake-cases the model's tag so minor
// formatting drift ("Side Effect Match") still lands on a stable value.
func canonicalCategory(category string) string {
	c := strings.ToLower(strings.TrimSpace(category))
	c = strings.ReplaceAll(c, " ", "_")
	c = strings.ReplaceAll(c, "-", "_")
	if strings.HasPrefix(c, "side_effect") {
		return CategorySideEffect
	}
	return c
}

func excerpt(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) <= rawExcerptLimit {
		return trimmed
	}
	cut := rawExcerptLimit
	for cut > 0 && !utf8.RuneStart(trimmed[cut]) {
		cut--
	}
	return trimmed[:cut] + "..."
}
