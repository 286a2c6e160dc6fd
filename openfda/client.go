// Package openfda fetches official drug label data from the openFDA
// drug-label API. Labels are fetched fresh for every report; nothing is
// cached between requests.
package openfda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DrugLabel holds the label sections for one drug. Missing sections are
// empty strings, never absent, so downstream code need not null-check.
type DrugLabel struct {
	Name              string // canonical configured name
	GenericName       string
	BrandName         string
	Contraindications string
	Warnings          string
	BoxedWarning      string
	DrugInteractions  string
}

// FetchError is a recoverable, per-drug failure: the upstream service was
// unreachable, answered non-200, or had no usable record for the drug.
type FetchError struct {
	Drug  string
	Cause string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch label for %s: %s", e.Drug, e.Cause)
}

// Client queries the openFDA drug-label endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an openFDA client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// labelRecord mirrors the subset of the openFDA label document we read.
// Label sections arrive as arrays of paragraphs.
type labelRecord struct {
	Contraindications []string `json:"contraindications"`
	Warnings          []string `json:"warnings"`
	BoxedWarning      []string `json:"boxed_warning"`
	DrugInteractions  []string `json:"drug_interactions"`
	OpenFDA           struct {
		BrandName   []string `json:"brand_name"`
		GenericName []string `json:"generic_name"`
	} `json:"openfda"`
}

type labelResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Results []labelRecord `json:"results"`
}

// FetchLabel retrieves the most relevant label record for the drug name.
// All failures are reported as *FetchError so the caller can treat them as
// a per-drug condition rather than an abort.
func (c *Client) FetchLabel(ctx context.Context, drugName string) (DrugLabel, error) {
	if strings.TrimSpace(drugName) == "" {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: "empty drug name"}
	}

	upper := strings.ToUpper(drugName)
	query := url.Values{}
	query.Set("search", fmt.Sprintf(`(openfda.generic_name.exact:"%s" OR openfda.brand_name.exact:"%s")`, upper, upper))
	query.Set("limit", "1")

	endpoint := c.baseURL + "/drug/label.json?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: err.Error()}
	}
	defer resp.Body.Close()

	// openFDA answers 404 with an error body when the search matches
	// nothing; treat it like any other miss.
	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: err.Error()}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: fmt.Sprintf("upstream status %d", resp.StatusCode)}
	}

	// Some label feeds still carry ISO8859-1 text; decode before parsing.
	if !utf8.Valid(body) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(body)
		if decErr != nil {
			return DrugLabel{}, &FetchError{Drug: drugName, Cause: "undecodable response body"}
		}
		body = decoded
	}

	var parsed labelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: "invalid JSON from upstream"}
	}

	if parsed.Error != nil || len(parsed.Results) == 0 {
		return DrugLabel{}, &FetchError{Drug: drugName, Cause: "no label record found"}
	}

	record := parsed.Results[0]

	label := DrugLabel{
		Name:              drugName,
		GenericName:       joinNames(record.OpenFDA.GenericName, drugName),
		BrandName:         joinNames(record.OpenFDA.BrandName, ""),
		Contraindications: joinSection(record.Contraindications),
		Warnings:          joinSection(record.Warnings),
		BoxedWarning:      joinSection(record.BoxedWarning),
		DrugInteractions:  joinSection(record.DrugInteractions),
	}

	return label, nil
}

// joinSection flattens a label section into one string; empty sections stay "".
func joinSection(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}

func joinNames(names []string, fallback string) string {
	joined := strings.TrimSpace(strings.Join(names, ", "))
	if joined == "" {
		return fallback
	}
	return joined
}
