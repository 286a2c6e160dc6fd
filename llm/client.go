// Package llm provides the Gemini completion client used to cross-reference
// patient profiles against drug label data.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medsafe/interactions-api/metrics"
)

// AuthError is fatal at the request level: the configured credential is
// missing or rejected. The whole report aborts, no partial result is sent.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("llm authentication failed (status %d): %s", e.Status, e.Message)
}

// GenerationError is a recoverable, per-drug failure: the completion call
// failed for transient or service reasons.
type GenerationError struct {
	Cause string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("llm generation failed: %s", e.Cause)
}

// Completer sends a prompt pair to a generative-text service and returns the
// raw text output.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client calls the Gemini generateContent endpoint.
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

var _ Completer = (*Client)(nil)

// NewClient creates a Gemini client. The API key comes from configuration
// and is never logged.
func NewClient(baseURL, model, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateRequest struct {
	SystemInstruction *content         `json:"system_instruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMimeType string  `json:"response_mime_type"`
	Temperature      float64 `json:"temperature"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends the prompt and returns the model's raw text output with no
// parsing. Credential rejections surface as *AuthError, everything else as
// *GenerationError.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	payload := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: user}}},
		},
		GenerationConfig: generationConfig{
			ResponseMimeType: "application/json",
			Temperature:      0.2,
		},
	}
	if system != "" {
		payload.SystemInstruction = &content{Parts: []part{{Text: system}}}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &GenerationError{Cause: err.Error()}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", &GenerationError{Cause: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.LLMRequests.WithLabelValues("transport_error").Inc()
		return "", &GenerationError{Cause: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4*1024*1024))
	if err != nil {
		metrics.LLMRequests.WithLabelValues("transport_error").Inc()
		return "", &GenerationError{Cause: err.Error()}
	}

	var decoded generateResponse
	// Ignore unmarshal errors here: status classification below decides the
	// outcome and the decoded message is only used for context.
	_ = json.Unmarshal(respBody, &decoded)

	if err := classifyStatus(resp.StatusCode, decoded); err != nil {
		if _, ok := err.(*AuthError); ok {
			metrics.LLMRequests.WithLabelValues("auth_error").Inc()
		} else {
			metrics.LLMRequests.WithLabelValues("generation_error").Inc()
		}
		return "", err
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		metrics.LLMRequests.WithLabelValues("empty_response").Inc()
		return "", &GenerationError{Cause: "empty completion response"}
	}

	var text strings.Builder
	for _, p := range decoded.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	metrics.LLMRequests.WithLabelValues("ok").Inc()
	return text.String(), nil
}

func classifyStatus(statusCode int, decoded generateResponse) error {
	if statusCode == http.StatusOK {
		return nil
	}

	message := fmt.Sprintf("upstream status %d", statusCode)
	apiStatus := ""
	if decoded.Error != nil {
		message = decoded.Error.Message
		apiStatus = decoded.Error.Status
	}

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &AuthError{Status: statusCode, Message: message}
	case statusCode == http.StatusBadRequest && isKeyRejection(apiStatus, message):
		// Gemini reports an invalid key as 400 INVALID_ARGUMENT
		return &AuthError{Status: statusCode, Message: message}
	default:
		return &GenerationError{Cause: message}
	}
}

func isKeyRejection(apiStatus, message string) bool {
	lower := strings.ToLower(message)
	return apiStatus == "INVALID_ARGUMENT" && strings.Contains(lower, "api key")
}
