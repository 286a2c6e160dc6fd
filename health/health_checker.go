// Package health provides health checking for the interactions API.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	cfg       *config.Config
	startTime time.Time
}

// NewHealthChecker creates a health checker over the loaded configuration.
func NewHealthChecker(cfg *config.Config) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		cfg:       cfg,
		startTime: time.Now(),
	}
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// HealthCheck reports readiness for the /health endpoint. The service holds
// no data between requests, so health is a function of configuration: a
// missing LLM credential means every report would abort, which is degraded
// service. Only the presence of the key is reported, never its value.
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	keyConfigured := h.cfg.GeminiAPIKey != ""

	if keyConfigured {
		status = "healthy"
		httpStatus = http.StatusOK
	} else {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	uptime := time.Since(h.startTime)

	data = map[string]any{
		"uptime_seconds":   math.Round(uptime.Seconds()*10) / 10,
		"configured_drugs": len(h.cfg.Drugs),
		"llm_model":        h.cfg.GeminiModel,
		"llm_key_present":  keyConfigured,
	}

	return status, data, httpStatus
}
