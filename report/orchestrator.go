package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/medsafe/interactions-api/config"
	"github.com/medsafe/interactions-api/llm"
	"github.com/medsafe/interactions-api/logging"
	"github.com/medsafe/interactions-api/metrics"
	"github.com/medsafe/interactions-api/openfda"
)

// LabelFetcher retrieves one drug's label data.
type LabelFetcher interface {
	FetchLabel(ctx context.Context, drugName string) (openfda.DrugLabel, error)
}

// Orchestrator runs the per-drug pipeline (fetch label, build prompt, call
// the model, normalize) over the configured drug list and aggregates one
// ordered report.
type Orchestrator struct {
	fetcher      LabelFetcher
	completer    llm.Completer
	drugs        []config.Drug
	sectionLimit int
	workers      int
}

// NewOrchestrator creates an orchestrator with injected upstream clients.
func NewOrchestrator(fetcher LabelFetcher, completer llm.Completer, cfg *config.Config) *Orchestrator {
	workers := cfg.ReportWorkers
	if workers > len(cfg.Drugs) {
		workers = len(cfg.Drugs)
	}
	if workers < 1 {
		workers = 1
	}

	return &Orchestrator{
		fetcher:      fetcher,
		completer:    completer,
		drugs:        cfg.Drugs,
		sectionLimit: cfg.PromptSectionLimit,
		workers:      workers,
	}
}

// Generate evaluates every configured drug against the profile. Drugs run
// on a bounded worker pool; results are merged back into configured list
// order. A fatal llm.AuthError cancels pending siblings and aborts the whole
// report with no partial result.
func (o *Orchestrator) Generate(ctx context.Context, profile PatientProfile) (Report, error) {
	start := time.Now()
	defer func() {
		metrics.ReportDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]ConflictAlert, len(o.drugs))
	jobs := make(chan int)

	var (
		wg        sync.WaitGroup
		fatalOnce sync.Once
		fatal     error
	)

	for w := 0; w < o.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				alerts, err := o.evaluateDrug(ctx, profile, o.drugs[i])
				if err != nil {
					fatalOnce.Do(func() {
						fatal = err
						cancel()
					})
					return
				}
				results[i] = alerts
			}
		}()
	}

	for i := range o.drugs {
		select {
		case jobs <- i:
		case <-ctx.Done():
		}
	}
	close(jobs)
	wg.Wait()

	if fatal != nil {
		return Report{}, fatal
	}
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	report := Report{
		Alerts:    make([]ConflictAlert, 0, len(o.drugs)),
		Evaluated: len(o.drugs),
	}
	for _, alerts := range results {
		report.Alerts = append(report.Alerts, alerts...)
	}

	return report, nil
}

// CheckDrug runs the single-drug pipeline for a user-supplied drug name.
func (o *Orchestrator) CheckDrug(ctx context.Context, profile PatientProfile, drugName string) (Report, error) {
	alerts, err := o.evaluateDrug(ctx, profile, config.Drug{Name: drugName, Class: "Custom Search"})
	if err != nil {
		return Report{}, err
	}

	return Report{Alerts: alerts, Evaluated: 1}, nil
}

// evaluateDrug runs one drug through the full pipeline. Recoverable
// failures come back as tagged placeholder alerts; only a fatal AuthError
// (or context cancellation) is returned as an error.
func (o *Orchestrator) evaluateDrug(ctx context.Context, profile PatientProfile, drug config.Drug) ([]ConflictAlert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	label, err := o.fetcher.FetchLabel(ctx, drug.Name)
	if err != nil {
		var fetchErr *openfda.FetchError
		if errors.As(err, &fetchErr) {
			logging.Warn("Drug label fetch failed", "drug", drug.Name, "cause", fetchErr.Cause)
			metrics.DrugOutcomes.WithLabelValues(CategoryFetchError).Inc()
			return []ConflictAlert{{
				Drug:        drug.Name,
				Class:       drug.Class,
				Category:    CategoryFetchError,
				Explanation: "could not fetch drug label data: " + fetchErr.Cause,
				Attribute:   "none",
			}}, nil
		}
		// Cancellation while a sibling aborts the report.
		return nil, err
	}

	prompt := BuildUserPrompt(profile, drug, label, o.sectionLimit)

	raw, err := o.completer.Complete(ctx, SystemPrompt, prompt)
	if err != nil {
		var authErr *llm.AuthError
		if errors.As(err, &authErr) {
			logging.Error("LLM rejected credentials, aborting report", "status", authErr.Status)
			return nil, authErr
		}

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		logging.Warn("LLM generation failed", "drug", drug.Name, "error", err)
		metrics.DrugOutcomes.WithLabelValues(CategoryLLMError).Inc()
		return []ConflictAlert{{
			Drug:        drug.Name,
			Class:       drug.Class,
			GenericName: label.GenericName,
			BrandName:   label.BrandName,
			Category:    CategoryLLMError,
			Explanation: "could not analyze drug: " + err.Error(),
			Attribute:   "none",
		}}, nil
	}

	alerts := Normalize(drug.Name, raw)
	for i := range alerts {
		alerts[i].Class = drug.Class
		alerts[i].GenericName = label.GenericName
		alerts[i].BrandName = label.BrandName
	}

	outcome := "ok"
	if len(alerts) == 1 && alerts[0].Category == CategoryParseError {
		outcome = CategoryParseError
	}
	metrics.DrugOutcomes.WithLabelValues(outcome).Inc()

	return alerts, nil
}
