package importer

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wattfinder/wattfinder/internal/alerting"
	"github.com/wattfinder/wattfinder/internal/metrics"
	"github.com/wattfinder/wattfinder/internal/storage"
	"github.com/wattfinder/wattfinder/pkg/sources"
)

const maxAttempts = 3

// Importer pulls plan listings from registered sources and reconciles them
// into storage.
type Importer struct {
	store   storage.Storage
	alerter *alerting.Alerter
}

func New(store storage.Storage, alerter *alerting.Alerter) *Importer {
	return &Importer{store: store, alerter: alerter}
}

// ProviderSeed derives provider directory rows from the registered sources,
// for seeding storage on open.
func ProviderSeed() []storage.ProviderInfo {
	var out []storage.ProviderInfo
	for _, src := range sources.GetAll() {
		out = append(out, storage.ProviderInfo{
			Key:        src.Key(),
			Name:       src.Name(),
			LandingURL: src.LandingURL(),
		})
	}
	return out
}

// RunSource imports one source: fetch listings, upsert plans and coverage,
// and deactivate plans the source no longer lists. Every run is recorded in
// import_runs. Returns the number of plans imported.
func (im *Importer) RunSource(ctx context.Context, src sources.Source) (int, error) {
	runID, err := im.store.CreateImportRun(ctx, storage.ImportRun{
		Source:    src.Key(),
		Status:    "running",
		StartedAt: time.Now(),
	})
	if err != nil {
		return 0, fmt.Errorf("record import run: %w", err)
	}

	count, err := im.importSource(ctx, src)
	if err != nil {
		metrics.ImportFailuresTotal.WithLabelValues(src.Key()).Inc()
		if cerr := im.store.CompleteImportRun(ctx, runID, "failed", count, err.Error()); cerr != nil {
			log.Printf("importer: complete import run: %v", cerr)
		}
		return count, err
	}

	metrics.ImportPlansTotal.WithLabelValues(src.Key()).Add(float64(count))
	if cerr := im.store.CompleteImportRun(ctx, runID, "succeeded", count, ""); cerr != nil {
		log.Printf("importer: complete import run: %v", cerr)
	}
	return count, nil
}

func (im *Importer) importSource(ctx context.Context, src sources.Source) (int, error) {
	listings, err := src.Fetch(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", src.Key(), err)
	}

	current := make(map[string]struct{}, len(listings))
	for i := range listings {
		l := &listings[i]

		// Some sources publish listings without disclosure rates; the plan's
		// Electricity Facts Label is the authoritative fallback.
		if needsEFLRates(*l) {
			if err := enrichFromEFL(l, src.LandingURL()); err != nil {
				log.Printf("importer: efl enrichment for %s: %v", l.ID, err)
			}
			if needsEFLRates(*l) {
				log.Printf("importer: skipping %s: no disclosure rates", l.ID)
				continue
			}
		}

		plan := storage.Plan{
			ID:         l.ID,
			Provider:   l.Provider,
			Name:       l.Name,
			TermMonths: l.TermMonths,
			Rate500:    l.Rate500,
			Rate1000:   l.Rate1000,
			Rate2000:   l.Rate2000,
			EFLURL:     l.EFLURL,
			IsActive:   true,
		}
		if err := im.store.UpsertPlan(ctx, plan); err != nil {
			return 0, fmt.Errorf("upsert plan %s: %w", l.ID, err)
		}
		if len(l.Zips) > 0 {
			if err := im.store.ReplaceCoverage(ctx, l.ID, l.Zips); err != nil {
				return 0, fmt.Errorf("replace coverage for %s: %w", l.ID, err)
			}
		}
		current[l.ID] = struct{}{}
	}

	// Plans this source previously imported but no longer lists go inactive.
	existing, err := im.store.ListPlans(ctx, false)
	if err != nil {
		return len(current), fmt.Errorf("list plans: %w", err)
	}
	prefix := src.Key() + "-"
	for _, p := range existing {
		if !strings.HasPrefix(p.ID, prefix) {
			continue
		}
		if _, still := current[p.ID]; still || !p.IsActive {
			continue
		}
		p.IsActive = false
		if err := im.store.UpsertPlan(ctx, p); err != nil {
			return len(current), fmt.Errorf("deactivate plan %s: %w", p.ID, err)
		}
	}

	return len(current), nil
}

// RunBatch imports every registered source under a shared batch ID, retrying
// failed sources up to maxAttempts and alerting on whatever still failed.
func (im *Importer) RunBatch(ctx context.Context, batchID string) error {
	started := time.Now()
	all := sources.GetAll()

	for _, src := range all {
		if err := im.store.SaveBatchProgress(ctx, storage.BatchProgress{
			BatchID: batchID,
			Source:  src.Key(),
			Status:  "pending",
		}); err != nil {
			return fmt.Errorf("init batch progress: %w", err)
		}
	}

	var failures []alerting.SourceFailure
	succeeded := 0

	for _, src := range all {
		var lastErr error
		attempts := 0
		for attempts < maxAttempts {
			attempts++
			im.saveProgress(ctx, batchID, src.Key(), "running", attempts)

			if _, lastErr = im.RunSource(ctx, src); lastErr == nil {
				break
			}
			log.Printf("importer: source %s attempt %d failed: %v", src.Key(), attempts, lastErr)
		}

		if lastErr != nil {
			im.saveProgress(ctx, batchID, src.Key(), "failed", attempts)
			failures = append(failures, alerting.SourceFailure{
				Source:   src.Key(),
				Error:    lastErr.Error(),
				Attempts: attempts,
			})
			continue
		}
		im.saveProgress(ctx, batchID, src.Key(), "done", attempts)
		succeeded++
	}

	if im.alerter != nil {
		alert := alerting.ImportAlert{
			JobName:       "import_plans",
			TotalCount:    len(all),
			SuccessCount:  succeeded,
			FailedCount:   len(failures),
			Duration:      time.Since(started),
			FailedDetails: failures,
			Timestamp:     time.Now(),
		}
		if err := im.alerter.SendImportAlert(ctx, alert); err != nil {
			log.Printf("importer: send alert: %v", err)
		}
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d sources failed", len(failures), len(all))
	}
	return nil
}

func (im *Importer) saveProgress(ctx context.Context, batchID, source, status string, attempts int) {
	if err := im.store.SaveBatchProgress(ctx, storage.BatchProgress{
		BatchID:  batchID,
		Source:   source,
		Status:   status,
		Attempts: attempts,
	}); err != nil {
		log.Printf("importer: save batch progress: %v", err)
	}
}
