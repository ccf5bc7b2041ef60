package cron

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/wattfinder/wattfinder/internal/alerting"
	"github.com/wattfinder/wattfinder/internal/config"
	"github.com/wattfinder/wattfinder/internal/importer"
	"github.com/wattfinder/wattfinder/internal/metrics"
	"github.com/wattfinder/wattfinder/internal/storage"
)

// Run starts a cron worker that periodically re-imports plans from all
// registered sources. It requires the postgrespool backend: PostgreSQL
// advisory locks ensure only one worker executes the job in a
// multi-instance deployment.
func Run(ctx context.Context, cfg config.Config) error {
	driver, dsn := cfg.StorageDriver, cfg.StorageDSN
	if driver == "" {
		driver = "postgrespool"
	}
	if driver != "postgrespool" {
		return fmt.Errorf("cron worker requires WATTFINDER_STORAGE_DRIVER=postgrespool (got %q)", driver)
	}

	stGeneric, err := storage.Open(ctx, storage.Config{
		Driver:    driver,
		DSN:       dsn,
		Providers: importer.ProviderSeed(),
	})
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer stGeneric.Close()

	pg, ok := stGeneric.(*storage.PostgresPoolStorage)
	if !ok {
		return fmt.Errorf("storage driver %q is not PostgresPoolStorage", driver)
	}

	im := importer.New(stGeneric, alerting.NewAlerter(alerting.DefaultAlertConfig()))

	// Interval from config, overridable at runtime through the settings
	// table. The setting accepts integer seconds or a cron expression.
	intervalSetting := defaultIntervalSetting(cfg)
	if val, err := stGeneric.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" {
		intervalSetting = val
	}

	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	// If starting fresh, run immediately, then schedule next
	nextRun := time.Now()

	jobName := "import_plans"
	const lockKey int64 = 42

	log.Printf("cron worker starting, initial setting=%q driver=%s", intervalSetting, driver)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			stat := pg.Pool().Stat()
			metrics.UpdateDBPoolMetrics(driver, float64(stat.TotalConns()), float64(stat.IdleConns()),
				float64(stat.AcquiredConns()), uint64(stat.AcquireCount()))

			if val, err := stGeneric.GetSetting(ctx, "refresh_interval_seconds"); err == nil && val != "" {
				if val != intervalSetting {
					log.Printf("cron: interval updated from %q to %q", intervalSetting, val)
					intervalSetting = val
					nextRun = nextRunAfter(intervalSetting, time.Now())
				}
			}

			if time.Now().Before(nextRun) {
				continue
			}

			started := time.Now()

			ok, err := pg.AcquireAdvisoryLock(ctx, lockKey)
			if err != nil {
				log.Printf("cron: acquire advisory lock failed: %v", err)
				metrics.UpdateJobMetrics(jobName, started, err)
				nextRun = nextRunAfter(intervalSetting, time.Now())
				continue
			}
			if !ok {
				log.Printf("cron: advisory lock held by another worker, skipping run")
				nextRun = nextRunAfter(intervalSetting, time.Now())
				continue
			}

			// We hold the lock for the duration of the job.
			var runErr error
			func() {
				defer func() {
					if _, err := pg.ReleaseAdvisoryLock(ctx, lockKey); err != nil {
						log.Printf("cron: release advisory lock failed: %v", err)
					}
				}()

				runErr = im.RunBatch(ctx, uuid.New().String())
			}()

			metrics.UpdateJobMetrics(jobName, started, runErr)
			dur := time.Since(started)
			errMsg := ""
			success := runErr == nil
			if runErr != nil {
				errMsg = runErr.Error()
			}
			if err := pg.UpdateScheduledJob(ctx, jobName, started, dur, success, errMsg); err != nil {
				log.Printf("cron: update scheduled_jobs failed: %v", err)
			}

			if runErr != nil {
				log.Printf("cron: job %s completed with error: %v (duration=%s)", jobName, runErr, dur)
			} else {
				log.Printf("cron: job %s completed successfully (duration=%s)", jobName, dur)
			}

			nextRun = nextRunAfter(intervalSetting, time.Now())
		}
	}
}

// defaultIntervalSetting renders the configured refresh interval in the
// integer-seconds form the settings table uses.
func defaultIntervalSetting(cfg config.Config) string {
	iv := cfg.RefreshInterval
	if iv <= 0 {
		iv = 24 * time.Hour
	}
	return strconv.FormatInt(int64(iv/time.Second), 10)
}

// nextRunAfter computes the next run time from an interval setting, which is
// either an integer number of seconds or a standard cron expression.
func nextRunAfter(setting string, lastRun time.Time) time.Time {
	if v, err := strconv.Atoi(setting); err == nil && v > 0 {
		return lastRun.Add(time.Duration(v) * time.Second)
	}
	if sched, err := cron.ParseStandard(setting); err == nil {
		return sched.Next(lastRun)
	}
	return lastRun.Add(24 * time.Hour)
}
