package scraper

import (
	"context"
	"time"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

// Reaper marks running jobs that have outlived the stale threshold as
// timed out, the backstop for jobs whose orchestrator instance crashed
// or lost its in-memory cancel handle, spec.md §4.9. Driven off a
// time.Ticker in the same select{ case <-ctx.Done(): ...; case
// <-ticker.C: ... } shape as worker.Worker.Start.
type Reaper struct {
	store     *store.Store
	threshold time.Duration
	interval  time.Duration
	notifier  FailureNotifier
}

func NewReaper(st *store.Store, threshold, interval time.Duration, notifier FailureNotifier) *Reaper {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	return &Reaper{store: st, threshold: threshold, interval: interval, notifier: notifier}
}

// Run sweeps stale jobs on every tick until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reaper) sweep(ctx context.Context) {
	stale, err := r.store.ListStaleRunningJobs(ctx, r.threshold)
	if err != nil {
		return
	}
	now := time.Now()
	for i := range stale {
		job := &stale[i]
		job.Status = domain.ScrapeTimedOut
		job.FinishedAt = &now
		job.ErrorMessage = "reaped: exceeded stale-job threshold with no status update"
		_ = r.store.UpdateScrapeJob(ctx, job)
		if r.notifier != nil {
			r.notifier.NotifyScrapeFailure(ctx, job.VendorSourceID, job.ID, job.ErrorMessage)
		}
	}
}
