package scraper

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/floorworks/commerce/internal/domain"
	"github.com/floorworks/commerce/internal/store"
)

// Orchestrator runs vendor catalog scrapes across the two named pools,
// enforcing invariant 7 (at most one running job per VendorSource) via
// the store's conditional insert rather than an in-process lock, so the
// same guarantee holds even if two orchestrator instances ever run side
// by side.
type Orchestrator struct {
	store      *store.Store
	registry   *Registry
	catalog    *Pool
	enrichment *Pool
	timeout    time.Duration
	log        zerolog.Logger
	notifier   FailureNotifier

	mu      sync.Mutex
	cancels map[uuid.UUID]context.CancelFunc
}

// FailureNotifier dispatches the failure email spec.md §4.9 requires
// when a job times out or is reaped. Satisfied by internal/jobs.Queue.
type FailureNotifier interface {
	NotifyScrapeFailure(ctx context.Context, sourceID uuid.UUID, jobID uuid.UUID, reason string)
}

// SetNotifier wires the failure-email dispatcher in after construction,
// since cmd/server builds the jobs queue and the orchestrator in either
// order depending on what else depends on each.
func (o *Orchestrator) SetNotifier(n FailureNotifier) { o.notifier = n }

// Config holds the orchestrator's pool sizes and default wall-clock
// timeout, sourced from config.ScraperConfig.
type Config struct {
	CatalogPoolSize    int
	EnrichmentPoolSize int
	DefaultTimeout     time.Duration
}

func New(st *store.Store, reg *Registry, cfg Config, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store:      st,
		registry:   reg,
		catalog:    NewPool("catalog", cfg.CatalogPoolSize),
		enrichment: NewPool("enrichment", cfg.EnrichmentPoolSize),
		timeout:    cfg.DefaultTimeout,
		log:        log.With().Str("component", "scraper.orchestrator").Logger(),
		cancels:    make(map[uuid.UUID]context.CancelFunc),
	}
}

// TriggerResult reports what Trigger actually did, spec.md §8 scenario
// 6's {skipped, reason, existing_job_id} shape.
type TriggerResult struct {
	Job            *domain.ScrapeJob
	Skipped        bool
	Reason         string
	ExistingJobID  uuid.UUID
}

// Trigger starts a scrape run for source unless one is already running,
// in which case it reports the existing job instead of queuing a
// second one. The run itself happens asynchronously on the catalog
// pool; Trigger returns once the job row is claimed and the run is
// handed to the pool, and when the catalog pool is full it blocks until
// a slot frees.
func (o *Orchestrator) Trigger(ctx context.Context, source *domain.VendorSource) (*TriggerResult, error) {
	job, existingID, ok, err := o.store.TryInsertRunningJob(ctx, source.ID)
	if err != nil {
		return nil, domain.Internal(err, "scraper.Trigger", "failed to claim scrape job")
	}
	if !ok {
		return &TriggerResult{Skipped: true, Reason: "already_running", ExistingJobID: existingID}, nil
	}

	timeout := o.timeout
	if source.Timeout > 0 {
		timeout = source.Timeout
	}

	runCtx, cancel := context.WithTimeout(context.Background(), timeout)
	o.mu.Lock()
	o.cancels[job.ID] = cancel
	o.mu.Unlock()

	o.catalog.Go(func() {
		o.run(runCtx, cancel, job, source)
	})

	return &TriggerResult{Job: job}, nil
}

// Stop cancels a running job's context, the abort-signal path spec.md
// §4.9 names; the in-flight Scraper.Run observes ctx.Done() and returns.
func (o *Orchestrator) Stop(ctx context.Context, jobID uuid.UUID, staffID uuid.UUID) error {
	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if !ok {
		return domain.Invalid("scraper.Stop", "job is not currently running on this instance")
	}
	cancel()

	job, err := o.store.GetScrapeJobForUpdate(ctx, jobID)
	if err != nil {
		return err
	}
	job.Status = domain.ScrapeCancelled
	now := time.Now()
	job.FinishedAt = &now
	job.CancelledBy = &staffID
	return o.store.UpdateScrapeJob(ctx, job)
}

func (o *Orchestrator) run(ctx context.Context, cancel context.CancelFunc, job *domain.ScrapeJob, source *domain.VendorSource) {
	defer cancel()
	defer func() {
		o.mu.Lock()
		delete(o.cancels, job.ID)
		o.mu.Unlock()
	}()

	log := o.log.With().Str("vendor_source_id", source.ID.String()).Str("job_id", job.ID.String()).Logger()

	s, ok := o.registry.Lookup(source.ScraperKey)
	if !ok {
		o.finish(job, source, domain.ScrapeFailed, "no scraper registered for key "+source.ScraperKey, Stats{})
		return
	}

	handle := newJobHandle(source.VendorID, o.store.UpsertScrapedSKU)

	// Run crosses phases by calling handle.EnterEnrichment() once catalog
	// discovery is done, but the whole run stays on the catalog pool. The
	// enrichment pool is constructed but runs no work and limits nothing.
	_ = o.enrichment

	stats, err := s.Run(ctx, handle)

	status := domain.ScrapeSucceeded
	errMsg := ""
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			status = domain.ScrapeTimedOut
			errMsg = "scrape exceeded its wall-clock timeout"
		} else if ctx.Err() == context.Canceled {
			status = domain.ScrapeCancelled
			errMsg = "scrape was cancelled"
		} else {
			status = domain.ScrapeFailed
			errMsg = err.Error()
		}
		log.Error().Err(err).Str("status", string(status)).Msg("scrape run ended with error")
	}

	o.finish(job, source, status, errMsg, stats)
}

func (o *Orchestrator) finish(job *domain.ScrapeJob, source *domain.VendorSource, status domain.ScrapeJobStatus, errMsg string, stats Stats) {
	ctx := context.Background()

	now := time.Now()
	job.Status = status
	job.FinishedAt = &now
	job.ErrorMessage = errMsg
	job.ProductsFound = stats.ProductsFound
	job.ProductsUpdated = stats.ProductsUpdated
	job.ProductsFailed = stats.ProductsFailed

	if err := o.store.UpdateScrapeJob(ctx, job); err != nil {
		o.log.Error().Err(err).Str("job_id", job.ID.String()).Msg("failed to persist finished scrape job")
	}
	if err := o.store.TouchVendorSourceRun(ctx, source.ID, status == domain.ScrapeSucceeded); err != nil {
		o.log.Error().Err(err).Str("vendor_source_id", source.ID.String()).Msg("failed to stamp vendor source run")
	}

	if (status == domain.ScrapeFailed || status == domain.ScrapeTimedOut) && o.notifier != nil {
		o.notifier.NotifyScrapeFailure(ctx, source.ID, job.ID, errMsg)
	}
}
