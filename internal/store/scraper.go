package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
)

// TryInsertRunningJob enforces invariant 7 (at most one running
// ScrapeJob per VendorSource) with a conditional insert instead of an
// advisory lock, per spec.md §4.1's note that "the repository uses the
// latter". The WHERE NOT EXISTS clause and the insert run atomically in
// one statement, so two concurrent triggers race on the same row lock
// Postgres takes internally for the subquery; exactly one insert wins.
// ok is false when a running job already exists.
func (s *Store) TryInsertRunningJob(ctx context.Context, sourceID uuid.UUID) (job *domain.ScrapeJob, existingID uuid.UUID, ok bool, err error) {
	id := uuid.New()
	row := s.q(ctx).QueryRow(ctx, `
		INSERT INTO scrape_jobs (id, vendor_source_id, status, phase, started_at)
		SELECT $1, $2, 'running', 'catalog', now()
		WHERE NOT EXISTS (
			SELECT 1 FROM scrape_jobs WHERE vendor_source_id = $2 AND status = 'running'
		)
		RETURNING id, vendor_source_id, status, phase, started_at, created_at, updated_at`,
		id, sourceID,
	)
	var j domain.ScrapeJob
	scanErr := row.Scan(&j.ID, &j.VendorSourceID, &j.Status, &j.Phase, &j.StartedAt, &j.CreatedAt, &j.UpdatedAt)
	if scanErr == nil {
		return &j, uuid.Nil, true, nil
	}
	if !IsNoRows(scanErr) {
		return nil, uuid.Nil, false, fmt.Errorf("store: try insert running job: %w", scanErr)
	}

	// No row inserted: a running job already exists. Look it up to
	// return its id to the caller (spec.md §8 scenario 6:
	// {skipped:true, reason:"already_running", existing_job_id}).
	var existing uuid.UUID
	err = s.q(ctx).QueryRow(ctx,
		`SELECT id FROM scrape_jobs WHERE vendor_source_id=$1 AND status='running' LIMIT 1`, sourceID,
	).Scan(&existing)
	if err != nil {
		return nil, uuid.Nil, false, fmt.Errorf("store: find existing running job: %w", err)
	}
	return nil, existing, false, nil
}

// GetScrapeJobForUpdate locks one job row, used by the runner's
// phase/counter updates and the stop endpoint.
func (s *Store) GetScrapeJobForUpdate(ctx context.Context, id uuid.UUID) (*domain.ScrapeJob, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, vendor_source_id, status, phase, products_found, products_updated, products_failed,
		       error_message, started_at, finished_at, cancelled_by, created_at, updated_at
		FROM scrape_jobs WHERE id=$1 FOR UPDATE`, id)
	var j domain.ScrapeJob
	if err := row.Scan(
		&j.ID, &j.VendorSourceID, &j.Status, &j.Phase, &j.ProductsFound, &j.ProductsUpdated, &j.ProductsFailed,
		&j.ErrorMessage, &j.StartedAt, &j.FinishedAt, &j.CancelledBy, &j.CreatedAt, &j.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetScrapeJobForUpdate", "scrape_job", id.String())
		}
		return nil, fmt.Errorf("store: scan scrape job: %w", err)
	}
	return &j, nil
}

// UpdateScrapeJob persists phase/status/counter changes.
func (s *Store) UpdateScrapeJob(ctx context.Context, j *domain.ScrapeJob) error {
	_, err := s.q(ctx).Exec(ctx, `
		UPDATE scrape_jobs SET status=$2, phase=$3, products_found=$4, products_updated=$5, products_failed=$6,
		       error_message=$7, finished_at=$8, cancelled_by=$9, updated_at=now()
		WHERE id=$1`,
		j.ID, j.Status, j.Phase, j.ProductsFound, j.ProductsUpdated, j.ProductsFailed,
		j.ErrorMessage, j.FinishedAt, j.CancelledBy,
	)
	if err != nil {
		return fmt.Errorf("store: update scrape job: %w", err)
	}
	return nil
}

// ListStaleRunningJobs finds running jobs older than threshold, for the
// 15-minute stale-job reaper, spec.md §4.9.
func (s *Store) ListStaleRunningJobs(ctx context.Context, threshold time.Duration) ([]domain.ScrapeJob, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, vendor_source_id, status, phase, products_found, products_updated, products_failed,
		       error_message, started_at, finished_at, cancelled_by, created_at, updated_at
		FROM scrape_jobs WHERE status='running' AND started_at < now() - $1::interval`,
		fmt.Sprintf("%d seconds", int(threshold.Seconds())),
	)
	if err != nil {
		return nil, fmt.Errorf("store: list stale jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.ScrapeJob
	for rows.Next() {
		var j domain.ScrapeJob
		if err := rows.Scan(
			&j.ID, &j.VendorSourceID, &j.Status, &j.Phase, &j.ProductsFound, &j.ProductsUpdated, &j.ProductsFailed,
			&j.ErrorMessage, &j.StartedAt, &j.FinishedAt, &j.CancelledBy, &j.CreatedAt, &j.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan stale job: %w", err)
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

// ListActiveVendorSources loads every enabled source for cron
// registration at startup.
func (s *Store) ListActiveVendorSources(ctx context.Context) ([]domain.VendorSource, error) {
	rows, err := s.q(ctx).Query(ctx, `
		SELECT id, vendor_id, scraper_key, base_url, cron_schedule, enabled, timeout_ms,
		       last_run_at, last_success_at, created_at, updated_at
		FROM vendor_sources WHERE enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("store: list active vendor sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.VendorSource
	for rows.Next() {
		var v domain.VendorSource
		var timeoutMS int
		if err := rows.Scan(
			&v.ID, &v.VendorID, &v.ScraperKey, &v.BaseURL, &v.CronSchedule, &v.Enabled, &timeoutMS,
			&v.LastRunAt, &v.LastSuccessAt, &v.CreatedAt, &v.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("store: scan vendor source: %w", err)
		}
		v.Timeout = time.Duration(timeoutMS) * time.Millisecond
		sources = append(sources, v)
	}
	return sources, rows.Err()
}

// GetVendorSource loads one source for a manual-trigger admin request.
func (s *Store) GetVendorSource(ctx context.Context, id uuid.UUID) (*domain.VendorSource, error) {
	row := s.q(ctx).QueryRow(ctx, `
		SELECT id, vendor_id, scraper_key, base_url, cron_schedule, enabled, timeout_ms,
		       last_run_at, last_success_at, created_at, updated_at
		FROM vendor_sources WHERE id=$1`, id)
	var v domain.VendorSource
	var timeoutMS int
	if err := row.Scan(
		&v.ID, &v.VendorID, &v.ScraperKey, &v.BaseURL, &v.CronSchedule, &v.Enabled, &timeoutMS,
		&v.LastRunAt, &v.LastSuccessAt, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		if IsNoRows(err) {
			return nil, domain.NotFound("store.GetVendorSource", "vendor_source", id.String())
		}
		return nil, fmt.Errorf("store: scan vendor source: %w", err)
	}
	v.Timeout = time.Duration(timeoutMS) * time.Millisecond
	return &v, nil
}

// TouchVendorSourceRun stamps last_run_at (and last_success_at on
// success) after a job finishes.
func (s *Store) TouchVendorSourceRun(ctx context.Context, id uuid.UUID, succeeded bool) error {
	if succeeded {
		_, err := s.q(ctx).Exec(ctx,
			`UPDATE vendor_sources SET last_run_at=now(), last_success_at=now() WHERE id=$1`, id)
		return err
	}
	_, err := s.q(ctx).Exec(ctx, `UPDATE vendor_sources SET last_run_at=now() WHERE id=$1`, id)
	return err
}
