package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScrapeJobStatus tracks a vendor catalog ingestion run.
type ScrapeJobStatus string

const (
	ScrapeQueued    ScrapeJobStatus = "queued"
	ScrapeRunning   ScrapeJobStatus = "running"
	ScrapeSucceeded ScrapeJobStatus = "succeeded"
	ScrapeFailed    ScrapeJobStatus = "failed"
	ScrapeCancelled ScrapeJobStatus = "cancelled"
	ScrapeTimedOut  ScrapeJobStatus = "timed_out"
)

// ScrapeJobPhase names which of the two concurrency pools (catalog,
// enrichment) is currently processing the job, spec.md §4.9.
type ScrapeJobPhase string

const (
	PhaseCatalog    ScrapeJobPhase = "catalog"
	PhaseEnrichment ScrapeJobPhase = "enrichment"
)

// VendorSource is a scheduled scraper target: one vendor's catalog feed,
// with its own cron schedule and scraper implementation key.
type VendorSource struct {
	ID          uuid.UUID
	VendorID    uuid.UUID
	ScraperKey  string // looked up in the scraper registry
	BaseURL     string
	CronSchedule string
	Enabled     bool
	Timeout     time.Duration

	LastRunAt     *time.Time
	LastSuccessAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScrapeJob is one run of a VendorSource. The store enforces "at most one
// running job per VendorSource" via a conditional insert, not an
// advisory lock, per spec.md §9's design note.
type ScrapeJob struct {
	ID             uuid.UUID
	VendorSourceID uuid.UUID

	Status ScrapeJobStatus
	Phase  ScrapeJobPhase

	ProductsFound   int
	ProductsUpdated int
	ProductsFailed  int

	ErrorMessage string

	StartedAt   *time.Time
	FinishedAt  *time.Time
	CancelledBy *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal reports whether the job has reached a final status.
func (j *ScrapeJob) IsTerminal() bool {
	switch j.Status {
	case ScrapeSucceeded, ScrapeFailed, ScrapeCancelled, ScrapeTimedOut:
		return true
	default:
		return false
	}
}

// IsStale reports whether a running job has exceeded its source's
// timeout and should be reaped, spec.md §4.9.
func (j *ScrapeJob) IsStale(timeout time.Duration, now time.Time) bool {
	if j.Status != ScrapeRunning || j.StartedAt == nil {
		return false
	}
	return now.Sub(*j.StartedAt) > timeout
}

// ScrapedProduct is the normalized shape a Scraper implementation
// returns for each catalog item it discovers, before it is upserted
// into the product/SKU tables.
type ScrapedProduct struct {
	VendorSKU   string
	Name        string
	Collection  string
	Description string

	CostPerBox      float64 // raw vendor feed value; converted to money.Amount at the store boundary
	SqftPerBox      float64
	WeightPerBoxLbs float64
	FreightClass    string

	SellBy SellBy

	ImageURLs []string
}
