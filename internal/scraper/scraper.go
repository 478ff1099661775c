// Package scraper implements the vendor catalog ingestion orchestrator,
// spec.md §4.9. Scraper implementations registered into a static
// Registry run on the catalog concurrency pool (a second, enrichment
// pool is constructed but unused), the same
// interface-plus-registry idiom the teacher uses for swappable external
// integrations (billing.Provider, shipping.Provider). Grounded on
// internal/worker/worker.go's semaphore/ticker shape, generalized from
// one pool to two and rewritten around the store's conditional-insert
// job lock instead of a polled DB queue.
package scraper

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/floorworks/commerce/internal/domain"
)

// Stats summarizes a finished run, folded into the ScrapeJob row's
// counters.
type Stats struct {
	ProductsFound   int
	ProductsUpdated int
	ProductsFailed  int
}

// Scraper is one vendor's catalog-ingestion implementation. Run should
// respect ctx cancellation promptly: the orchestrator cancels it on
// operator abort and on wall-clock timeout alike.
type Scraper interface {
	Key() string
	Run(ctx context.Context, h *JobHandle) (Stats, error)
}

// JobHandle is the collaborator a Scraper uses to report discovered
// products and phase transitions back to the orchestrator without
// reaching into the store itself.
type JobHandle struct {
	VendorID uuid.UUID

	mu     sync.Mutex
	phase  domain.ScrapeJobPhase
	upsert func(ctx context.Context, vendorID uuid.UUID, p domain.ScrapedProduct) error
}

func newJobHandle(vendorID uuid.UUID, upsert func(context.Context, uuid.UUID, domain.ScrapedProduct) error) *JobHandle {
	return &JobHandle{VendorID: vendorID, phase: domain.PhaseCatalog, upsert: upsert}
}

// EnterEnrichment records that the job has moved from the catalog phase
// to the enrichment phase, spec.md §4.9's two-phase run. It changes only
// the phase label; the run stays on the catalog pool.
func (h *JobHandle) EnterEnrichment() {
	h.mu.Lock()
	h.phase = domain.PhaseEnrichment
	h.mu.Unlock()
}

// Phase reports the job's current phase for status reporting.
func (h *JobHandle) Phase() domain.ScrapeJobPhase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

// Upsert writes back one discovered/enriched catalog item.
func (h *JobHandle) Upsert(ctx context.Context, p domain.ScrapedProduct) error {
	return h.upsert(ctx, h.VendorID, p)
}

// Registry holds every Scraper implementation this deployment knows
// about, keyed by VendorSource.ScraperKey.
type Registry struct {
	mu       sync.RWMutex
	scrapers map[string]Scraper
}

func NewRegistry() *Registry {
	return &Registry{scrapers: make(map[string]Scraper)}
}

func (r *Registry) Register(s Scraper) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scrapers[s.Key()] = s
}

func (r *Registry) Lookup(key string) (Scraper, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.scrapers[key]
	return s, ok
}
