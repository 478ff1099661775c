package webhook

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/floorworks/commerce/internal/store"
)

// DailyMaintenance runs the once-a-day 6AM housekeeping pass spec.md
// §4.10 names: sweeping expired carts and expired staff/rep/trade/customer
// sessions. Grounded on worker.Worker.Start's ticker-driven loop.
type DailyMaintenance struct {
	store *store.Store
	log   zerolog.Logger
	clock func() time.Time
}

func NewDailyMaintenance(st *store.Store, log zerolog.Logger) *DailyMaintenance {
	return &DailyMaintenance{store: st, log: log.With().Str("component", "webhook.DailyMaintenance").Logger(), clock: time.Now}
}

// Run blocks until ctx is cancelled, firing sweep once every 24h from
// the first tick after the process starts. Callers that want a fixed
// wall-clock time (06:00 local) should delay the first call until the
// next occurrence before invoking Run.
func (d *DailyMaintenance) Run(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	d.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *DailyMaintenance) sweep(ctx context.Context) {
	if err := d.store.SweepExpiredCarts(ctx); err != nil {
		d.log.Error().Err(err).Msg("failed to sweep expired carts")
	}
	if err := d.store.SweepExpiredSessions(ctx); err != nil {
		d.log.Error().Err(err).Msg("failed to sweep expired sessions")
	}
}

// UntilNextRun computes the delay until the next wall-clock 06:00 from
// now, so callers can align DailyMaintenance.Run's first tick to the
// intended daily schedule instead of "24h after process start."
func (d *DailyMaintenance) UntilNextRun() time.Duration {
	now := d.clock()
	next := time.Date(now.Year(), now.Month(), now.Day(), 6, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}

// StockAlert runs a 30-minute ticker and logs a debug line on each tick.
// It does not read stock levels and does not notify anyone.
type StockAlert struct {
	store *store.Store
	log   zerolog.Logger
}

func NewStockAlert(st *store.Store, log zerolog.Logger) *StockAlert {
	return &StockAlert{store: st, log: log.With().Str("component", "webhook.StockAlert").Logger()}
}

func (a *StockAlert) Run(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.log.Debug().Msg("stock alert tick")
		}
	}
}
