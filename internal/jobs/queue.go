// Package jobs implements the in-process fire-and-forget task queue
// spec.md §5 names explicitly: commission recompute, confirmation/
// notification emails, and tier-promotion notices dispatched after the
// owning DB transaction commits, detached from the request lifetime.
// Grounded on internal/worker/worker.go's semaphore-claim shape,
// generalized to an in-memory channel instead of a polled DB queue,
// since every task here is always scheduled from within the same
// process that produced it.
package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/floorworks/commerce/internal/commission"
	"github.com/floorworks/commerce/internal/email"
)

// Kind names the task payload shape.
type Kind string

const (
	KindCommissionRecompute  Kind = "commission_recompute"
	KindOrderConfirmation    Kind = "order_confirmation"
	KindShippingConfirmation Kind = "shipping_confirmation"
	KindRefundIssued         Kind = "refund_issued"
	KindPODispatchFailure    Kind = "po_dispatch_failure"
	KindRepNotification      Kind = "rep_notification"
	KindTierPromotion        Kind = "tier_promotion"
	KindScrapeFailure        Kind = "scrape_failure"
)

// Task is one unit of fire-and-forget work.
type Task struct {
	Kind Kind

	OrderID uuid.UUID

	OrderConfirmation    email.OrderConfirmationEmail
	ShippingConfirmation email.ShippingConfirmationEmail
	RefundIssued         email.RefundIssuedEmail
	PODispatchFailure    email.PODispatchFailureEmail
	RepNotification      email.RepNotificationEmail
	TierPromotion        email.TierPromotionEmail
	ScrapeFailure        email.ScrapeFailureEmail

	StaffEmail string
}

// Queue runs Tasks on a bounded worker pool fed by a buffered channel,
// the lighter in-process analogue of worker.Worker's DB-polling loop.
type Queue struct {
	tasks   chan Task
	sem     chan struct{}
	email   *email.Service
	commit  *commission.Service
	log     zerolog.Logger
	staffTo string // fallback staff address for ops alerts when no specific recipient applies
}

func New(emailSvc *email.Service, commissionSvc *commission.Service, staffOpsEmail string, bufferSize, maxConcurrency int, log zerolog.Logger) *Queue {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Queue{
		tasks:   make(chan Task, bufferSize),
		sem:     make(chan struct{}, maxConcurrency),
		email:   emailSvc,
		commit:  commissionSvc,
		log:     log.With().Str("component", "jobs.Queue").Logger(),
		staffTo: staffOpsEmail,
	}
}

// Enqueue schedules a task, dropping it with a logged error if the
// queue is saturated rather than blocking the caller (the caller is
// typically still inside the request/transaction path).
func (q *Queue) Enqueue(t Task) {
	select {
	case q.tasks <- t:
	default:
		q.log.Error().Str("kind", string(t.Kind)).Msg("task queue saturated, dropping task")
	}
}

// Run drains the queue until ctx is cancelled, following the same
// semaphore-gated dispatch shape as worker.Worker.Start.
func (q *Queue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-q.tasks:
			q.sem <- struct{}{}
			go func(t Task) {
				defer func() { <-q.sem }()
				q.process(ctx, t)
			}(t)
		}
	}
}

func (q *Queue) process(ctx context.Context, t Task) {
	taskCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var err error
	switch t.Kind {
	case KindCommissionRecompute:
		err = q.commit.Recompute(taskCtx, t.OrderID)
	case KindOrderConfirmation:
		err = q.email.SendOrderConfirmation(taskCtx, t.OrderConfirmation)
	case KindShippingConfirmation:
		err = q.email.SendShippingConfirmation(taskCtx, t.ShippingConfirmation)
	case KindRefundIssued:
		err = q.email.SendRefundIssued(taskCtx, t.RefundIssued)
	case KindPODispatchFailure:
		err = q.email.SendPODispatchFailure(taskCtx, t.StaffEmail, t.PODispatchFailure)
	case KindRepNotification:
		err = q.email.SendRepNotification(taskCtx, t.RepNotification)
	case KindTierPromotion:
		err = q.email.SendTierPromotion(taskCtx, t.TierPromotion)
	case KindScrapeFailure:
		err = q.email.SendScrapeFailure(taskCtx, t.StaffEmail, t.ScrapeFailure)
	}
	if err != nil {
		q.log.Error().Err(err).Str("kind", string(t.Kind)).Msg("fire-and-forget task failed")
	}
}

// NotifyScrapeFailure implements scraper.FailureNotifier, bridging the
// orchestrator's synchronous finish() path into the async task queue.
func (q *Queue) NotifyScrapeFailure(ctx context.Context, sourceID, jobID uuid.UUID, reason string) {
	q.Enqueue(Task{
		Kind:       KindScrapeFailure,
		StaffEmail: q.staffTo,
		ScrapeFailure: email.ScrapeFailureEmail{
			VendorSourceID: sourceID.String(),
			JobID:          jobID.String(),
			Reason:         reason,
		},
	})
}
