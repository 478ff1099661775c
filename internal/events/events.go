// Package events publishes structured commerce lifecycle events over
// NATS JetStream for out-of-process observers (analytics, future
// notification fan-out), separate from internal/jobs.Queue, which
// executes the side effects spec.md enumerates directly. Grounded on
// internal/server/provider/nats.go's stream-per-domain shape and
// internal/server/subscriber/order.go's publish/subscribe idiom,
// narrowed to the commerce spine's own event types.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Type names a domain event subject.
type Type string

const (
	OrderConfirmed   Type = "order.confirmed"
	OrderShipped     Type = "order.shipped"
	OrderCancelled   Type = "order.cancelled"
	OrderRefunded    Type = "order.refunded"
	PurchaseOrderSent Type = "po.sent"
	ScrapeCompleted  Type = "scrape.completed"
)

// Event is the envelope published for every lifecycle event.
type Event struct {
	ID        string         `json:"id"`
	Type      Type           `json:"type"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

// Publisher publishes domain events to NATS JetStream on a single
// <namespace>_COMMERCE stream covering the order, purchase-order and
// scrape subjects.
type Publisher struct {
	nc  *nats.Conn
	js  nats.JetStreamContext
	log zerolog.Logger
}

func Connect(url, namespace string, log zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(url,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("events: connect to nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("events: create jetstream context: %w", err)
	}

	p := &Publisher{nc: nc, js: js, log: log.With().Str("component", "events.Publisher").Logger()}
	if err := p.ensureStream(namespace); err != nil {
		nc.Close()
		return nil, err
	}
	return p, nil
}

func (p *Publisher) ensureStream(namespace string) error {
	name := namespace + "_COMMERCE"
	cfg := &nats.StreamConfig{
		Name:     name,
		Subjects: []string{"order.*", "po.*", "scrape.*"},
		MaxAge:   365 * 24 * time.Hour,
		Storage:  nats.FileStorage,
		Replicas: 1,
	}
	if _, err := p.js.StreamInfo(name); err != nil {
		if _, err := p.js.AddStream(cfg); err != nil {
			return fmt.Errorf("events: create stream %s: %w", name, err)
		}
		return nil
	}
	if _, err := p.js.UpdateStream(cfg); err != nil {
		p.log.Warn().Err(err).Str("stream", name).Msg("failed to update stream config")
	}
	return nil
}

// Publish sends one event, deduplicated by its ID within the stream's
// duplicate window.
func (p *Publisher) Publish(ctx context.Context, typ Type, data map[string]any) error {
	ev := Event{ID: uuid.New().String(), Type: typ, Data: data, Timestamp: time.Now()}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal event: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	ack, err := p.js.PublishAsync(string(typ), payload, nats.MsgId(ev.ID))
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", typ, err)
	}
	select {
	case <-ack.Ok():
		return nil
	case err := <-ack.Err():
		return fmt.Errorf("events: ack %s: %w", typ, err)
	case <-pubCtx.Done():
		return fmt.Errorf("events: publish %s: %w", typ, pubCtx.Err())
	}
}

// Close closes the underlying NATS connection.
func (p *Publisher) Close() { p.nc.Close() }
