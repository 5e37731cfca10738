package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"drivethru/order"

	"github.com/nats-io/nats.go"
)

// OrderCompleted is the payload published when an order completes.
type OrderCompleted struct {
	Type     string         `json:"type"`
	SentAt   time.Time      `json:"sent_at"`
	Snapshot order.Snapshot `json:"order"`
}

const TypeOrderCompleted = "order.completed"

type publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher announces completed orders on a NATS subject.
type NATSPublisher struct {
	conn    publisher
	close   func()
	subject string
	now     func() time.Time
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("drivethru"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, close: conn.Close, subject: subject, now: time.Now}, nil
}

// NewPublisher wraps an existing connection-like publisher.
func NewPublisher(conn publisher, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, now: time.Now}
}

func (p *NATSPublisher) NotifyCompleted(ctx context.Context, snapshot order.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := json.Marshal(OrderCompleted{
		Type:     TypeOrderCompleted,
		SentAt:   p.now().UTC(),
		Snapshot: snapshot,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	if err := p.conn.Publish(p.subject, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.subject, err)
	}
	slog.Info("EVENTS: published order completion", "subject", p.subject, "session_id", snapshot.SessionID)
	return nil
}

func (p *NATSPublisher) Close() error {
	if p.close != nil {
		p.close()
	}
	return nil
}
