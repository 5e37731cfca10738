package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Journal is the append-only, newline-delimited event log of one session.
// Append must not return until the record is durable enough for the
// caller's needs.
type Journal interface {
	Append(ctx context.Context, record []byte) error
}

// SnapshotWriter stores the final order document. Implementations are
// write-once per session.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, data []byte) error
}

// Snapshot is the final, durable representation of a completed order.
type Snapshot struct {
	SessionID     string     `json:"session_id"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   time.Time  `json:"completed_at"`
	Status        Status     `json:"status"`
	LineItems     []LineItem `json:"line_items"`
	TotalQuantity int        `json:"total_quantity"`
	Summary       string     `json:"summary"`
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces the line item id generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// Ledger owns the order of one conversation. Every command appends one
// event to the journal before the in-memory state changes; if the append
// fails the command fails and the state is left as it was.
//
// A Ledger is driven by a single conversation and is not safe for
// concurrent use.
type Ledger struct {
	state     State
	startedAt time.Time

	completedAt     time.Time
	snapshotWritten bool

	journal   Journal
	snapshots SnapshotWriter
	now       func() time.Time
	newID     func() string
}

// NewLedger starts an empty, in-progress order for sessionID.
func NewLedger(sessionID string, journal Journal, snapshots SnapshotWriter, opts ...Option) *Ledger {
	l := &Ledger{
		state:     NewState(sessionID),
		journal:   journal,
		snapshots: snapshots,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.startedAt = l.now().UTC()
	return l
}

// commit logs e and only then makes the resulting state current.
func (l *Ledger) commit(ctx context.Context, e Event) error {
	next, err := l.state.applied(e)
	if err != nil {
		return err
	}
	e.TotalQuantity = next.TotalQuantity()

	record, err := json.Marshal(e)
	if err != nil {
		return &PersistenceError{Op: "encode " + string(e.Event), SessionID: l.state.SessionID, Err: err}
	}
	if err := l.journal.Append(ctx, record); err != nil {
		slog.Error("LEDGER: failed to append event", "session_id", l.state.SessionID, "event", e.Event, "error", err)
		return &PersistenceError{Op: "append " + string(e.Event), SessionID: l.state.SessionID, Err: err}
	}

	l.state = next
	slog.Info("LEDGER: appended event",
		"session_id", l.state.SessionID,
		"event", e.Event,
		"line_items", len(l.state.LineItems),
		"total_quantity", e.TotalQuantity,
	)
	return nil
}

func (l *Ledger) event(t EventType) Event {
	return Event{Event: t, Timestamp: l.now().UTC(), SessionID: l.state.SessionID}
}

func (l *Ledger) checkInProgress() error {
	if l.state.Status != StatusInProgress {
		return fmt.Errorf("order %s is %s: %w", l.state.SessionID, l.state.Status, ErrTerminalState)
	}
	return nil
}

// AddItem appends a new line item. Callers must have validated itemName,
// category and modifiers against the menu; the ledger does not.
func (l *Ledger) AddItem(ctx context.Context, itemName, category string, modifiers []string, quantity int) (LineItem, error) {
	if err := l.checkInProgress(); err != nil {
		return LineItem{}, err
	}
	if quantity < 1 {
		return LineItem{}, fmt.Errorf("add %q with quantity %d: %w", itemName, quantity, ErrInvalidQuantity)
	}

	e := l.event(EventAddItem)
	li := LineItem{
		ID:        l.newID(),
		ItemName:  itemName,
		Category:  category,
		Modifiers: append([]string{}, modifiers...),
		Quantity:  quantity,
		CreatedAt: e.Timestamp,
	}
	e.Item = &li

	if err := l.commit(ctx, e); err != nil {
		return LineItem{}, err
	}
	return li.clone(), nil
}

// RemoveItem removes the line item with id. An unknown id reports false
// and logs nothing.
func (l *Ledger) RemoveItem(ctx context.Context, id string) (bool, error) {
	if err := l.checkInProgress(); err != nil {
		return false, err
	}
	i := l.state.indexOf(id)
	if i < 0 {
		return false, nil
	}

	removed := l.state.LineItems[i].clone()
	e := l.event(EventRemoveItem)
	e.ItemID = id
	e.Item = &removed

	if err := l.commit(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}

// UpdateQuantity sets the quantity of the line item with id. An unknown id
// reports false and logs nothing.
func (l *Ledger) UpdateQuantity(ctx context.Context, id string, quantity int) (bool, error) {
	if err := l.checkInProgress(); err != nil {
		return false, err
	}
	if quantity < 1 {
		return false, fmt.Errorf("update %s to quantity %d: %w", id, quantity, ErrInvalidQuantity)
	}
	i := l.state.indexOf(id)
	if i < 0 {
		return false, nil
	}

	e := l.event(EventUpdateQuantity)
	e.ItemID = id
	e.Quantity = quantity
	e.PreviousQuantity = l.state.LineItems[i].Quantity

	if err := l.commit(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}

// Complete finalizes the order: it logs the completion and then writes the
// snapshot. If the snapshot write fails the order stays completed and the
// returned *PersistenceError can be retried with WriteSnapshot.
func (l *Ledger) Complete(ctx context.Context) (Snapshot, error) {
	if err := l.checkInProgress(); err != nil {
		return Snapshot{}, err
	}
	if len(l.state.LineItems) == 0 {
		return Snapshot{}, fmt.Errorf("order %s: %w", l.state.SessionID, ErrEmptyOrder)
	}

	e := l.event(EventCompleteOrder)
	e.Summary = Summary(l.state.LineItems)
	if err := l.commit(ctx, e); err != nil {
		return Snapshot{}, err
	}
	l.completedAt = e.Timestamp

	snap := l.Snapshot()
	if err := l.WriteSnapshot(ctx); err != nil {
		return snap, err
	}
	return snap, nil
}

// WriteSnapshot writes the final snapshot of a completed order. It is a
// no-op once a snapshot has been written.
func (l *Ledger) WriteSnapshot(ctx context.Context) error {
	if l.state.Status != StatusCompleted {
		return fmt.Errorf("order %s is %s, not completed", l.state.SessionID, l.state.Status)
	}
	if l.snapshotWritten {
		return nil
	}

	data, err := json.MarshalIndent(l.Snapshot(), "", "  ")
	if err != nil {
		return &PersistenceError{Op: "encode snapshot", SessionID: l.state.SessionID, Err: err}
	}
	if err := l.snapshots.WriteSnapshot(ctx, data); err != nil {
		slog.Error("LEDGER: failed to write snapshot", "session_id", l.state.SessionID, "error", err)
		return &PersistenceError{Op: "write snapshot", SessionID: l.state.SessionID, Err: err}
	}

	l.snapshotWritten = true
	slog.Info("LEDGER: wrote snapshot", "session_id", l.state.SessionID, "total_quantity", l.TotalQuantity())
	return nil
}

// SnapshotWritten reports whether the final snapshot is durable.
func (l *Ledger) SnapshotWritten() bool { return l.snapshotWritten }

// Cancel clears the order. Cancelling a cancelled order does nothing.
func (l *Ledger) Cancel(ctx context.Context) error {
	switch l.state.Status {
	case StatusCancelled:
		return nil
	case StatusCompleted:
		return l.checkInProgress()
	}
	return l.commit(ctx, l.event(EventCancelOrder))
}

// Snapshot returns the current order in its final-document shape.
func (l *Ledger) Snapshot() Snapshot {
	return Snapshot{
		SessionID:     l.state.SessionID,
		StartedAt:     l.startedAt,
		CompletedAt:   l.completedAt,
		Status:        l.state.Status,
		LineItems:     l.GetLineItems(),
		TotalQuantity: l.TotalQuantity(),
		Summary:       l.Summary(),
	}
}

// GetLineItems returns copies of the line items in insertion order.
func (l *Ledger) GetLineItems() []LineItem {
	return l.state.clone().LineItems
}

// GetLineItem returns a copy of the line item with id.
func (l *Ledger) GetLineItem(id string) (LineItem, bool) {
	i := l.state.indexOf(id)
	if i < 0 {
		return LineItem{}, false
	}
	return l.state.LineItems[i].clone(), true
}

// FindLatest returns the most recently added line item whose name matches
// name under match. It is how "remove the X" resolves to a line item.
func (l *Ledger) FindLatest(match func(itemName string) bool) (LineItem, bool) {
	for i := len(l.state.LineItems) - 1; i >= 0; i-- {
		if match(l.state.LineItems[i].ItemName) {
			return l.state.LineItems[i].clone(), true
		}
	}
	return LineItem{}, false
}

// TotalQuantity sums quantities across line items.
func (l *Ledger) TotalQuantity() int { return l.state.TotalQuantity() }

// Summary describes the order for readback, or "No items".
func (l *Ledger) Summary() string { return Summary(l.state.LineItems) }

// IsEmpty reports whether the order has no line items.
func (l *Ledger) IsEmpty() bool { return len(l.state.LineItems) == 0 }

// Status returns the lifecycle state.
func (l *Ledger) Status() Status { return l.state.Status }

// SessionID returns the owning session.
func (l *Ledger) SessionID() string { return l.state.SessionID }

// StartedAt returns when the order was opened.
func (l *Ledger) StartedAt() time.Time { return l.startedAt }

// State returns a copy of the materialized state.
func (l *Ledger) State() State { return l.state.clone() }

// IsTerminal reports whether err is a state-machine refusal rather than a
// persistence failure.
func IsTerminal(err error) bool {
	return errors.Is(err, ErrTerminalState)
}

// MatchName returns a case-insensitive, whitespace-insensitive name matcher
// for FindLatest.
func MatchName(name string) func(string) bool {
	want := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	return func(itemName string) bool {
		return strings.Join(strings.Fields(strings.ToLower(itemName)), " ") == want
	}
}
