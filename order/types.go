package order

import (
	"fmt"
	"slices"
	"time"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// LineItem is one entry of an order. Identity is the ID; two line items
// with the same name, category and modifiers stay distinct.
type LineItem struct {
	ID        string    `json:"item_id"`
	ItemName  string    `json:"item_name"`
	Category  string    `json:"category"`
	Modifiers []string  `json:"modifiers"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"created_at"`
}

func (li LineItem) clone() LineItem {
	out := li
	out.Modifiers = slices.Clone(li.Modifiers)
	if out.Modifiers == nil {
		out.Modifiers = []string{}
	}
	return out
}

// EventType names a ledger mutation.
type EventType string

const (
	EventAddItem        EventType = "add_item"
	EventRemoveItem     EventType = "remove_item"
	EventUpdateQuantity EventType = "update_quantity"
	EventCompleteOrder  EventType = "complete_order"
	EventCancelOrder    EventType = "cancel_order"
)

// Event is one record of the incremental log.
type Event struct {
	Event     EventType `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`

	// Item is the added line item, or the removed one for remove_item.
	Item             *LineItem `json:"item,omitempty"`
	ItemID           string    `json:"item_id,omitempty"`
	Quantity         int       `json:"quantity,omitempty"`
	PreviousQuantity int       `json:"previous_quantity,omitempty"`

	TotalQuantity int    `json:"total_quantity"`
	Summary       string `json:"summary,omitempty"`
}

// State is the materialized view of an order at one point in its log.
type State struct {
	SessionID string     `json:"session_id"`
	Status    Status     `json:"status"`
	LineItems []LineItem `json:"line_items"`
}

// NewState returns the empty, in-progress state every order starts from.
func NewState(sessionID string) State {
	return State{SessionID: sessionID, Status: StatusInProgress, LineItems: []LineItem{}}
}

func (s State) clone() State {
	out := s
	out.LineItems = make([]LineItem, 0, len(s.LineItems))
	for _, li := range s.LineItems {
		out.LineItems = append(out.LineItems, li.clone())
	}
	return out
}

func (s State) indexOf(id string) int {
	for i, li := range s.LineItems {
		if li.ID == id {
			return i
		}
	}
	return -1
}

// TotalQuantity sums the quantities of all line items.
func (s State) TotalQuantity() int {
	n := 0
	for _, li := range s.LineItems {
		n += li.Quantity
	}
	return n
}

// applied returns the state that results from e, leaving s untouched.
// Both the Ledger and Replay fold events through it.
func (s State) applied(e Event) (State, error) {
	if s.Status != StatusInProgress {
		return s, fmt.Errorf("%s: %w", e.Event, ErrTerminalState)
	}

	next := s.clone()
	switch e.Event {
	case EventAddItem:
		if e.Item == nil {
			return s, fmt.Errorf("add_item: missing item")
		}
		if e.Item.Quantity < 1 {
			return s, fmt.Errorf("add_item %s: %w", e.Item.ID, ErrInvalidQuantity)
		}
		if next.indexOf(e.Item.ID) >= 0 {
			return s, fmt.Errorf("add_item: duplicate item id %s", e.Item.ID)
		}
		next.LineItems = append(next.LineItems, e.Item.clone())

	case EventRemoveItem:
		i := next.indexOf(e.ItemID)
		if i < 0 {
			return s, fmt.Errorf("remove_item: unknown item id %s", e.ItemID)
		}
		next.LineItems = slices.Delete(next.LineItems, i, i+1)

	case EventUpdateQuantity:
		if e.Quantity < 1 {
			return s, fmt.Errorf("update_quantity %s: %w", e.ItemID, ErrInvalidQuantity)
		}
		i := next.indexOf(e.ItemID)
		if i < 0 {
			return s, fmt.Errorf("update_quantity: unknown item id %s", e.ItemID)
		}
		next.LineItems[i].Quantity = e.Quantity

	case EventCompleteOrder:
		if len(next.LineItems) == 0 {
			return s, fmt.Errorf("complete_order: %w", ErrEmptyOrder)
		}
		next.Status = StatusCompleted

	case EventCancelOrder:
		next.LineItems = []LineItem{}
		next.Status = StatusCancelled

	default:
		return s, fmt.Errorf("unknown event %q", e.Event)
	}

	return next, nil
}
