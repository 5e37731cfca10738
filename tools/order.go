package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"drivethru/menu"
	"drivethru/order"
	"drivethru/validation"
)

const missingItemPrompt = "I need to know which item you'd like to add. What would you like to order?"

// OrderTools is the validate-then-mutate boundary in front of one session's
// ledger. Validation and state-machine failures come back as reply strings;
// only persistence failures are returned as errors.
type OrderTools struct {
	catalog   *menu.Catalog
	validator *validation.Validator
	ledger    *order.Ledger
}

func NewOrderTools(catalog *menu.Catalog, validator *validation.Validator, ledger *order.Ledger) *OrderTools {
	return &OrderTools{catalog: catalog, validator: validator, ledger: ledger}
}

// AddItemToOrder validates the request against the menu and, only if it is
// valid, adds the canonical item to the order.
func (o *OrderTools) AddItemToOrder(ctx context.Context, category, itemName string, modifiers []string, quantity int) (string, error) {
	slog.Info("TOOLS: add_item_to_order",
		"session_id", o.ledger.SessionID(),
		"category", category,
		"item", itemName,
		"modifiers", modifiers,
		"quantity", quantity,
	)

	itemName, fromSuffix := o.stripCategorySuffix(itemName)
	if strings.TrimSpace(category) == "" {
		category = fromSuffix
	}
	if strings.TrimSpace(itemName) == "" {
		return missingItemPrompt, nil
	}
	if quantity < 1 {
		return fmt.Sprintf("Sorry, I can't add %d %s. The quantity must be at least 1.", quantity, itemName), nil
	}
	if msg, terminal := o.terminalMessage(); terminal {
		return msg, nil
	}

	res := o.validator.Validate(category, itemName, modifiers)
	if !res.Valid {
		slog.Warn("TOOLS: validation failed", "session_id", o.ledger.SessionID(), "item", itemName, "category", category, "score", res.Score, "error", res.Error)
		return res.Error, nil
	}
	slog.Debug("TOOLS: validated item", "item", res.Item.Name, "category", res.Item.Category, "score", res.Score)

	mods := res.ModifierNames()
	li, err := o.ledger.AddItem(ctx, res.Item.Name, res.Item.Category, mods, quantity)
	if err != nil {
		if msg, handled := o.stateMessage(err); handled {
			return msg, nil
		}
		return "", fmt.Errorf("failed to add %q: %w", res.Item.Name, err)
	}

	var modText string
	if len(li.Modifiers) > 0 {
		modText = " with " + strings.Join(li.Modifiers, ", ")
	}
	if li.Quantity == 1 {
		return fmt.Sprintf("Added one %s%s to your order.", li.ItemName, modText), nil
	}
	return fmt.Sprintf("Added %d %s%s to your order.", li.Quantity, li.ItemName, modText), nil
}

// CompleteOrder finalizes a non-empty order.
func (o *OrderTools) CompleteOrder(ctx context.Context) (string, error) {
	slog.Info("TOOLS: complete_order", "session_id", o.ledger.SessionID())

	if msg, terminal := o.terminalMessage(); terminal {
		return msg, nil
	}
	if o.ledger.IsEmpty() {
		return "Your order is empty. Would you like to add something?", nil
	}

	snap, err := o.ledger.Complete(ctx)
	if err != nil {
		if msg, handled := o.stateMessage(err); handled {
			return msg, nil
		}
		return "", fmt.Errorf("failed to complete order: %w", err)
	}

	return fmt.Sprintf("Order complete! You ordered: %s. Total items: %d. Thank you!", snap.Summary, snap.TotalQuantity), nil
}

// RemoveItemFromOrder removes the most recently added line item whose name
// matches itemName.
func (o *OrderTools) RemoveItemFromOrder(ctx context.Context, itemName string) (string, error) {
	slog.Info("TOOLS: remove_item_from_order", "session_id", o.ledger.SessionID(), "item", itemName)

	itemName, _ = o.stripCategorySuffix(itemName)
	itemName = strings.TrimSpace(itemName)
	if itemName == "" {
		return "Which item would you like to remove from your order?", nil
	}
	if msg, terminal := o.terminalMessage(); terminal {
		return msg, nil
	}

	li, ok := o.ledger.FindLatest(order.MatchName(itemName))
	if !ok {
		return fmt.Sprintf("I don't see '%s' in your order.", itemName), nil
	}

	removed, err := o.ledger.RemoveItem(ctx, li.ID)
	if err != nil {
		if msg, handled := o.stateMessage(err); handled {
			return msg, nil
		}
		return "", fmt.Errorf("failed to remove %q: %w", li.ItemName, err)
	}
	if !removed {
		return fmt.Sprintf("Couldn't remove %s. Please try again.", li.ItemName), nil
	}
	return fmt.Sprintf("Removed %s from your order.", li.ItemName), nil
}

// Status returns the lifecycle state of the session's order.
func (o *OrderTools) Status() order.Status { return o.ledger.Status() }

// Snapshot returns the session's order in its final-document shape.
func (o *OrderTools) Snapshot() order.Snapshot { return o.ledger.Snapshot() }

func (o *OrderTools) terminalMessage() (string, bool) {
	switch o.ledger.Status() {
	case order.StatusCompleted:
		return "This order has already been completed. Please start a new order to add more items.", true
	case order.StatusCancelled:
		return "This order has been cancelled. Please start a new order.", true
	}
	return "", false
}

func (o *OrderTools) stateMessage(err error) (string, bool) {
	switch {
	case order.IsPersistence(err):
		return "", false
	case errors.Is(err, order.ErrTerminalState):
		return o.terminalMessage()
	case errors.Is(err, order.ErrEmptyOrder):
		return "Your order is empty. Would you like to add something?", true
	}
	return "", false
}

// stripCategorySuffix turns "Big Mac (Beef & Pork)" into "Big Mac" and
// reports the category, but only when the parenthesised text names a menu
// category. Size qualifiers such as "Hash Browns (Large)" are kept.
func (o *OrderTools) stripCategorySuffix(name string) (string, string) {
	name = strings.TrimSpace(name)
	if !strings.HasSuffix(name, ")") {
		return name, ""
	}
	open := strings.LastIndex(name, "(")
	if open <= 0 {
		return name, ""
	}

	suffix := strings.TrimSpace(name[open+1 : len(name)-1])
	for _, cat := range o.catalog.AllCategories() {
		if strings.EqualFold(cat, suffix) {
			return strings.TrimSpace(name[:open]), cat
		}
	}
	return name, ""
}
