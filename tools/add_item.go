package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type AddItem struct{ order *OrderTools }

func NewAddItem(order *OrderTools) *AddItem { return &AddItem{order: order} }

func (t *AddItem) Name() string  { return "add_item_to_order" }
func (t *AddItem) Title() string { return "Add Item to Order" }
func (t *AddItem) Description() string {
	return "Adds a menu item to the customer's order. The item is checked against the menu first; " +
		"if it cannot be matched the reply explains why and nothing is added."
}

func (t *AddItem) InputSchema() *jsonschema.Schema {
	minQty := 1.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"category": {
				Type:        "string",
				Description: "Menu category, e.g. \"Beef & Pork\". May be empty.",
			},
			"item_name": {
				Type:        "string",
				Description: "Name of the menu item as the customer said it.",
			},
			"modifiers": {
				Type:  "array",
				Items: &jsonschema.Schema{Type: "string"},
			},
			"quantity": {
				Type:    "integer",
				Minimum: &minQty,
			},
		},
		Required: []string{"item_name"},
	}
}

func (t *AddItem) OutputSchema() *jsonschema.Schema { return resultSchema() }

func (t *AddItem) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	category, err := stringArg(input, "category")
	if err != nil {
		return result(err.Error()), nil
	}
	name, err := stringArg(input, "item_name")
	if err != nil {
		return result(err.Error()), nil
	}
	mods, err := stringListArg(input, "modifiers")
	if err != nil {
		return result(err.Error()), nil
	}
	qty, err := quantityArg(input, "quantity")
	if err != nil {
		return result(err.Error()), nil
	}

	msg, err := t.order.AddItemToOrder(ctx, category, name, mods, qty)
	if err != nil {
		return nil, err
	}
	return result(msg), nil
}
