package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type RemoveItem struct{ order *OrderTools }

func NewRemoveItem(order *OrderTools) *RemoveItem { return &RemoveItem{order: order} }

func (t *RemoveItem) Name() string  { return "remove_item_from_order" }
func (t *RemoveItem) Title() string { return "Remove Item from Order" }
func (t *RemoveItem) Description() string {
	return "Removes the most recently added order line matching the given item name."
}

func (t *RemoveItem) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"item_name": {Type: "string"},
		},
		Required: []string{"item_name"},
	}
}

func (t *RemoveItem) OutputSchema() *jsonschema.Schema { return resultSchema() }

func (t *RemoveItem) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	name, err := stringArg(input, "item_name")
	if err != nil {
		return result(err.Error()), nil
	}

	msg, err := t.order.RemoveItemFromOrder(ctx, name)
	if err != nil {
		return nil, err
	}
	return result(msg), nil
}
