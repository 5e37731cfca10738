package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type CompleteOrder struct{ order *OrderTools }

func NewCompleteOrder(order *OrderTools) *CompleteOrder { return &CompleteOrder{order: order} }

func (t *CompleteOrder) Name() string  { return "complete_order" }
func (t *CompleteOrder) Title() string { return "Complete Order" }
func (t *CompleteOrder) Description() string {
	return "Finalizes the order once the customer confirms they are done. No further changes are accepted afterwards."
}

func (t *CompleteOrder) InputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}

func (t *CompleteOrder) OutputSchema() *jsonschema.Schema { return resultSchema() }

func (t *CompleteOrder) Run(ctx context.Context, _ map[string]any) (map[string]any, error) {
	msg, err := t.order.CompleteOrder(ctx)
	if err != nil {
		return nil, err
	}
	return result(msg), nil
}
