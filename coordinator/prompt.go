package coordinator

import (
	"encoding/json"
	"fmt"
	"strings"

	"drivethru"
)

// ToolSpec is the description of one tool handed to the dialogue layer.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ToolSpecs lists the provider's tools with their input schemas.
func ToolSpecs(tp drivethru.ToolProvider) []ToolSpec {
	tools := tp.GetTools()

	specs := make([]ToolSpec, len(tools))
	for i, tool := range tools {
		schema := tool.InputSchema()
		parameters := map[string]any{
			"type":       "object",
			"properties": schema.Properties,
		}
		if len(schema.Required) > 0 {
			parameters["required"] = schema.Required
		}

		specs[i] = ToolSpec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  parameters,
		}
	}
	return specs
}

// SystemPrompt renders the order-taker instructions for a model that emits
// tool calls as embedded JSON, listing the menu categories and tools.
func SystemPrompt(tp drivethru.ToolProvider, categories []string) (string, error) {
	specs, err := json.MarshalIndent(ToolSpecs(tp), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool specs: %w", err)
	}

	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString("\n\nMENU CATEGORIES\n")
	for _, c := range categories {
		b.WriteString("- ")
		b.WriteString(c)
		b.WriteString("\n")
	}
	b.WriteString("\nTOOLS\n")
	b.Write(specs)
	return b.String(), nil
}

const systemPrompt string = `You are a friendly and efficient drive-thru order taker.

RESPONSIBILITIES
1) Greet the customer and take their order one item at a time.
2) Add each item with add_item_to_order as soon as you know the item, its modifiers and quantity.
3) When the customer is done, call complete_order and read back the summary it returns.

TOOL CALLS
- Emit tool calls as one JSON object: {"tool_calls":[{"name":"add_item_to_order","input":{...}}]}
- Always pass item_name to add_item_to_order. Use "modifiers": [] when the customer wants none.
- Pass the category when you know it. Never invent items or modifiers that are not on the menu.
- Relay each tool result to the customer. If a result asks a question, ask it.
- If the customer says "no thanks" after an item was added, they are declining more items; do not call a tool.
- Call complete_order only when the customer says they are done.`
