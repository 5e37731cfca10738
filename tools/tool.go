package tools

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

type Tool interface {
	Name() string
	Title() string
	Description() string
	InputSchema() *jsonschema.Schema
	OutputSchema() *jsonschema.Schema
	Run(ctx context.Context, input map[string]any) (output map[string]any, err error)
}

type Call struct {
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
}

// ResultKey is the output field every order tool writes its reply to.
const ResultKey = "result"

func result(msg string) map[string]any {
	return map[string]any{ResultKey: msg}
}

// Result extracts the reply string from a tool output.
func Result(output map[string]any) string {
	s, _ := output[ResultKey].(string)
	return s
}

func resultSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			ResultKey: {Type: "string"},
		},
		Required: []string{ResultKey},
	}
}
