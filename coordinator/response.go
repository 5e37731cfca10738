package coordinator

import (
	"encoding/json"
	"log/slog"
	"strings"

	"drivethru/tools"
)

// Response is one model output split into free text and tool calls.
type Response struct {
	Content   string       `json:"content,omitempty"`
	ToolCalls []tools.Call `json:"tool_calls,omitempty"`
	// Unreadable holds calls from a tool_calls array that could not be
	// decoded. Only the name and tool_use_id are kept, when readable.
	Unreadable []tools.Call `json:"unreadable,omitempty"`
}

// ParseModelOutput extracts every {"tool_calls":[...]} object embedded in
// raw model text, in order of appearance. Everything else, including JSON
// objects that carry no tool calls, is kept as Content. A call that does not
// decode is reported in Unreadable rather than dropped into Content.
func ParseModelOutput(raw string) Response {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Response{}
	}

	var (
		content    strings.Builder
		calls      []tools.Call
		unreadable []tools.Call
	)
	for len(s) > 0 {
		start := strings.IndexByte(s, '{')
		if start == -1 {
			content.WriteString(s)
			break
		}
		content.WriteString(s[:start])
		s = s[start:]

		dec := json.NewDecoder(strings.NewReader(s))
		var obj json.RawMessage
		if err := dec.Decode(&obj); err != nil {
			// Not a JSON object; keep the brace as text and move on
			content.WriteByte('{')
			s = s[1:]
			continue
		}
		end := int(dec.InputOffset())

		var envelope struct {
			ToolCalls json.RawMessage `json:"tool_calls"`
		}
		if err := json.Unmarshal(obj, &envelope); err != nil || len(envelope.ToolCalls) == 0 || string(envelope.ToolCalls) == "null" {
			content.WriteString(s[:end])
			s = s[end:]
			continue
		}

		var entries []json.RawMessage
		if err := json.Unmarshal(envelope.ToolCalls, &entries); err != nil {
			slog.Warn("SESSION: could not read tool calls", "error", err)
			unreadable = append(unreadable, tools.Call{Input: map[string]any{}})
		} else if len(entries) == 0 {
			content.WriteString(s[:end])
		}
		for _, entry := range entries {
			tc, err := decodeCall(entry)
			if err != nil {
				slog.Warn("SESSION: could not read tool call", "tool", tc.Name, "error", err)
				unreadable = append(unreadable, tc)
				continue
			}
			calls = append(calls, tc)
		}
		s = s[end:]
	}

	return Response{
		Content:    strings.TrimSpace(content.String()),
		ToolCalls:  calls,
		Unreadable: unreadable,
	}
}

// decodeCall decodes one tool call. On failure the returned call still
// carries whatever name and tool_use_id could be read, and an empty input.
func decodeCall(entry json.RawMessage) (tools.Call, error) {
	var tc tools.Call
	if err := json.Unmarshal(entry, &tc); err != nil {
		var ids struct {
			Name      string `json:"name"`
			ToolUseID string `json:"tool_use_id"`
		}
		_ = json.Unmarshal(entry, &ids)
		return tools.Call{Name: ids.Name, ToolUseID: ids.ToolUseID, Input: map[string]any{}}, err
	}
	if tc.Input == nil {
		tc.Input = map[string]any{}
	}
	return tc, nil
}
