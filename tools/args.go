package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// argError is a malformed tool argument. It is relayed to the caller as a
// reply, never as a Go error.
type argError struct {
	key string
	msg string
}

func (e *argError) Error() string {
	return fmt.Sprintf("Sorry, the %s you gave %s.", e.key, e.msg)
}

func stringArg(input map[string]any, key string) (string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &argError{key: key, msg: "is not text"}
	}
	return s, nil
}

func stringListArg(input map[string]any, key string) ([]string, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch vv := v.(type) {
	case []string:
		return append([]string(nil), vv...), nil
	case string:
		if strings.TrimSpace(vv) == "" {
			return nil, nil
		}
		return []string{vv}, nil
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			s, ok := item.(string)
			if !ok {
				return nil, &argError{key: key, msg: "must be a list of text values"}
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, &argError{key: key, msg: "must be a list of text values"}
}

// quantityArg reads an integral quantity, defaulting to 1 when absent.
// Range checks are left to the order tools.
func quantityArg(input map[string]any, key string) (int, error) {
	v, ok := input[key]
	if !ok || v == nil {
		return 1, nil
	}

	var f float64
	switch vv := v.(type) {
	case int:
		return vv, nil
	case int64:
		return int(vv), nil
	case float64:
		f = vv
	case json.Number:
		n, err := vv.Float64()
		if err != nil {
			return 0, &argError{key: key, msg: "is not a number"}
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err != nil {
			return 0, &argError{key: key, msg: "is not a number"}
		}
		f = n
	default:
		return 0, &argError{key: key, msg: "is not a number"}
	}

	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, &argError{key: key, msg: "must be a whole number"}
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, &argError{key: key, msg: "is out of range"}
	}
	return int(f), nil
}
