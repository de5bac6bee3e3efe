package editor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/scribe/internal/document"
)

// Payload carries the arguments of a command, usually decoded from JSON.
type Payload map[string]any

// String returns the string at key, or "" when absent.
func (p Payload) String(key string) string {
	switch v := p[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return ""
}

// Has reports whether key is present.
func (p Payload) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Int returns the integer at key, or def when absent. JSON numbers and
// numeric strings are accepted.
func (p Payload) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, payloadError(key, "must be a whole number")
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, payloadError(key, "must be a whole number")
		}
		return int(i), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, payloadError(key, "must be a whole number")
		}
		return i, nil
	}
	return 0, payloadError(key, "must be a number")
}

// Bool returns the boolean at key, or def when absent.
func (p Payload) Bool(key string, def bool) bool {
	switch v := p[key].(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// StringMap returns the object at key with every value rendered as a string.
func (p Payload) StringMap(key string) (map[string]string, error) {
	switch v := p[key].(type) {
	case map[string]string:
		return v, nil
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			switch s := val.(type) {
			case string:
				out[k] = s
			case nil:
				out[k] = ""
			default:
				return nil, payloadError(key, "values must be strings")
			}
		}
		return out, nil
	case nil:
		return nil, payloadError(key, "is required")
	}
	return nil, payloadError(key, "must be an object")
}

// check runs ozzo rules against one payload value and reports failures as
// validation errors.
func check(key string, value any, rules ...validation.Rule) error {
	if err := validation.Validate(value, rules...); err != nil {
		return payloadError(key, err.Error())
	}
	return nil
}

func payloadError(key, msg string) error {
	return document.Errorf("payload", document.ErrValidation, "%s %s", key, msg)
}
