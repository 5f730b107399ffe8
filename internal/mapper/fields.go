package mapper

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Fields is the decoded inbound JSON object. Every accessor is lenient:
// absent or mistyped values degrade to nil or false.
type Fields map[string]any

// scalar returns the field as a canonical value. Objects and arrays are
// kept as their JSON text so the record only carries scalars.
func (f Fields) scalar(key string) any {
	switch v := f[key].(type) {
	case nil:
		return nil
	case string, bool, float64:
		return v
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return n
		}
		return v.String()
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	}
}

// isOne matches the sender's numeric "on" flag. JSON true counts as 1.
func (f Fields) isOne(key string) bool {
	switch v := f[key].(type) {
	case float64:
		return v == 1
	case int:
		return v == 1
	case int64:
		return v == 1
	case json.Number:
		n, err := v.Float64()
		return err == nil && n == 1
	case bool:
		return v
	default:
		return false
	}
}

// float parses numbers and numeric strings. Anything else is nil.
func (f Fields) float(key string) any {
	switch v := f[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		if n, err := v.Float64(); err == nil {
			return n
		}
		return nil
	case bool:
		if v {
			return 1.0
		}
		return 0.0
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return n
	default:
		return nil
	}
}

// truthy follows the usual JSON truthiness: zero values and empty
// containers are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case int64:
		return t != 0
	case json.Number:
		n, err := t.Float64()
		return err == nil && n != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
