package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Record is the canonical telemetry for one reading. Values are string,
// float64, bool or nil. A Record is not modified after NewRecord returns.
type Record struct {
	System    Subsystem
	Name      string
	Timestamp time.Time
	values    map[string]any
}

func NewRecord(system Subsystem, name string, ts time.Time, values map[string]any) *Record {
	cp := make(map[string]any, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return &Record{
		System:    system,
		Name:      name,
		Timestamp: ts.UTC(),
		values:    cp,
	}
}

func (r *Record) Len() int {
	return len(r.values)
}

// Value returns the raw canonical value. ok is false when the field is absent.
func (r *Record) Value(col string) (any, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Float returns the value as a float64 when it holds a number.
func (r *Record) Float(col string) (float64, bool) {
	switch n := r.values[col].(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Text renders a field for messages. Absent and null fields become fallback.
func (r *Record) Text(col, fallback string) string {
	v, ok := r.values[col]
	if !ok || v == nil {
		return fallback
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Columns returns a copy of the canonical values plus system_name and timestamp.
func (r *Record) Columns() map[string]any {
	out := make(map[string]any, len(r.values)+2)
	for k, v := range r.values {
		out[k] = v
	}
	out[ColSystemName] = r.Name
	out[ColTimestamp] = r.Timestamp
	return out
}
