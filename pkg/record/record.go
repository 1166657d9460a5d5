// Package record defines the schemaless record model shared by the client,
// the table model, and the import/export tooling.
//
// A record is a server-owned JSON object with two reserved members: "id"
// (opaque string, assigned by the API) and "createdAt" (epoch milliseconds,
// assigned by the API). Every other member is free-form and varies per
// record; the set of field names is not fixed across a collection.
package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Reserved member names. These are owned by the remote API and are never
// part of a create or update payload.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
)

// IsReserved reports whether name is a server-owned member.
func IsReserved(name string) bool {
	return name == FieldID || name == FieldCreatedAt
}

// Record is a single remote record. ID and CreatedAt are read-only once
// assigned; Fields holds everything else in document order.
type Record struct {
	ID        string
	CreatedAt int64 // epoch milliseconds, 0 when unset
	Fields    Fields
}

// CreatedTime converts CreatedAt to a local time.Time.
// Returns the zero time when CreatedAt is unset or negative.
func (r Record) CreatedTime() time.Time {
	if r.CreatedAt <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(r.CreatedAt)
}

// AsMap flattens the record into a plain map, reserved members included.
// Used for filter expressions and JSONPath projection.
func (r Record) AsMap() map[string]any {
	m := make(map[string]any, r.Fields.Len()+2)
	if r.ID != "" {
		m[FieldID] = r.ID
	}
	if r.CreatedAt > 0 {
		m[FieldCreatedAt] = r.CreatedAt
	}
	for _, k := range r.Fields.Keys() {
		v, _ := r.Fields.Get(k)
		m[k] = v
	}
	return m
}

// MarshalJSON flattens the record into a single JSON object: id first,
// createdAt second, then the free-form fields in insertion order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeMember := func(k string, v any) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		vb, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		return nil
	}
	if r.ID != "" {
		if err := writeMember(FieldID, r.ID); err != nil {
			return nil, err
		}
	}
	if r.CreatedAt > 0 {
		if err := writeMember(FieldCreatedAt, r.CreatedAt); err != nil {
			return nil, err
		}
	}
	for _, k := range r.Fields.Keys() {
		v, _ := r.Fields.Get(k)
		if err := writeMember(k, v); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON splits a flat JSON object into reserved members and
// free-form fields, preserving document order for the latter.
func (r *Record) UnmarshalJSON(data []byte) error {
	r.ID = ""
	r.CreatedAt = 0
	r.Fields = Fields{}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)

		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("record: field %q: %w", key, err)
		}

		switch key {
		case FieldID:
			r.ID = stringify(val)
		case FieldCreatedAt:
			r.CreatedAt = toEpochMillis(val)
		default:
			r.Fields.Set(key, normalize(val))
		}
	}

	// Closing brace.
	_, err = dec.Token()
	return err
}

// stringify renders a JSON value as its string form. Identifiers are
// expected to be strings but a numeric id from a sloppy backend is
// tolerated rather than rejected.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}

// toEpochMillis coerces a JSON value into epoch milliseconds.
// Unparsable values become 0 (displayed blank), never an error.
func toEpochMillis(v any) int64 {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return int64(f)
		}
	case string:
		var n json.Number = json.Number(t)
		if i, err := n.Int64(); err == nil {
			return i
		}
	case float64:
		return int64(t)
	case int64:
		return t
	}
	return 0
}

// normalize converts json.Number values (from UseNumber decoding) into
// float64/int64 so that field values compare cleanly with values built
// by hand in payloads.
func normalize(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	default:
		return v
	}
}

// valueEqual compares two field values the way a JSON round-trip would.
func valueEqual(a, b any) bool {
	if na, ok := numeric(a); ok {
		if nb, ok := numeric(b); ok {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func numeric(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	return 0, false
}
