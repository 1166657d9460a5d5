package record

// Fields is an insertion-ordered mapping of field name to JSON-compatible
// value. The record schema is not fixed, so fields are kept as a dynamic
// container rather than a struct; order is preserved so that payloads and
// table columns render the way the server (or a CSV header) ordered them.
//
// The zero value is an empty, ready-to-use mapping.
type Fields struct {
	keys   []string
	values map[string]any
}

// NewFields returns an empty mapping.
func NewFields() Fields {
	return Fields{}
}

// Set assigns a value, appending the key to the order on first assignment.
func (f *Fields) Set(key string, value any) {
	if f.values == nil {
		f.values = make(map[string]any)
	}
	if _, ok := f.values[key]; !ok {
		f.keys = append(f.keys, key)
	}
	f.values[key] = value
}

// Get returns the value for key and whether it is present.
func (f Fields) Get(key string) (any, bool) {
	v, ok := f.values[key]
	return v, ok
}

// Delete removes a key. Removing an absent key is a no-op.
func (f *Fields) Delete(key string) {
	if _, ok := f.values[key]; !ok {
		return
	}
	delete(f.values, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of fields.
func (f Fields) Len() int {
	return len(f.keys)
}

// Keys returns the field names in insertion order.
func (f Fields) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Clone returns an independent copy. Values are shared (they are treated
// as immutable JSON scalars).
func (f Fields) Clone() Fields {
	var out Fields
	for _, k := range f.keys {
		out.Set(k, f.values[k])
	}
	return out
}

// Equal reports whether two mappings hold the same keys and values.
// Key order is ignored; a renamed column is a change, a reordered one
// is not. Numeric values compare by value regardless of Go type.
func (f Fields) Equal(other Fields) bool {
	if len(f.keys) != len(other.keys) {
		return false
	}
	for k, v := range f.values {
		ov, ok := other.values[k]
		if !ok || !valueEqual(v, ov) {
			return false
		}
	}
	return true
}

// WithoutReserved returns a copy with the server-owned members removed.
// Update payloads must pass through this before being sent.
func (f Fields) WithoutReserved() Fields {
	out := f.Clone()
	out.Delete(FieldID)
	out.Delete(FieldCreatedAt)
	return out
}

// FieldsFromMap builds a mapping from a plain map with keys in the given
// order. Keys absent from the map are skipped.
func FieldsFromMap(m map[string]any, order []string) Fields {
	var f Fields
	for _, k := range order {
		if v, ok := m[k]; ok {
			f.Set(k, v)
		}
	}
	return f
}
