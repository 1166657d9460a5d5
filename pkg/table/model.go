// Package table holds the in-memory tabular projection of the remote record
// collection: filtering, timestamp display, per-row deletion marks, batch
// diffing, and the KPI counters shown on the dashboard.
package table

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/recadm/recadm/pkg/client"
	"github.com/recadm/recadm/pkg/record"
)

// Model is a snapshot of the remote collection. It is never authoritative;
// any mutation invalidates it and forces a reload.
type Model struct {
	records []record.Record
	marked  map[string]bool
}

// NewModel wraps a fetched record slice.
func NewModel(records []record.Record) *Model {
	return &Model{
		records: records,
		marked:  make(map[string]bool),
	}
}

// Load fetches the full collection through the client.
func Load(ctx context.Context, c client.Client) (*Model, error) {
	records, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return NewModel(records), nil
}

// Records returns the snapshot in server order.
func (m *Model) Records() []record.Record {
	return m.records
}

// Total is the record count KPI.
func (m *Model) Total() int {
	return len(m.records)
}

// CreatedToday counts records whose creation timestamp falls on the same
// calendar day as now, in now's location.
func (m *Model) CreatedToday(now time.Time) int {
	y, mo, d := now.Date()
	count := 0
	for _, rec := range m.records {
		ct := rec.CreatedTime()
		if ct.IsZero() {
			continue
		}
		cy, cmo, cd := ct.In(now.Location()).Date()
		if cy == y && cmo == mo && cd == d {
			count++
		}
	}
	return count
}

// Columns returns the display columns: reserved members first, then the
// union of free-form field names in first-seen order.
func (m *Model) Columns() []string {
	cols := []string{record.FieldID, record.FieldCreatedAt}
	seen := map[string]bool{record.FieldID: true, record.FieldCreatedAt: true}
	for _, rec := range m.records {
		for _, k := range rec.Fields.Keys() {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	return cols
}

// ByID returns the snapshot keyed by identifier. Records without an id are
// skipped; they cannot take part in update or delete flows.
func (m *Model) ByID() map[string]record.Fields {
	out := make(map[string]record.Fields, len(m.records))
	for _, rec := range m.records {
		if rec.ID != "" {
			out[rec.ID] = rec.Fields
		}
	}
	return out
}

// Lookup returns the record with the given id.
func (m *Model) Lookup(id string) (record.Record, bool) {
	for _, rec := range m.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return record.Record{}, false
}

// Matches reports whether any field of the record, in its string form,
// contains the query, case-insensitively. Reserved members are searched
// too. An empty query matches everything.
func Matches(rec record.Record, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(rec.ID), query) {
		return true
	}
	for _, k := range rec.Fields.Keys() {
		v, _ := rec.Fields.Get(k)
		if strings.Contains(strings.ToLower(CellString(v)), query) {
			return true
		}
	}
	return false
}

// Filter returns the records matching the free-text query, in order.
func (m *Model) Filter(query string) []record.Record {
	out := make([]record.Record, 0, len(m.records))
	for _, rec := range m.records {
		if Matches(rec, query) {
			out = append(out, rec)
		}
	}
	return out
}

// CellString renders a field value for display and search.
// Nil renders blank, everything else via fmt.
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

// DisplayCreatedAt renders the creation timestamp as a local date/time
// string. Unset or unparsable timestamps render blank, never an error.
func DisplayCreatedAt(rec record.Record) string {
	ct := rec.CreatedTime()
	if ct.IsZero() {
		return ""
	}
	return ct.Format("2006-01-02 15:04:05")
}

// Mark flags a row for deletion. The flag is view state only: it is never
// serialized and never part of an update payload.
func (m *Model) Mark(id string) {
	if id != "" {
		m.marked[id] = true
	}
}

// Unmark clears a deletion flag.
func (m *Model) Unmark(id string) {
	delete(m.marked, id)
}

// IsMarked reports whether a row is flagged for deletion.
func (m *Model) IsMarked(id string) bool {
	return m.marked[id]
}

// MarkedIDs returns flagged row ids in snapshot order.
func (m *Model) MarkedIDs() []string {
	out := make([]string, 0, len(m.marked))
	for _, rec := range m.records {
		if m.marked[rec.ID] {
			out = append(out, rec.ID)
		}
	}
	return out
}
