package table

import (
	"sort"

	"github.com/recadm/recadm/pkg/record"
)

// DeletionFlag is the transient grid column used to tick rows for deletion.
// It is stripped from every payload before comparison or sending.
const DeletionFlag = "_delete"

// Change is one row whose field mapping differs between two snapshots.
type Change struct {
	ID     string
	Fields record.Fields
}

// Diff compares two snapshots keyed by identifier and returns one Change
// per row present in both whose mapping differs. The comparison excludes
// the deletion flag and the reserved members; rows present in only one
// snapshot are ignored (creation and deletion have their own flows).
// Changes come back sorted by id for deterministic batches.
func Diff(before, after map[string]record.Fields) []Change {
	var changes []Change
	for id, afterFields := range after {
		beforeFields, ok := before[id]
		if !ok {
			continue
		}
		b := stripTransient(beforeFields)
		a := stripTransient(afterFields)
		if !b.Equal(a) {
			changes = append(changes, Change{ID: id, Fields: a})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes
}

func stripTransient(f record.Fields) record.Fields {
	out := f.WithoutReserved()
	out.Delete(DeletionFlag)
	return out
}
