package sqlite

import (
	"fmt"
	"maps"
	"reflect"

	"github.com/spf13/cast"

	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Row is one record of a Table. It remembers the values it was loaded or
// last saved with so a save can report which attributes changed.
type Row struct {
	table *Table
	attrs map[string]any
	old   map[string]any // nil until the row is stored
}

var (
	_ types.Record = (*Row)(nil)
	_ types.Cloner = (*Row)(nil)
)

// Table returns the table the row belongs to.
func (r *Row) Table() *Table {
	return r.table
}

func (r *Row) Attribute(name string) any {
	return r.attrs[name]
}

func (r *Row) SetAttribute(name string, value any) {
	r.attrs[name] = value
}

// Attributes returns a copy of every attribute.
func (r *Row) Attributes() map[string]any {
	return maps.Clone(r.attrs)
}

// SetAttributes assigns every entry of values.
func (r *Row) SetAttributes(values map[string]any) {
	maps.Copy(r.attrs, values)
}

func (r *Row) Save(runValidation bool) error {
	return r.table.Save(r, runValidation)
}

// Delete removes the row from its table.
func (r *Row) Delete() error {
	return r.table.Delete(r)
}

func (r *Row) IsNewRecord() bool {
	return r.old == nil
}

func (r *Row) PrimaryKey() any {
	if r.IsNewRecord() {
		return nil
	}
	return r.attrs[r.table.primaryKey]
}

// Clone returns an independent copy sharing only the table.
func (r *Row) Clone() types.Record {
	c := &Row{table: r.table, attrs: maps.Clone(r.attrs)}
	if r.old != nil {
		c.old = maps.Clone(r.old)
	}
	return c
}

// Dirty returns the attributes modified since the row was loaded or saved,
// mapped to their previous values.
func (r *Row) Dirty() map[string]any {
	dirty := make(map[string]any)
	for name, v := range r.attrs {
		old, ok := r.old[name]
		if !ok || !sameValue(old, v) {
			dirty[name] = old
		}
	}
	return dirty
}

func (r *Row) markClean() {
	r.old = maps.Clone(r.attrs)
}

// sameValue compares a stored value with an assigned one. The driver
// returns int64 and string where callers often assign int or []byte, so
// scalars are compared by their string form.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.DeepEqual(a, b) {
		return true
	}
	as, errA := cast.ToStringE(a)
	bs, errB := cast.ToStringE(b)
	if errA != nil || errB != nil {
		return false
	}
	return as == bs
}

func (r *Row) String() string {
	return fmt.Sprintf("%s#%v", r.table.name, r.PrimaryKey())
}
