package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/recordkit/pkg/identifier"
	"github.com/mesh-intelligence/recordkit/pkg/query"
	"github.com/mesh-intelligence/recordkit/pkg/types"
)

// Table loads and persists the rows of one table and publishes lifecycle
// events around every save and delete.
type Table struct {
	name       string
	primaryKey string
	integerKey bool
	columns    []string
	backend    *Backend

	mu       sync.RWMutex
	handlers map[types.LifecycleEvent][]types.EventHandler
}

var (
	_ types.Finder            = (*Table)(nil)
	_ types.LifecycleNotifier = (*Table)(nil)
	_ identifier.Scope        = (*Table)(nil)
)

func newTable(b *Backend, info *tableInfo) *Table {
	return &Table{
		name:       info.Name,
		primaryKey: info.primaryKey,
		integerKey: info.integerKey,
		columns:    slices.Clone(info.Columns),
		backend:    b,
		handlers:   make(map[types.LifecycleEvent][]types.EventHandler),
	}
}

// Name returns the raw table name.
func (t *Table) Name() string {
	return t.name
}

// PrimaryKey returns the primary key column.
func (t *Table) PrimaryKey() string {
	return t.primaryKey
}

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// On registers handler for event. Handlers run in registration order.
func (t *Table) On(event types.LifecycleEvent, handler types.EventHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[event] = append(t.handlers[event], handler)
}

// fire runs the handlers for e. The first error stops the chain.
func (t *Table) fire(e *types.Event) error {
	t.mu.RLock()
	handlers := slices.Clone(t.handlers[e.Name])
	t.mu.RUnlock()
	for _, h := range handlers {
		if err := h(e); err != nil {
			return fmt.Errorf("%s handler: %w", e.Name, err)
		}
	}
	return nil
}

// New returns an unsaved row of this table.
func (t *Table) New() *Row {
	return &Row{table: t, attrs: make(map[string]any)}
}

// Query returns a query over this table.
func (t *Table) Query() *query.Query {
	return query.New(t.name)
}

// Find loads the row with primary key id. On an INTEGER key id may also be
// a record or a numeric string.
// Returns ErrInvalidID for a nil or non-numeric id and ErrNotFound when no
// row matches.
func (t *Table) Find(id any) (*Row, error) {
	if id == nil {
		return nil, types.ErrInvalidID
	}
	if t.integerKey {
		n, err := types.EnsureID(id)
		if err != nil {
			return nil, err
		}
		id = n
	}
	q := t.Query().Where(squirrel.Eq{t.primaryKey: id}).Limit(1)
	rows, err := t.FindAll(q)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s %v", types.ErrNotFound, t.name, id)
	}
	return rows[0], nil
}

// FindByID implements types.Finder.
func (t *Table) FindByID(id any) (types.Record, error) {
	row, err := t.Find(id)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// FindAll runs q and returns every matching row. A nil q loads the whole
// table. Only the table's own columns are kept on the rows.
func (t *Table) FindAll(q *query.Query) ([]*Row, error) {
	if q == nil {
		q = t.Query()
	}
	db, err := t.backend.DB()
	if err != nil {
		return nil, err
	}
	rows, err := q.Builder().RunWith(db).Query()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	var out []*Row
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", t.name, err)
		}
		row := t.New()
		for i, c := range columns {
			if !slices.Contains(t.columns, c) {
				continue
			}
			if b, ok := values[i].([]byte); ok {
				values[i] = slices.Clone(b)
			}
			row.attrs[c] = values[i]
		}
		row.markClean()
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	return out, nil
}

// Save inserts or updates row. With runValidation the before:validate
// handlers run first. A before-* handler error aborts the save; an after-*
// handler error is returned after the row is stored.
func (t *Table) Save(row *Row, runValidation bool) error {
	if row.table != t {
		return fmt.Errorf("%w: row belongs to %s", types.ErrInvalidData, row.table.name)
	}
	if runValidation {
		if err := t.fire(&types.Event{Name: types.EventBeforeValidate, Record: row}); err != nil {
			return err
		}
	}
	if row.IsNewRecord() {
		return t.insert(row)
	}
	return t.update(row)
}

func (t *Table) insert(row *Row) error {
	if err := t.fire(&types.Event{Name: types.EventBeforeInsert, Record: row}); err != nil {
		return err
	}
	db, err := t.backend.DB()
	if err != nil {
		return err
	}

	var (
		columns []string
		values  []any
	)
	for _, c := range t.columns {
		v, ok := row.attrs[c]
		if !ok || (c == t.primaryKey && v == nil) {
			continue
		}
		columns = append(columns, c)
		values = append(values, v)
	}

	var res sql.Result
	if len(columns) == 0 {
		res, err = db.Exec("INSERT INTO " + quoteIdent(t.name) + " DEFAULT VALUES")
	} else {
		res, err = squirrel.Insert(t.name).Columns(columns...).Values(values...).RunWith(db).Exec()
	}
	if err != nil {
		return fmt.Errorf("insert into %s: %w", t.name, err)
	}
	if row.attrs[t.primaryKey] == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert into %s: %w", t.name, err)
		}
		row.attrs[t.primaryKey] = id
	}

	changed := make(map[string]any, len(row.attrs))
	for name := range row.attrs {
		changed[name] = nil
	}
	row.markClean()
	t.backend.logger().Debug("row inserted", "table", t.name, "id", row.PrimaryKey())
	return t.fire(&types.Event{Name: types.EventAfterInsert, Record: row, ChangedAttributes: changed})
}

func (t *Table) update(row *Row) error {
	if err := t.fire(&types.Event{Name: types.EventBeforeUpdate, Record: row}); err != nil {
		return err
	}
	dirty := row.Dirty()

	set := make(map[string]any)
	for name := range dirty {
		if slices.Contains(t.columns, name) {
			set[name] = row.attrs[name]
		}
	}
	if len(set) > 0 {
		db, err := t.backend.DB()
		if err != nil {
			return err
		}
		_, err = squirrel.Update(t.name).
			SetMap(set).
			Where(squirrel.Eq{t.primaryKey: row.old[t.primaryKey]}).
			RunWith(db).
			Exec()
		if err != nil {
			return fmt.Errorf("update %s: %w", t.name, err)
		}
	}

	row.markClean()
	t.backend.logger().Debug("row updated", "table", t.name, "id", row.PrimaryKey(), "changed", len(dirty))
	return t.fire(&types.Event{Name: types.EventAfterUpdate, Record: row, ChangedAttributes: dirty})
}

// Delete removes row. Returns ErrNewRecord for a row never inserted.
func (t *Table) Delete(row *Row) error {
	if row.IsNewRecord() {
		return types.ErrNewRecord
	}
	db, err := t.backend.DB()
	if err != nil {
		return err
	}
	_, err = squirrel.Delete(t.name).
		Where(squirrel.Eq{t.primaryKey: row.old[t.primaryKey]}).
		RunWith(db).
		Exec()
	if err != nil {
		return fmt.Errorf("delete from %s: %w", t.name, err)
	}
	return t.fire(&types.Event{Name: types.EventAfterDelete, Record: row})
}

// ExistsByIdentifier implements identifier.Scope.
func (t *Table) ExistsByIdentifier(attribute, value string, exceptID any) (bool, error) {
	db, err := t.backend.DB()
	if err != nil {
		return false, err
	}
	q := t.Query().Where(squirrel.Eq{attribute: value})
	if exceptID != nil {
		q.Where(squirrel.NotEq{t.primaryKey: exceptID})
	}
	return q.Exists(db)
}

// Count returns the number of rows matching q, or of the whole table when q
// is nil.
func (t *Table) Count(q *query.Query) (int64, error) {
	if q == nil {
		q = t.Query()
	}
	db, err := t.backend.DB()
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.Builder().RemoveColumns().Columns("COUNT(*)").RemoveLimit().RunWith(db).QueryRow().Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", t.name, err)
	}
	return n, nil
}
