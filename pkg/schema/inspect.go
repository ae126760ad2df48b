package schema

import "slices"

// TableSchema describes an existing table.
type TableSchema struct {
	Name        string
	Columns     []string
	ForeignKeys []string
}

// HasColumn reports whether the table has column.
func (s *TableSchema) HasColumn(column string) bool {
	return slices.Contains(s.Columns, column)
}

// HasForeignKey reports whether the table has a foreign key constraint
// named name.
func (s *TableSchema) HasForeignKey(name string) bool {
	return slices.Contains(s.ForeignKeys, name)
}

// Inspector loads table schemas. Table names may carry the {{%...}}
// placeholder. A missing table yields nil and no error.
type Inspector interface {
	TableSchema(table string) (*TableSchema, error)
}

func lookup(in Inspector, table string, prefix bool) (*TableSchema, error) {
	if prefix {
		table = PrefixedTable(table)
	}
	return in.TableSchema(table)
}

// TablesExist reports whether every table exists. With prefix the names are
// wrapped in the prefix placeholder first.
func TablesExist(in Inspector, tables []string, prefix bool) (bool, error) {
	for _, table := range tables {
		ts, err := lookup(in, table, prefix)
		if err != nil || ts == nil {
			return false, err
		}
	}
	return true, nil
}

// ColumnsExist reports whether table exists and has every column.
func ColumnsExist(in Inspector, table string, columns []string, prefix bool) (bool, error) {
	ts, err := lookup(in, table, prefix)
	if err != nil || ts == nil {
		return false, err
	}
	for _, c := range columns {
		if !ts.HasColumn(c) {
			return false, nil
		}
	}
	return true, nil
}

// ForeignKeysExist reports whether table exists and has every foreign key.
// With createNames each entry is a comma separated column list and the
// conventional constraint name is derived from it.
func ForeignKeysExist(in Inspector, table string, foreignKeys []string, createNames, prefix bool) (bool, error) {
	ts, err := lookup(in, table, prefix)
	if err != nil || ts == nil {
		return false, err
	}
	for _, fk := range foreignKeys {
		if createNames {
			fk = ForeignKeyName(table, SplitColumns(fk), "")
		}
		if !ts.HasForeignKey(fk) {
			return false, nil
		}
	}
	return true, nil
}
