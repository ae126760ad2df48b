package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/mesh-intelligence/recordkit/pkg/schema"
)

// SQLite keeps constraint names only in the CREATE statement.
var constraintName = regexp.MustCompile("(?i)CONSTRAINT\\s+[\"`\\[]?([^\\s\"`\\]]+)[\"`\\]]?\\s+FOREIGN\\s+KEY")

// tableInfo is what a Table needs to know about its table.
type tableInfo struct {
	schema.TableSchema
	primaryKey string
	integerKey bool
}

// TableSchema implements schema.Inspector. The name may carry the {{%...}}
// placeholder. A missing table returns nil and no error.
func (b *Backend) TableSchema(table string) (*schema.TableSchema, error) {
	info, err := b.inspect(b.RawTableName(table))
	if err != nil || info == nil {
		return nil, err
	}
	return &info.TableSchema, nil
}

func (b *Backend) inspect(table string) (*tableInfo, error) {
	db, err := b.DB()
	if err != nil {
		return nil, err
	}

	var ddl string
	err = squirrel.Select("sql").
		From("sqlite_master").
		Where(squirrel.Eq{"type": "table", "name": table}).
		RunWith(db).
		QueryRow().
		Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inspect %s: %w", table, err)
	}

	info := &tableInfo{TableSchema: schema.TableSchema{Name: table}}
	for _, m := range constraintName.FindAllStringSubmatch(ddl, -1) {
		info.ForeignKeys = append(info.ForeignKeys, m[1])
	}

	rows, err := db.Query("PRAGMA table_info(" + quoteIdent(table) + ")")
	if err != nil {
		return nil, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("inspect %s columns: %w", table, err)
		}
		info.Columns = append(info.Columns, name)
		if pk == 1 {
			info.primaryKey = name
			info.integerKey = strings.EqualFold(typ, "INTEGER")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("inspect %s columns: %w", table, err)
	}
	return info, nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
