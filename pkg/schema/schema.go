// Package schema names foreign keys and indexes the conventional way,
// handles the {{%table}} prefix placeholder and checks that tables, columns
// and foreign keys exist.
package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MaxNameLength caps generated constraint and index names.
const MaxNameLength = 64

// ForeignKeyAction is an ON DELETE / ON UPDATE action.
type ForeignKeyAction int

// Foreign key actions.
const (
	Restrict ForeignKeyAction = iota + 1
	Cascade
	SetNull
	NoAction
)

// String returns the SQL keyword of the action, or "" when unknown.
func (a ForeignKeyAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	case NoAction:
		return "NO ACTION"
	}
	return ""
}

// Camelize turns "send_email" into "SendEmail". Every run of characters
// other than letters and digits separates words and is dropped.
func Camelize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	title := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range words {
		b.WriteString(title.String(w))
	}
	return b.String()
}

// SplitColumns splits a comma separated column list.
func SplitColumns(columns string) []string {
	var out []string
	for _, c := range strings.Split(columns, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

// ForeignKeyName returns name when set, otherwise fk_<Columns>_<Table> with
// both parts camelized and the table unprefixed. The result is capped at
// MaxNameLength bytes.
func ForeignKeyName(table string, columns []string, name string) string {
	if name == "" {
		name = "fk_" + Camelize(strings.Join(columns, "_")) + "_" + Camelize(UnprefixedTable(table))
	}
	return capName(name)
}

// IndexName returns name when set, otherwise idx_ followed by the
// camelized columns joined with "_". The result is capped at MaxNameLength
// bytes.
func IndexName(columns []string, name string) string {
	if name == "" {
		parts := make([]string, len(columns))
		for i, c := range columns {
			parts[i] = Camelize(c)
		}
		name = "idx_" + strings.Join(parts, "_")
	}
	return capName(name)
}

func capName(name string) string {
	if len(name) <= MaxNameLength {
		return name
	}
	name = name[:MaxNameLength]
	for !utf8.ValidString(name) {
		name = name[:len(name)-1]
	}
	return name
}

// PrefixedTable wraps table in the {{%...}} prefix placeholder unless it is
// already wrapped.
func PrefixedTable(table string) string {
	if strings.HasPrefix(table, "{{%") {
		return table
	}
	return "{{%" + table + "}}"
}

// UnprefixedTable strips the {{%...}} placeholder.
func UnprefixedTable(table string) string {
	if strings.HasPrefix(table, "{{%") && strings.HasSuffix(table, "}}") {
		return table[3 : len(table)-2]
	}
	return table
}

// RawTableName resolves the placeholder against the real table prefix.
func RawTableName(table, prefix string) string {
	if strings.HasPrefix(table, "{{%") && strings.HasSuffix(table, "}}") {
		return prefix + UnprefixedTable(table)
	}
	return strings.TrimSuffix(strings.TrimPrefix(table, "{{"), "}}")
}
