package sqlite

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/Masterminds/squirrel"
)

// readJSONL reads a JSONL file and returns each non-empty, parseable line as
// a json.RawMessage. Malformed lines are skipped.
func readJSONL(path string) ([]json.RawMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var records []json.RawMessage
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 || !json.Valid(line) {
			continue
		}
		records = append(records, json.RawMessage(slices.Clone(line)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return records, nil
}

// writeJSONL atomically writes records to a JSONL file using the temp-file,
// fsync, rename pattern.
func writeJSONL(path string, records []json.RawMessage) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	fail := func(format string, err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf(format, err)
	}

	w := bufio.NewWriter(tmp)
	for _, rec := range records {
		if _, err := w.Write(rec); err != nil {
			return fail("writing record: %w", err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fail("writing newline: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fail("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fail("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Export writes every row of the table to path, one JSON object per line.
// No lifecycle events are fired.
func (t *Table) Export(path string) error {
	rows, err := t.FindAll(t.Query().OrderBy(t.primaryKey))
	if err != nil {
		return err
	}
	records := make([]json.RawMessage, 0, len(rows))
	for _, row := range rows {
		data, err := json.Marshal(row.attrs)
		if err != nil {
			return fmt.Errorf("encode %s: %w", row, err)
		}
		records = append(records, data)
	}
	return writeJSONL(path, records)
}

// Import loads rows from a JSONL file written by Export. Loading is
// transactional: all rows are stored or none. Malformed lines are skipped,
// fields that are not columns of the table are ignored and existing rows
// with the same primary key are replaced. No lifecycle events are fired.
// Returns the number of rows stored.
func (t *Table) Import(path string) (int, error) {
	records, err := readJSONL(path)
	if err != nil {
		return 0, err
	}
	db, err := t.backend.DB()
	if err != nil {
		return 0, err
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for i, raw := range records {
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			// Valid JSON that is not an object.
			continue
		}
		var (
			columns []string
			values  []any
		)
		for _, c := range t.columns {
			if v, ok := fields[c]; ok {
				columns = append(columns, c)
				values = append(values, v)
			}
		}
		if len(columns) == 0 {
			continue
		}
		_, err := squirrel.Insert(t.name).
			Options("OR REPLACE").
			Columns(columns...).
			Values(values...).
			RunWith(tx).
			Exec()
		if err != nil {
			return 0, fmt.Errorf("import %s record %d: %w", t.name, i+1, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import transaction: %w", err)
	}
	t.backend.logger().Debug("rows imported", "table", t.name, "rows", n)
	return n, nil
}
