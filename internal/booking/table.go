package booking

import (
	"encoding/csv"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// table is the in-memory form of the persisted ledger file: a header row
// plus string cells. It never leaves this package; callers only see Booking
// values through the Ledger operations.
type table struct {
	cols []string
	rows [][]string
}

func newTable(cols []string) *table {
	return &table{cols: append([]string(nil), cols...)}
}

// readTable loads the whole file. It returns ErrLedgerNotFound when the
// file does not exist so callers can distinguish "no ledger yet" from a
// real read failure.
func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrLedgerNotFound
		}
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	if len(records) == 0 {
		return newTable(nil), nil
	}

	t := &table{cols: records[0]}
	for _, rec := range records[1:] {
		// Short rows are padded so every row spans the full header.
		for len(rec) < len(t.cols) {
			rec = append(rec, "")
		}
		t.rows = append(t.rows, rec[:len(t.cols)])
	}
	return t, nil
}

// ensureColumns back-fills any required column missing from the loaded
// schema with empty strings for all existing rows. Columns already present
// keep their position and values, so running it twice is a no-op.
func (t *table) ensureColumns(required []string) {
	for _, col := range required {
		if t.columnIndex(col) >= 0 {
			continue
		}
		t.cols = append(t.cols, col)
		for i := range t.rows {
			t.rows[i] = append(t.rows[i], "")
		}
	}
}

func (t *table) columnIndex(name string) int {
	for i, c := range t.cols {
		if c == name {
			return i
		}
	}
	return -1
}

// writeAtomic persists the whole table by writing a temp file in the same
// directory and renaming it over the target, so a reader never observes a
// partially written ledger.
func (t *table) writeAtomic(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, ".ledger-*")
	if err != nil {
		return &StorageError{Op: "create temp", Path: dir, Err: err}
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	writeErr := w.Write(t.cols)
	if writeErr == nil {
		writeErr = w.WriteAll(t.rows)
	}
	if writeErr == nil {
		w.Flush()
		writeErr = w.Error()
	}
	if writeErr == nil {
		writeErr = tmp.Sync()
	}
	if closeErr := tmp.Close(); writeErr == nil {
		writeErr = closeErr
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "write", Path: path, Err: writeErr}
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return &StorageError{Op: "rename", Path: path, Err: err}
	}
	return nil
}
