// Package ledger is the CSV-backed persistence layer for odds records:
// load, dedupe, merge-preserving-results, save. Files are UTF-8 with a
// BOM so they open cleanly in spreadsheet tools, which is also why
// saves retry: the file may be held open by such a tool.
package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/apovetkin/fonhockey/internal/pkg/models"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

const (
	saveAttempts = 3
	saveBackoff  = 2 * time.Second
)

// Load reads a ledger file, preserving the header's field order. A
// missing file is reported as-is so callers can distinguish it with
// errors.Is(err, os.ErrNotExist) from other I/O failures.
func Load(path string) ([]string, []models.OddsRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	lines, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(lines) == 0 {
		return nil, nil, fmt.Errorf("parse %s: missing header row", path)
	}

	fieldOrder := lines[0]
	rows := make([]models.OddsRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		var rec models.OddsRecord
		for i, name := range fieldOrder {
			if i < len(line) {
				rec.SetField(name, line[i])
			}
		}
		rows = append(rows, rec)
	}
	return fieldOrder, rows, nil
}

// Save atomically rewrites the whole file (header plus all rows) in
// the given field order. The write is retried a bounded number of
// times with backoff to ride out a concurrently-locked file; the last
// error surfaces once attempts are exhausted.
func Save(path string, fieldOrder []string, rows []models.OddsRecord) error {
	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(saveBackoff), saveAttempts-1)

	attempt := 0
	op := func() error {
		attempt++
		if err := writeFile(path, fieldOrder, rows); err != nil {
			slog.Warn("Ledger write failed, retrying", "path", path, "attempt", attempt, "error", err)
			return err
		}
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("save %s after %d attempts: %w", path, attempt, err)
	}
	return nil
}

func writeFile(path string, fieldOrder []string, rows []models.OddsRecord) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(utf8BOM); err != nil {
		tmp.Close()
		return err
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(fieldOrder); err != nil {
		tmp.Close()
		return err
	}
	line := make([]string, len(fieldOrder))
	for i := range rows {
		for j, name := range fieldOrder {
			line[j] = rows[i].Field(name)
		}
		if err := w.Write(line); err != nil {
			tmp.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// EnsureResultColumn appends match_result to the field order if the
// ledger predates settlement runs.
func EnsureResultColumn(fieldOrder []string) []string {
	for _, name := range fieldOrder {
		if name == models.FieldMatchResult {
			return fieldOrder
		}
	}
	return append(fieldOrder, models.FieldMatchResult)
}
