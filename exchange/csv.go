// Package exchange reads and writes the tracker's interchange formats: the
// item CSV (JSON-encoded nested columns) and the full-state JSON document.
package exchange

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kasuganosora/gjtracker/tracker"
)

// Columns is the CSV header written by WriteCSV. The tier column is
// informational; it is recomputed on import.
var Columns = []string{"id", "name", "type", "description", "parents", "tier", "level", "checklists", "notes", "history", "enhanced"}

// ErrMissingColumn is returned when the header lacks name or type.
var ErrMissingColumn = errors.New("csv: missing required column")

// WriteCSV writes one row per item in the given order.
func WriteCSV(w io.Writer, items []*tracker.Item) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, it := range items {
		parents, err := json.Marshal(nonNil(it.Parents))
		if err != nil {
			return fmt.Errorf("csv %s: parents: %w", it.ID, err)
		}
		checklists, err := json.Marshal(it.Checklists)
		if err != nil {
			return fmt.Errorf("csv %s: checklists: %w", it.ID, err)
		}
		history, err := json.Marshal(nonNil(it.History))
		if err != nil {
			return fmt.Errorf("csv %s: history: %w", it.ID, err)
		}
		rec := []string{
			it.ID,
			it.Name,
			string(it.Type),
			it.Description,
			string(parents),
			strconv.Itoa(it.Tier),
			strconv.Itoa(it.Level),
			string(checklists),
			it.Notes,
			string(history),
			strconv.FormatBool(it.Enhanced),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ReadCSV parses an item CSV into import rows. Columns are matched by header
// name in any order; unknown columns are ignored. Empty cells leave the field
// unset so a merge keeps the existing value. A malformed cell fails the whole
// read with its line number.
func ReadCSV(r io.Reader) ([]tracker.ImportRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []tracker.ImportRow{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	for _, req := range []string{"name", "type"} {
		if _, ok := col[req]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, req)
		}
	}

	rows := []tracker.ImportRow{}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		cell := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}
		row, err := parseRecord(cell)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

// parseRecord reads one row. Free-text cells (description, notes) are kept
// verbatim; every other cell is trimmed.
func parseRecord(raw func(string) string) (tracker.ImportRow, error) {
	cell := func(name string) string { return strings.TrimSpace(raw(name)) }
	row := tracker.ImportRow{
		ID:   cell("id"),
		Name: cell("name"),
		Type: cell("type"),
	}
	if v := raw("description"); v != "" {
		row.Description = &v
	}
	if v := raw("notes"); v != "" {
		row.Notes = &v
	}
	if v := cell("level"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return row, fmt.Errorf("level: %w", err)
		}
		row.Level = &n
	}
	if v := cell("enhanced"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return row, fmt.Errorf("enhanced: %w", err)
		}
		row.Enhanced = &b
	}
	if v := cell("parents"); v != "" {
		var ps []tracker.Parent
		if err := json.Unmarshal([]byte(v), &ps); err != nil {
			return row, fmt.Errorf("parents: %w", err)
		}
		row.Parents = &ps
	}
	if v := cell("checklists"); v != "" {
		var cl tracker.Checklists
		if err := json.Unmarshal([]byte(v), &cl); err != nil {
			return row, fmt.Errorf("checklists: %w", err)
		}
		row.Checklists = &cl
	}
	if v := cell("history"); v != "" {
		var h []tracker.HistoryEntry
		if err := json.Unmarshal([]byte(v), &h); err != nil {
			return row, fmt.Errorf("history: %w", err)
		}
		row.History = &h
	}
	return row, nil
}
