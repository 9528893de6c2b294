package pairing

import (
	"github.com/roach88/shelterpair/internal/record"
)

// BindEntries converts a cleaned intake table into entry events.
//
// Returns a SCHEMA_MISMATCH error naming every required column that is
// absent. An empty date cell binds to the zero Date and is reported later by
// Sequence; a non-empty cell that is not YYYY-MM-DD fails here.
// Columns outside cols end up in EntryEvent.Extra.
func BindEntries(t record.Table, cols record.EntryColumns) ([]record.EntryEvent, error) {
	cols = cols.WithDefaults()
	idx, err := resolve("entries", t, cols.Required())
	if err != nil {
		return nil, err
	}
	extra := extraColumns(t, cols.Required())

	events := make([]record.EntryEvent, 0, t.Len())
	for i, row := range t.Rows {
		cell := func(col int) string { return record.Cell(row, idx[col]) }

		ts, err := bindDate("entries", i, cell(0), cell(1))
		if err != nil {
			return nil, err
		}
		events = append(events, record.EntryEvent{
			EntityID:       cell(0),
			Timestamp:      ts,
			EntryType:      cell(2),
			EntryCondition: cell(3),
			SexAtEntry:     cell(4),
			Name:           cell(5),
			Species:        cell(6),
			Breed:          cell(7),
			Color:          cell(8),
			Extra:          extraValues(row, extra),
		})
	}
	return events, nil
}

// BindExits converts a cleaned outcome table into exit events.
// Same rules as BindEntries; an empty date-of-birth is allowed.
func BindExits(t record.Table, cols record.ExitColumns) ([]record.ExitEvent, error) {
	cols = cols.WithDefaults()
	idx, err := resolve("exits", t, cols.Required())
	if err != nil {
		return nil, err
	}
	extra := extraColumns(t, cols.Required())

	events := make([]record.ExitEvent, 0, t.Len())
	for i, row := range t.Rows {
		cell := func(col int) string { return record.Cell(row, idx[col]) }

		ts, err := bindDate("exits", i, cell(0), cell(1))
		if err != nil {
			return nil, err
		}
		var dob record.Date
		if raw := cell(2); raw != "" {
			dob, err = record.ParseDate(raw)
			if err != nil {
				return nil, NewMissingTimestampError("exits", i, cell(0), raw)
			}
		}
		events = append(events, record.ExitEvent{
			EntityID:    cell(0),
			Timestamp:   ts,
			DateOfBirth: dob,
			ExitType:    cell(3),
			ExitSubtype: cell(4),
			SexAtExit:   cell(5),
			Extra:       extraValues(row, extra),
		})
	}
	return events, nil
}

// resolve maps each required column to its header position.
func resolve(table string, t record.Table, required []string) ([]int, error) {
	idx := make([]int, len(required))
	var missing []string
	for i, col := range required {
		idx[i] = t.Index(col)
		if idx[i] < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, NewSchemaMismatchError(table, missing)
	}
	return idx, nil
}

func bindDate(log string, row int, entityID, raw string) (record.Date, error) {
	if raw == "" {
		return record.Date{}, nil
	}
	d, err := record.ParseDate(raw)
	if err != nil {
		return record.Date{}, NewMissingTimestampError(log, row, entityID, raw)
	}
	return d, nil
}

type extraColumn struct {
	name  string
	index int
}

func extraColumns(t record.Table, required []string) []extraColumn {
	known := make(map[string]bool, len(required))
	for _, c := range required {
		known[c] = true
	}
	var out []extraColumn
	for i, c := range t.Columns {
		if !known[c] {
			out = append(out, extraColumn{name: c, index: i})
		}
	}
	return out
}

func extraValues(row []string, cols []extraColumn) map[string]string {
	if len(cols) == 0 {
		return nil
	}
	m := make(map[string]string, len(cols))
	for _, c := range cols {
		m[c.name] = record.Cell(row, c.index)
	}
	return m
}
