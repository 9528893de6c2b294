package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/shelterpair/internal/record"
)

// Kind selects the kind-specific cleaning rules.
type Kind string

const (
	KindIntake  Kind = "intake"
	KindOutcome Kind = "outcome"
)

// Column names the cleaning rules depend on, after header normalisation.
const (
	ColAnimalID    = "animal-id"
	ColDatetime    = "datetime"
	ColDateOfBirth = "date-of-birth"
	ColOutcomeType = "outcome-type"
	ColMonthYear   = "monthyear"
	ColFoundLoc    = "found-location"
)

// ErrMissingColumn is returned when a column the cleaning rules need is
// absent from the input.
var ErrMissingColumn = errors.New("missing column")

// DateLayouts are the timestamp formats seen in shelter exports, tried in
// order.
var DateLayouts = []string{
	"01/02/2006 03:04:05 PM",
	"01/02/2006 03:04 PM",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	record.DateLayout,
}

// DateError reports a cell that matches none of DateLayouts.
type DateError struct {
	Row    int
	Column string
	Value  string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("row %d: column %s: unrecognised date %q", e.Row, e.Column, e.Value)
}

// Options tunes cleaning. The zero value applies the defaults.
type Options struct {
	// UnknownSex replaces empty sex cells. Default "Unknown".
	UnknownSex string

	// DropColumns replaces the default dropped columns for the kind.
	// nil keeps the defaults; an empty non-nil slice drops nothing.
	DropColumns []string

	// Columns the rules key on. Empty names fall back to ColAnimalID,
	// ColDatetime, ColDateOfBirth and ColOutcomeType. An empty SexColumn
	// selects the first column whose name starts with "sex".
	IDColumn          string
	DatetimeColumn    string
	DateOfBirthColumn string
	ExitTypeColumn    string
	SexColumn         string
}

func keyColumn(name, def string) string {
	if name == "" {
		return def
	}
	return NormalizeHeader(name)
}

// DefaultDropColumns returns the columns the shelter exports carry but the
// pairing never uses.
func DefaultDropColumns(kind Kind) []string {
	if kind == KindIntake {
		return []string{ColMonthYear, ColFoundLoc}
	}
	return []string{ColMonthYear}
}

// CleanStats counts what Clean changed.
type CleanStats struct {
	RowsIn          int `json:"rows_in"`
	RowsOut         int `json:"rows_out"`
	Duplicates      int `json:"duplicates"`
	MissingExitType int `json:"missing_exit_type"`
	SexImputed      int `json:"sex_imputed"`
}

var lower = cases.Lower(language.Und)

// NormalizeHeader lower-cases a column name and replaces spaces with
// hyphens. "Animal ID" becomes "animal-id". A byte-order mark is dropped.
func NormalizeHeader(s string) string {
	s = strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
	return strings.ReplaceAll(lower.String(s), " ", "-")
}

// NormalizeDate parses s with DateLayouts and returns it as YYYY-MM-DD.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return record.NewDate(t).String(), true
		}
	}
	return "", false
}

// Clean applies the cleaning rules for kind to t and returns a new table.
// t is not modified.
func Clean(t record.Table, kind Kind, opts Options) (record.Table, CleanStats, error) {
	if opts.UnknownSex == "" {
		opts.UnknownSex = "Unknown"
	}
	drop := opts.DropColumns
	if drop == nil {
		drop = DefaultDropColumns(kind)
	}

	stats := CleanStats{RowsIn: t.Len()}

	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = NormalizeHeader(c)
	}
	work := record.Table{Columns: header}

	idCol := keyColumn(opts.IDColumn, ColAnimalID)
	dtCol := keyColumn(opts.DatetimeColumn, ColDatetime)
	idIdx, dtIdx := work.Index(idCol), work.Index(dtCol)
	if idIdx < 0 {
		return record.Table{}, stats, fmt.Errorf("clean %s: %w %q", kind, ErrMissingColumn, idCol)
	}
	if dtIdx < 0 {
		return record.Table{}, stats, fmt.Errorf("clean %s: %w %q", kind, ErrMissingColumn, dtCol)
	}
	sexIdx := sexColumn(header)
	if opts.SexColumn != "" {
		sexIdx = work.Index(NormalizeHeader(opts.SexColumn))
	}
	dobCol := keyColumn(opts.DateOfBirthColumn, ColDateOfBirth)
	dobIdx, typeIdx := -1, -1
	if kind == KindOutcome {
		typeCol := keyColumn(opts.ExitTypeColumn, ColOutcomeType)
		dobIdx = work.Index(dobCol)
		typeIdx = work.Index(typeCol)
		if typeIdx < 0 {
			return record.Table{}, stats, fmt.Errorf("clean %s: %w %q", kind, ErrMissingColumn, typeCol)
		}
	}

	keep := keptColumns(header, drop)
	out := record.Table{Columns: pick(header, keep)}
	seen := make(map[string]bool, t.Len())

	for i, raw := range t.Rows {
		row := make([]string, len(header))
		for j := range header {
			row[j] = norm.NFC.String(strings.TrimSpace(record.Cell(raw, j)))
		}

		if sexIdx >= 0 && row[sexIdx] == "" {
			row[sexIdx] = opts.UnknownSex
			stats.SexImputed++
		}

		d, ok := NormalizeDate(row[dtIdx])
		if !ok {
			return record.Table{}, stats, fmt.Errorf("clean %s: %w", kind, &DateError{Row: i, Column: dtCol, Value: row[dtIdx]})
		}
		row[dtIdx] = d

		key := row[idIdx] + "\x00" + row[dtIdx]
		if seen[key] {
			stats.Duplicates++
			continue
		}
		seen[key] = true

		if kind == KindOutcome {
			if row[typeIdx] == "" {
				stats.MissingExitType++
				continue
			}
			if dobIdx >= 0 && row[dobIdx] != "" {
				dob, ok := NormalizeDate(row[dobIdx])
				if !ok {
					return record.Table{}, stats, fmt.Errorf("clean %s: %w", kind, &DateError{Row: i, Column: dobCol, Value: row[dobIdx]})
				}
				row[dobIdx] = dob
			}
		}

		out.Rows = append(out.Rows, pick(row, keep))
	}

	stats.RowsOut = out.Len()
	return out, stats, nil
}

// sexColumn returns the first column whose name starts with "sex".
func sexColumn(header []string) int {
	for i, c := range header {
		if strings.HasPrefix(c, "sex") {
			return i
		}
	}
	return -1
}

func keptColumns(header, drop []string) []int {
	dropped := make(map[string]bool, len(drop))
	for _, d := range drop {
		dropped[NormalizeHeader(d)] = true
	}
	keep := make([]int, 0, len(header))
	for i, c := range header {
		if !dropped[c] {
			keep = append(keep, i)
		}
	}
	return keep
}

func pick(row []string, idx []int) []string {
	out := make([]string, len(idx))
	for i, j := range idx {
		out[i] = row[j]
	}
	return out
}
