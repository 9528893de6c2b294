package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/shelterpair/internal/record"
)

// Sources lists the raw files of each kind.
type Sources struct {
	Intakes  []string `json:"intakes"`
	Outcomes []string `json:"outcomes"`
}

// Discover scans dir (not recursively) for CSV files whose name mentions
// "intake" or "outcome", case-insensitively. Paths are returned sorted.
func Discover(dir string) (Sources, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Sources{}, fmt.Errorf("discover: %w", err)
	}

	var src Sources
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		name := strings.ToLower(e.Name())
		path := filepath.Join(dir, e.Name())
		switch {
		case strings.Contains(name, string(KindIntake)):
			src.Intakes = append(src.Intakes, path)
		case strings.Contains(name, string(KindOutcome)):
			src.Outcomes = append(src.Outcomes, path)
		}
	}
	slices.Sort(src.Intakes)
	slices.Sort(src.Outcomes)
	return src, nil
}

// LoadKind reads every file in paths, aligns them by normalised column
// name, and cleans the concatenation once so duplicates across files are
// removed too.
func LoadKind(paths []string, kind Kind, opts Options) (record.Table, CleanStats, error) {
	if len(paths) == 0 {
		return record.Table{}, CleanStats{}, fmt.Errorf("load %s: no input files", kind)
	}

	var tables []record.Table
	for _, p := range paths {
		t, err := ReadFile(p)
		if err != nil {
			return record.Table{}, CleanStats{}, fmt.Errorf("load %s: %w", kind, err)
		}
		tables = append(tables, t)
	}

	return Clean(Concat(tables...), kind, opts)
}

// Concat stacks tables whose headers may differ in order or membership.
// The result header is the union of normalised names in first-seen order;
// absent cells are empty.
func Concat(tables ...record.Table) record.Table {
	var out record.Table
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.Columns {
			n := NormalizeHeader(c)
			if _, ok := pos[n]; !ok {
				pos[n] = len(out.Columns)
				out.Columns = append(out.Columns, n)
			}
		}
	}

	for _, t := range tables {
		dst := make([]int, len(t.Columns))
		for i, c := range t.Columns {
			dst[i] = pos[NormalizeHeader(c)]
		}
		for _, row := range t.Rows {
			r := make([]string, len(out.Columns))
			for i, j := range dst {
				r[j] = record.Cell(row, i)
			}
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
