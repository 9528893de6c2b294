package harness

import (
	"errors"
	"fmt"
	"slices"

	"github.com/roach88/shelterpair/internal/pairing"
	"github.com/roach88/shelterpair/internal/record"
	"github.com/roach88/shelterpair/internal/testutil"
)

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true if every expectation held.
	Pass bool `json:"pass"`

	// Records is the published output, nil when pairing failed.
	Records []record.PairedRecord `json:"-"`

	Stats pairing.Stats `json:"stats"`

	// Err is the pairing error, if any.
	Err error `json:"-"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds an expectation failure and marks the result as failed.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
	r.Pass = false
}

// Run pairs the scenario's events and checks the expectations. The returned
// error is reserved for malformed scenarios; pairing failures are reported
// through the Result.
func Run(s *Scenario) (*Result, error) {
	entries, exits, err := Events(s)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	res, pairErr := pairing.Run(entries, exits)
	if pairErr != nil {
		result.Err = pairErr
		checkError(s.Expect, pairErr, result)
		return result, nil
	}
	result.Records = res.Records
	result.Stats = res.Stats

	if s.Expect.Error != "" {
		result.AddError("expected error %s, pairing succeeded with %d records", s.Expect.Error, len(res.Records))
		return result, nil
	}
	checkRows(s.Expect, res.Records, result)
	checkRecords(s.Expect, res.Records, result)
	checkAbsent(s.Expect, res.Records, result)
	checkStats(s.Expect, res.Stats, result)
	return result, nil
}

// Events builds the scenario's entry and exit events.
func Events(s *Scenario) ([]record.EntryEvent, []record.ExitEvent, error) {
	entries := make([]record.EntryEvent, 0, len(s.Entries))
	for i, in := range s.Entries {
		if err := checkDate(in.Timestamp); err != nil {
			return nil, nil, fmt.Errorf("scenario %s: entries[%d]: %w", s.Name, i, err)
		}
		e := testutil.Entry(in.EntityID, in.Timestamp)
		override(&e.EntryType, in.EntryType)
		override(&e.EntryCondition, in.EntryCondition)
		override(&e.SexAtEntry, in.Sex)
		override(&e.Name, in.Name)
		override(&e.Species, in.Species)
		override(&e.Breed, in.Breed)
		override(&e.Color, in.Color)
		entries = append(entries, e)
	}

	exits := make([]record.ExitEvent, 0, len(s.Exits))
	for i, in := range s.Exits {
		if err := checkDate(in.Timestamp); err != nil {
			return nil, nil, fmt.Errorf("scenario %s: exits[%d]: %w", s.Name, i, err)
		}
		if err := checkDate(in.DateOfBirth); err != nil {
			return nil, nil, fmt.Errorf("scenario %s: exits[%d]: date_of_birth: %w", s.Name, i, err)
		}
		x := testutil.Exit(in.EntityID, in.Timestamp)
		if in.DateOfBirth != "" {
			x.DateOfBirth = record.MustDate(in.DateOfBirth)
		}
		override(&x.ExitType, in.ExitType)
		override(&x.ExitSubtype, in.ExitSubtype)
		override(&x.SexAtExit, in.Sex)
		exits = append(exits, x)
	}
	return entries, exits, nil
}

func checkDate(s string) error {
	if s == "" {
		return nil
	}
	_, err := record.ParseDate(s)
	return err
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func checkError(e Expect, err error, result *Result) {
	var pe *pairing.PairingError
	if !errors.As(err, &pe) {
		result.AddError("unexpected non-pairing error: %v", err)
		return
	}
	if e.Error == "" {
		result.AddError("pairing failed: %v", err)
		return
	}
	if pe.Code != e.Error {
		result.AddError("expected error %s, got %s", e.Error, pe.Code)
	}
}

func checkRows(e Expect, records []record.PairedRecord, result *Result) {
	if e.Rows != nil && len(records) != *e.Rows {
		result.AddError("expected %d rows, got %d", *e.Rows, len(records))
	}
}

func checkRecords(e Expect, records []record.PairedRecord, result *Result) {
	for i, want := range e.Records {
		id, ts := *want["entity_id"], *want["entry_timestamp"]
		idx := slices.IndexFunc(records, func(r record.PairedRecord) bool {
			return r.EntityID == id && r.EntryTimestamp.String() == ts
		})
		if idx < 0 {
			result.AddError("records[%d]: no record for entity=%s entry_timestamp=%s", i, id, ts)
			continue
		}

		got := records[idx].Map()
		for _, col := range record.OutputColumns {
			wantVal, ok := want[col]
			if !ok {
				continue
			}
			gotVal := got[col]
			switch {
			case wantVal == nil && gotVal != nil:
				result.AddError("records[%d] (entity=%s): %s = %q, want null", i, id, col, gotVal)
			case wantVal != nil && gotVal == nil:
				result.AddError("records[%d] (entity=%s): %s = null, want %q", i, id, col, *wantVal)
			case wantVal != nil && gotVal.(string) != *wantVal:
				result.AddError("records[%d] (entity=%s): %s = %q, want %q", i, id, col, gotVal, *wantVal)
			}
		}
		for col := range want {
			if !slices.Contains(record.OutputColumns, col) {
				result.AddError("records[%d]: unknown column %q", i, col)
			}
		}
	}
}

func checkAbsent(e Expect, records []record.PairedRecord, result *Result) {
	for _, id := range e.Absent {
		if slices.ContainsFunc(records, func(r record.PairedRecord) bool { return r.EntityID == id }) {
			result.AddError("entity %s must not appear in the output", id)
		}
	}
}

func checkStats(e Expect, got pairing.Stats, result *Result) {
	if e.Stats == nil {
		return
	}
	check := func(name string, want *int, got int) {
		if want != nil && *want != got {
			result.AddError("stats.%s = %d, want %d", name, got, *want)
		}
	}
	check("orphan_exits", e.Stats.OrphanExits, got.OrphanExits)
	check("unmatched_exits", e.Stats.UnmatchedExits, got.UnmatchedExits)
	check("open_records", e.Stats.OpenRecords, got.OpenRecords)
	check("paired", e.Stats.Paired, got.Paired)
}
