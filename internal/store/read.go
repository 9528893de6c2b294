package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/shelterpair/internal/record"
)

const runColumns = `id, started_at, finished_at, status, entities, entries, exits,
	orphan_exits, unmatched_exits, open_records, paired, digest, error`

// GetRun returns the run with the given ID or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+runColumns+` FROM runs WHERE id = ?`), id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. limit <= 0 means no limit.
//
// Returns an empty slice (not nil) if no runs are stored.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id ASC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ReadRecords returns a run's records in emitted order, or ErrNotFound if
// the run does not exist.
func (s *Store) ReadRecords(ctx context.Context, runID string) ([]record.PairedRecord, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`
		SELECT entity_id, name, species, breed, color, date_of_birth,
		       entry_timestamp, entry_type, entry_condition, sex_at_entry,
		       exit_timestamp, exit_type, exit_subtype, sex_at_exit
		FROM paired_records
		WHERE run_id = ?
		ORDER BY row_num ASC
	`), runID)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	defer rows.Close()

	records := []record.PairedRecord{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("read records: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run               Run
		started, finished string
	)
	err := sc.Scan(
		&run.ID,
		&started,
		&finished,
		&run.Status,
		&run.Stats.Entities,
		&run.Stats.Entries,
		&run.Stats.Exits,
		&run.Stats.OrphanExits,
		&run.Stats.UnmatchedExits,
		&run.Stats.OpenRecords,
		&run.Stats.Paired,
		&run.Digest,
		&run.Error,
	)
	if err != nil {
		return Run{}, err
	}
	if run.StartedAt, err = parseTime(started); err != nil {
		return Run{}, err
	}
	if run.FinishedAt, err = parseTime(finished); err != nil {
		return Run{}, err
	}
	return run, nil
}

func scanRecord(sc scanner) (record.PairedRecord, error) {
	var (
		r                     record.PairedRecord
		dob, exitTS           sql.NullString
		entryTS               string
		exitType, exitSubtype sql.NullString
		sexAtExit             sql.NullString
	)
	err := sc.Scan(
		&r.EntityID,
		&r.Name,
		&r.Species,
		&r.Breed,
		&r.Color,
		&dob,
		&entryTS,
		&r.EntryType,
		&r.EntryCondition,
		&r.SexAtEntry,
		&exitTS,
		&exitType,
		&exitSubtype,
		&sexAtExit,
	)
	if err != nil {
		return record.PairedRecord{}, err
	}

	if entryTS != "" {
		if r.EntryTimestamp, err = record.ParseDate(entryTS); err != nil {
			return record.PairedRecord{}, fmt.Errorf("entity %s: entry_timestamp: %w", r.EntityID, err)
		}
	}
	if r.DateOfBirth, err = nullDate(dob); err != nil {
		return record.PairedRecord{}, fmt.Errorf("entity %s: date_of_birth: %w", r.EntityID, err)
	}
	if r.ExitTimestamp, err = nullDate(exitTS); err != nil {
		return record.PairedRecord{}, fmt.Errorf("entity %s: exit_timestamp: %w", r.EntityID, err)
	}
	r.ExitType = nullString(exitType)
	r.ExitSubtype = nullString(exitSubtype)
	r.SexAtExit = nullString(sexAtExit)
	return r, nil
}

func nullDate(ns sql.NullString) (*record.Date, error) {
	if !ns.Valid || ns.String == "" {
		return nil, nil
	}
	d, err := record.ParseDate(ns.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
