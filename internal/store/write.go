package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/shelterpair/internal/record"
)

// WriteRun stores a run and its records in one transaction. Uses
// ON CONFLICT(id) DO NOTHING for idempotency: if the run ID already exists
// nothing is written and no error is returned.
func (s *Store) WriteRun(ctx context.Context, run Run, records []record.PairedRecord) error {
	return s.WriteRunWith(ctx, run, records, nil)
}

// WriteRunWith is WriteRun with publish called inside the transaction, after
// the rows are written and before they are committed. A publish error rolls
// the run back. publish also runs when the run ID already exists.
func (s *Store) WriteRunWith(ctx context.Context, run Run, records []record.PairedRecord, publish func() error) error {
	if publish == nil {
		publish = func() error { return nil }
	}
	if run.Status == "" {
		run.Status = StatusSucceeded
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write run: begin: %w", err)
	}
	defer tx.Rollback()

	inserted, err := s.insertRun(ctx, tx, run)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if !inserted {
		return publish()
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO paired_records
		(run_id, row_num, entity_id, name, species, breed, color, date_of_birth,
		 entry_timestamp, entry_type, entry_condition, sex_at_entry,
		 exit_timestamp, exit_type, exit_subtype, sex_at_exit)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("write run: prepare records: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		args := make([]any, 0, 2+len(record.OutputColumns))
		args = append(args, run.ID, i)
		args = append(args, r.Values()...)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write run: record %d (entity=%s): %w", i, r.EntityID, err)
		}
	}

	if err := publish(); err != nil {
		return fmt.Errorf("write run: publish: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write run: commit: %w", err)
	}
	return nil
}

// WriteFailedRun stores a run that produced no records.
func (s *Store) WriteFailedRun(ctx context.Context, run Run) error {
	run.Status = StatusFailed
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write failed run: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.insertRun(ctx, tx, run); err != nil {
		return fmt.Errorf("write failed run: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write failed run: commit: %w", err)
	}
	return nil
}

func (s *Store) insertRun(ctx context.Context, tx *sql.Tx, run Run) (bool, error) {
	res, err := tx.ExecContext(ctx, s.rebind(`
		INSERT INTO runs
		(id, started_at, finished_at, status, entities, entries, exits,
		 orphan_exits, unmatched_exits, open_records, paired, digest, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`),
		run.ID,
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.Status,
		run.Stats.Entities,
		run.Stats.Entries,
		run.Stats.Exits,
		run.Stats.OrphanExits,
		run.Stats.UnmatchedExits,
		run.Stats.OpenRecords,
		run.Stats.Paired,
		run.Digest,
		run.Error,
	)
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert run: %w", err)
	}
	return n > 0, nil
}
