// Package pipeline runs the full reconciliation: load and clean the input
// logs, bind them to events, pair, publish, persist, and record metrics.
//
// The pairing core is one atomic step. Context cancellation is honoured
// between stages, never inside the core.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/ingest"
	"github.com/roach88/shelterpair/internal/metrics"
	"github.com/roach88/shelterpair/internal/output"
	"github.com/roach88/shelterpair/internal/pairing"
	"github.com/roach88/shelterpair/internal/record"
	"github.com/roach88/shelterpair/internal/store"
)

// ErrNoInput is returned when the config names no input files.
var ErrNoInput = errors.New("no input files")

// RunStore records runs. *store.Store implements it.
type RunStore interface {
	WriteRunWith(ctx context.Context, run store.Run, records []record.PairedRecord, publish func() error) error
	WriteFailedRun(ctx context.Context, run store.Run) error
}

// Runner executes pairing runs. Store and Metrics are optional.
type Runner struct {
	Config  *config.Config
	Store   RunStore
	Metrics *metrics.Metrics
	RunIDs  RunIDGenerator
	Now     func() time.Time
	Logger  *slog.Logger
}

// RunError is returned by Run for a failed run. It reads as its cause.
type RunError struct {
	RunID string
	Err   error
}

func (e *RunError) Error() string { return e.Err.Error() }

func (e *RunError) Unwrap() error { return e.Err }

// CleanReport holds the cleaning stats of both logs.
type CleanReport struct {
	Intakes  ingest.CleanStats `json:"intakes"`
	Outcomes ingest.CleanStats `json:"outcomes"`
}

// Report summarises a successful run.
type Report struct {
	RunID    string         `json:"run_id"`
	Sources  ingest.Sources `json:"sources"`
	Stats    pairing.Stats  `json:"stats"`
	Clean    CleanReport    `json:"clean"`
	Digest   string         `json:"digest"`
	Output   string         `json:"output,omitempty"`
	Duration time.Duration  `json:"duration_ns"`

	// Records is the published output, in emitted order.
	Records []record.PairedRecord `json:"-"`
}

// Run performs one run. The output file and the stored run are published
// together: the file is moved into place inside the store transaction, so
// on any failure neither is left behind. A failed run is then stored when a
// store is configured and failure metrics are recorded.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	r.defaults()
	started := r.Now()
	runID := r.RunIDs.Generate()
	log := r.Logger.With("run_id", runID)

	report, sink, err := r.run(ctx, log, runID)
	finished := r.Now()
	if err != nil {
		r.fail(log, runID, started, finished, err)
		return nil, &RunError{RunID: runID, Err: err}
	}
	report.Duration = finished.Sub(started)

	if err := r.publish(ctx, log, report, sink, started, finished); err != nil {
		r.fail(log, runID, started, finished, err)
		return nil, &RunError{RunID: runID, Err: err}
	}

	if r.Metrics != nil {
		r.Metrics.Observe(report.Stats, report.Duration, finished)
		r.writeTextfile(log)
	}

	log.Info("run complete",
		"entities", report.Stats.Entities,
		"entries", report.Stats.Entries,
		"exits", report.Stats.Exits,
		"orphan_exits", report.Stats.OrphanExits,
		"unmatched_exits", report.Stats.UnmatchedExits,
		"open_records", report.Stats.OpenRecords,
		"digest", report.Digest,
		"duration", report.Duration,
	)
	return report, nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger, runID string) (*Report, *output.FileSink, error) {
	cfg := r.Config

	src, err := ResolveSources(cfg.Input)
	if err != nil {
		return nil, nil, err
	}
	log.Info("loading inputs", "intakes", len(src.Intakes), "outcomes", len(src.Outcomes))

	intakes, intakeStats, err := ingest.LoadKind(src.Intakes, ingest.KindIntake, CleanOptions(cfg, ingest.KindIntake))
	if err != nil {
		return nil, nil, err
	}
	outcomes, outcomeStats, err := ingest.LoadKind(src.Outcomes, ingest.KindOutcome, CleanOptions(cfg, ingest.KindOutcome))
	if err != nil {
		return nil, nil, err
	}
	log.Debug("inputs cleaned",
		"intake_rows", intakeStats.RowsOut,
		"intake_duplicates", intakeStats.Duplicates,
		"outcome_rows", outcomeStats.RowsOut,
		"outcome_duplicates", outcomeStats.Duplicates,
		"missing_exit_type", outcomeStats.MissingExitType,
	)
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	entries, err := pairing.BindEntries(intakes, cfg.Columns.Entry.WithDefaults())
	if err != nil {
		return nil, nil, err
	}
	exits, err := pairing.BindExits(outcomes, cfg.Columns.Exit.WithDefaults())
	if err != nil {
		return nil, nil, err
	}

	res, err := pairing.Run(entries, exits)
	if err != nil {
		return nil, nil, err
	}
	log.Debug("pairing done", "records", len(res.Records), "orphans", len(res.Orphans))
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	digest, err := output.Digest(res.Records)
	if err != nil {
		return nil, nil, err
	}

	report := &Report{
		RunID:   runID,
		Sources: src,
		Stats:   res.Stats,
		Clean:   CleanReport{Intakes: intakeStats, Outcomes: outcomeStats},
		Digest:  digest,
		Output:  cfg.Output.Path,
		Records: res.Records,
	}

	var sink *output.FileSink
	if cfg.Output.Path != "" {
		if sink, err = stage(ctx, cfg.Output, res.Records); err != nil {
			return nil, nil, err
		}
	}
	return report, sink, nil
}

// ResolveSources returns the explicit file lists, or discovers them in
// in.Dir when both lists are empty.
func ResolveSources(in config.Input) (ingest.Sources, error) {
	src := ingest.Sources{Intakes: in.Intakes, Outcomes: in.Outcomes}
	if len(src.Intakes) == 0 && len(src.Outcomes) == 0 && in.Dir != "" {
		var err error
		if src, err = ingest.Discover(in.Dir); err != nil {
			return ingest.Sources{}, err
		}
	}
	if len(src.Intakes) == 0 || len(src.Outcomes) == 0 {
		return ingest.Sources{}, fmt.Errorf("%w: need at least one intake and one outcome file (intakes=%d, outcomes=%d)",
			ErrNoInput, len(src.Intakes), len(src.Outcomes))
	}
	return src, nil
}

// CleanOptions returns the cleaning options cfg sets for kind.
func CleanOptions(cfg *config.Config, kind ingest.Kind) ingest.Options {
	opts := ingest.Options{UnknownSex: cfg.Clean.UnknownSex}
	if kind == ingest.KindIntake {
		cols := cfg.Columns.Entry.WithDefaults()
		opts.DropColumns = cfg.Clean.DropColumns.Intake
		opts.IDColumn, opts.DatetimeColumn = cols.EntityID, cols.Timestamp
		opts.SexColumn = cols.SexAtEntry
	} else {
		cols := cfg.Columns.Exit.WithDefaults()
		opts.DropColumns = cfg.Clean.DropColumns.Outcome
		opts.IDColumn, opts.DatetimeColumn = cols.EntityID, cols.Timestamp
		opts.DateOfBirthColumn, opts.ExitTypeColumn = cols.DateOfBirth, cols.ExitType
		opts.SexColumn = cols.SexAtExit
	}
	return opts
}

// stage writes records to a sink that is not yet in place.
func stage(ctx context.Context, out config.Output, records []record.PairedRecord) (*output.FileSink, error) {
	sink, err := output.Open(out.Path, out.Format)
	if err != nil {
		return nil, err
	}
	if err := sink.Write(ctx, records); err != nil {
		sink.Abort()
		return nil, err
	}
	return sink, nil
}

// publish commits the staged sink and stores the run. When the store
// fails after the file was moved into place, the file is removed again.
func (r *Runner) publish(ctx context.Context, log *slog.Logger, report *Report, sink *output.FileSink, started, finished time.Time) error {
	committed := false
	commit := func() error {
		if sink == nil {
			return nil
		}
		if err := sink.Commit(); err != nil {
			return err
		}
		committed = true
		log.Debug("output written", "path", sink.Path(), "format", r.Config.Output.Format)
		return nil
	}

	if r.Store == nil {
		return commit()
	}

	run := store.Run{
		ID:         report.RunID,
		StartedAt:  started,
		FinishedAt: finished,
		Status:     store.StatusSucceeded,
		Stats:      report.Stats,
		Digest:     report.Digest,
	}
	// Persistence is not cancellable once the output is staged.
	err := r.Store.WriteRunWith(context.WithoutCancel(ctx), run, report.Records, commit)
	if err == nil {
		log.Debug("run stored", "records", len(report.Records))
		return nil
	}
	if sink != nil {
		sink.Abort()
		if committed && sink.Path() != "-" {
			if rmErr := os.Remove(sink.Path()); rmErr != nil && !os.IsNotExist(rmErr) {
				log.Error("failed to remove output", "path", sink.Path(), "error", rmErr)
			}
		}
	}
	return err
}

func (r *Runner) fail(log *slog.Logger, runID string, started, finished time.Time, cause error) {
	log.Error("run failed", "error", cause)

	if r.Store != nil {
		run := store.Run{
			ID:         runID,
			StartedAt:  started,
			FinishedAt: finished,
			Error:      cause.Error(),
		}
		if err := r.Store.WriteFailedRun(context.Background(), run); err != nil {
			log.Error("failed to store failed run", "error", err)
		}
	}
	if r.Metrics != nil {
		r.Metrics.ObserveFailure(finished.Sub(started))
		r.writeTextfile(log)
	}
}

func (r *Runner) writeTextfile(log *slog.Logger) {
	path := r.Config.Metrics.Textfile
	if path == "" {
		return
	}
	if err := r.Metrics.WriteTextfile(path); err != nil {
		log.Error("failed to write metrics textfile", "path", path, "error", err)
	}
}

func (r *Runner) defaults() {
	if r.Config == nil {
		r.Config = config.Default()
	}
	if r.RunIDs == nil {
		r.RunIDs = UUIDv7Generator{}
	}
	if r.Now == nil {
		r.Now = time.Now
	}
	if r.Logger == nil {
		r.Logger = slog.Default()
	}
}
