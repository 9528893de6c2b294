package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/metrics"
	"github.com/roach88/shelterpair/internal/pipeline"
	"github.com/roach88/shelterpair/internal/store"
)

// PairOptions holds flags for the pair command.
type PairOptions struct {
	*RootOptions
	Intakes     []string
	Outcomes    []string
	InputDir    string
	Out         string
	OutFormat   string
	Database    string
	DBDriver    string
	MetricsFile string

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs pipeline.RunIDGenerator
}

// NewPairCommand creates the pair command.
func NewPairCommand(rootOpts *RootOptions) *cobra.Command {
	return newPairCommand(&PairOptions{RootOptions: rootOpts})
}

func newPairCommand(opts *PairOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair intake and outcome logs into one row per stay",
		Long: `Load, clean and pair the intake and outcome logs, then write the paired
table. Input files are given explicitly or discovered in --input-dir by name
("intake" / "outcome"). When --db is set the run and its records are stored.

Exit codes:
  0 - Paired successfully
  1 - Pairing rejected the input (missing identifier or date, bad ranks)
  2 - Command error (config, missing files, database)

Examples:
  shelterpair pair --input-dir ./data/raw --out paired.csv
  shelterpair pair --intakes in1.csv --intakes in2.csv --outcomes out.csv --out -
  shelterpair pair --input-dir ./data/raw --db runs.db --out-format ndjson --out paired.ndjson`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPair(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Intakes, "intakes", nil, "intake CSV file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Outcomes, "outcomes", nil, "outcome CSV file (repeatable)")
	cmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "directory to discover intake and outcome CSVs in")
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", `output path, "-" for stdout (default "paired.csv")`)
	cmd.Flags().StringVar(&opts.OutFormat, "out-format", "", "output format (csv|ndjson)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "database to record the run in")
	cmd.Flags().StringVar(&opts.DBDriver, "db-driver", "", "database driver (sqlite3|pgx)")
	cmd.Flags().StringVar(&opts.MetricsFile, "metrics-file", "", "write run metrics to this node_exporter textfile")

	return cmd
}

func (o *PairOptions) apply(cmd *cobra.Command) func(*config.Config) {
	return func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("intakes") {
			cfg.Input.Intakes = o.Intakes
		}
		if flags.Changed("outcomes") {
			cfg.Input.Outcomes = o.Outcomes
		}
		if flags.Changed("input-dir") {
			cfg.Input.Dir = o.InputDir
		}
		if flags.Changed("out") {
			cfg.Output.Path = o.Out
		}
		if flags.Changed("out-format") {
			cfg.Output.Format = o.OutFormat
		}
		if flags.Changed("db") {
			cfg.Store.DSN = o.Database
		}
		if flags.Changed("db-driver") {
			cfg.Store.Driver = o.DBDriver
		}
		if flags.Changed("metrics-file") {
			cfg.Metrics.Textfile = o.MetricsFile
		}
	}
}

func runPair(opts *PairOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := loadConfig(opts.RootOptions, opts.apply(cmd))
	if err != nil {
		return configFailure(formatter, err)
	}
	log := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())

	runner := &pipeline.Runner{
		Config:  cfg,
		Metrics: metrics.New(),
		RunIDs:  opts.RunIDs,
		Logger:  log,
	}

	if cfg.Store.DSN != "" {
		log.Debug("opening database", "driver", cfg.Store.Driver)
		st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, fmt.Sprintf("failed to open database: %v", err), nil)
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		runner.Store = st
	}

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return formatter.Fail("pairing run failed", err)
	}

	// With --out - the table owns stdout; the summary goes to stderr.
	if report.Output == "-" {
		formatter.Writer = cmd.ErrOrStderr()
	}
	formatter.RunID = report.RunID
	if opts.Format == "json" {
		return formatter.Success(report)
	}
	printReport(formatter.Writer, report)
	return nil
}

func printReport(w io.Writer, r *pipeline.Report) {
	s := r.Stats
	fmt.Fprintf(w, "✓ run %s\n", r.RunID)
	fmt.Fprintf(w, "  inputs:   %d intake file(s), %d outcome file(s)\n", len(r.Sources.Intakes), len(r.Sources.Outcomes))
	fmt.Fprintf(w, "  cleaned:  %d intake rows (%d duplicates), %d outcome rows (%d duplicates, %d without type)\n",
		r.Clean.Intakes.RowsOut, r.Clean.Intakes.Duplicates,
		r.Clean.Outcomes.RowsOut, r.Clean.Outcomes.Duplicates, r.Clean.Outcomes.MissingExitType)
	fmt.Fprintf(w, "  entities: %d, entries: %d, exits: %d\n", s.Entities, s.Entries, s.Exits)
	fmt.Fprintf(w, "  paired:   %d, open: %d, orphan exits: %d, unmatched exits: %d\n",
		s.Paired, s.OpenRecords, s.OrphanExits, s.UnmatchedExits)
	fmt.Fprintf(w, "  digest:   %s\n", r.Digest)
	if r.Output != "" && r.Output != "-" {
		fmt.Fprintf(w, "  output:   %s\n", r.Output)
	}
}

func configFailure(f *OutputFormatter, err error) error {
	if outErr := f.Error(ErrCodeConfigInvalid, err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "invalid configuration", err)
}
