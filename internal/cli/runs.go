package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/store"
)

// RunsOptions holds flags for the runs command.
type RunsOptions struct {
	*RootOptions
	Database string
	DBDriver string
	Limit    int
}

// NewRunsCommand creates the runs command.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List stored runs or show one",
		Long: `List the pairing runs recorded in a database, newest first, or show the
details of a single run.

Examples:
  shelterpair runs --db runs.db
  shelterpair runs --db runs.db --limit 5 --format json
  shelterpair runs --db runs.db 0190f3a2-7c4e-7b1a-9d2e-5f6a7b8c9d0e`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runRuns(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "database the runs are recorded in")
	cmd.Flags().StringVar(&opts.DBDriver, "db-driver", "", "database driver (sqlite3|pgx)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs to list (0 for all)")

	return cmd
}

func runRuns(opts *RunsOptions, runID string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	st, _, err := openStore(opts.RootOptions, cmd, opts.Database, opts.DBDriver)
	if err != nil {
		return storeFailure(formatter, err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if runID != "" {
		run, err := st.GetRun(ctx, runID)
		if err != nil {
			return formatter.Fail("failed to read run", err)
		}
		if opts.Format == "json" {
			return formatter.Success(run)
		}
		printRun(cmd.OutOrStdout(), run)
		return nil
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail("failed to list runs", err)
	}
	if opts.Format == "json" {
		return formatter.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
		return nil
	}
	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// openStore resolves the database from config, environment and flags.
func openStore(opts *RootOptions, cmd *cobra.Command, dsn, driver string) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(opts, func(cfg *config.Config) {
		if cmd.Flags().Changed("db") {
			cfg.Store.DSN = dsn
		}
		if cmd.Flags().Changed("db-driver") {
			cfg.Store.Driver = driver
		}
	})
	if err != nil {
		return nil, nil, err
	}
	if cfg.Store.DSN == "" {
		return nil, nil, errNoDatabase
	}
	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, nil, err
	}
	return st, cfg, nil
}

var errNoDatabase = errors.New("no database configured: set --db or store.dsn")

func storeFailure(f *OutputFormatter, err error) error {
	if config.IsValidationError(err) {
		return configFailure(f, err)
	}
	if outErr := f.Error(ErrCodeStore, err.Error(), nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, "failed to open database", err)
}

func printRuns(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN ID\tSTARTED\tSTATUS\tENTRIES\tEXITS\tPAIRED\tOPEN")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.UTC().Format(time.RFC3339), r.Status,
			r.Stats.Entries, r.Stats.Exits, r.Stats.Paired, r.Stats.OpenRecords)
	}
	_ = tw.Flush()
}

func printRun(w io.Writer, r store.Run) {
	fmt.Fprintf(w, "run %s\n", r.ID)
	fmt.Fprintf(w, "  status:   %s\n", r.Status)
	fmt.Fprintf(w, "  started:  %s\n", r.StartedAt.UTC().Format(time.RFC3339Nano))
	fmt.Fprintf(w, "  finished: %s\n", r.FinishedAt.UTC().Format(time.RFC3339Nano))
	if r.Status == store.StatusFailed {
		fmt.Fprintf(w, "  error:    %s\n", r.Error)
		return
	}
	s := r.Stats
	fmt.Fprintf(w, "  entities: %d, entries: %d, exits: %d\n", s.Entities, s.Entries, s.Exits)
	fmt.Fprintf(w, "  paired:   %d, open: %d, orphan exits: %d, unmatched exits: %d\n",
		s.Paired, s.OpenRecords, s.OrphanExits, s.UnmatchedExits)
	fmt.Fprintf(w, "  digest:   %s\n", r.Digest)
}
