package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/shelterpair/internal/pipeline"
)

// CleanOptions holds flags for the clean command.
type CleanOptions struct {
	*RootOptions
	OutDir string
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CleanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clean <raw-dir>",
		Short: "Clean raw intake and outcome exports",
		Long: `Discover the raw intake and outcome CSVs in a directory, clean each kind
(normalised headers, dates, imputed sex, duplicates and untyped outcomes
removed, unused columns dropped) and write clean_intakes.csv and
clean_outcomes.csv to --out-dir.

Example:
  shelterpair clean ./data/raw --out-dir ./data/clean`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.OutDir, "out-dir", ".", "directory to write the cleaned tables to")

	return cmd
}

func runClean(opts *CleanOptions, rawDir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	if _, err := os.Stat(rawDir); os.IsNotExist(err) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("raw directory not found: %s", rawDir), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("raw directory not found: %s", rawDir))
	}
	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return formatter.Fail("failed to create output directory", err)
	}

	cfg, err := loadConfig(opts.RootOptions, nil)
	if err != nil {
		return configFailure(formatter, err)
	}
	log := newLogger(cfg.Log, opts.Verbose, cmd.ErrOrStderr())

	res, err := pipeline.CleanDir(rawDir, opts.OutDir, cfg, log)
	if err != nil {
		return formatter.Fail("cleaning failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(res)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s: %d rows from %d file(s)\n", res.Intakes, res.Clean.Intakes.RowsOut, len(res.Sources.Intakes))
	fmt.Fprintf(w, "✓ %s: %d rows from %d file(s)\n", res.Outcomes, res.Clean.Outcomes.RowsOut, len(res.Sources.Outcomes))
	return nil
}
