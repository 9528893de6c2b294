package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/ingest"
	"github.com/roach88/shelterpair/internal/pairing"
	"github.com/roach88/shelterpair/internal/pipeline"
	"github.com/roach88/shelterpair/internal/record"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Intakes  []string
	Outcomes []string
	InputDir string
}

// ValidationProblem is one reason the inputs cannot be paired.
type ValidationProblem struct {
	Code    string `json:"code"`
	Source  string `json:"source"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Sources  ingest.Sources      `json:"sources"`
	Entries  int                 `json:"entries"`
	Exits    int                 `json:"exits"`
	Problems []ValidationProblem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check config and inputs without pairing",
		Long: `Validate the configuration and the input logs without pairing them.

Loads and cleans every input file, checks that the configured columns are
present, and that every row has an identifier and a parseable date. Both
logs are checked even when the first one fails.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Intakes, "intakes", nil, "intake CSV file (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Outcomes, "outcomes", nil, "outcome CSV file (repeatable)")
	cmd.Flags().StringVar(&opts.InputDir, "input-dir", "", "directory to discover intake and outcome CSVs in")

	return cmd
}

func runValidate(opts *ValidateOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cfg, err := loadConfig(opts.RootOptions, func(cfg *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("intakes") {
			cfg.Input.Intakes = opts.Intakes
		}
		if flags.Changed("outcomes") {
			cfg.Input.Outcomes = opts.Outcomes
		}
		if flags.Changed("input-dir") {
			cfg.Input.Dir = opts.InputDir
		}
	})
	if err != nil {
		return configFailure(formatter, err)
	}

	src, err := pipeline.ResolveSources(cfg.Input)
	if err != nil {
		return formatter.Fail("no inputs to validate", err)
	}
	formatter.VerboseLog("Found %d intake file(s) and %d outcome file(s)", len(src.Intakes), len(src.Outcomes))

	result := ValidationResult{Sources: src}

	intakes, _, err := ingest.LoadKind(src.Intakes, ingest.KindIntake, pipeline.CleanOptions(cfg, ingest.KindIntake))
	if err == nil {
		var entries int
		entries, err = countEntries(intakes, cfg)
		result.Entries = entries
	}
	if err != nil {
		result.Problems = append(result.Problems, problem("intakes", err))
	}

	outcomes, _, err := ingest.LoadKind(src.Outcomes, ingest.KindOutcome, pipeline.CleanOptions(cfg, ingest.KindOutcome))
	if err == nil {
		var exits int
		exits, err = countExits(outcomes, cfg)
		result.Exits = exits
	}
	if err != nil {
		result.Problems = append(result.Problems, problem("outcomes", err))
	}

	result.Valid = len(result.Problems) == 0
	return outputValidation(formatter, result)
}

func countEntries(t record.Table, cfg *config.Config) (int, error) {
	entries, err := pairing.BindEntries(t, cfg.Columns.Entry.WithDefaults())
	return len(entries), err
}

func countExits(t record.Table, cfg *config.Config) (int, error) {
	exits, err := pairing.BindExits(t, cfg.Columns.Exit.WithDefaults())
	return len(exits), err
}

func problem(source string, err error) ValidationProblem {
	code, _ := classify(err)
	return ValidationProblem{Code: code, Source: source, Message: err.Error()}
}

func outputValidation(f *OutputFormatter, result ValidationResult) error {
	if result.Valid {
		if f.Format == "json" {
			return f.Success(result)
		}
		fmt.Fprintf(f.Writer, "✓ inputs valid: %d entries, %d exits\n", result.Entries, result.Exits)
		return nil
	}

	if f.Format == "json" {
		if err := f.Error(result.Problems[0].Code, fmt.Sprintf("%d problem(s) found", len(result.Problems)), result); err != nil {
			return err
		}
	} else {
		for _, p := range result.Problems {
			fmt.Fprintf(f.Writer, "✗ %s [%s]: %s\n", p.Source, p.Code, p.Message)
		}
	}

	exit := ExitCommandError
	for _, p := range result.Problems {
		if p.Code == ErrCodePairing {
			exit = ExitFailure
		}
	}
	return NewExitError(exit, fmt.Sprintf("validation failed: %d problem(s)", len(result.Problems)))
}
