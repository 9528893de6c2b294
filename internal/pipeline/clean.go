package pipeline

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/roach88/shelterpair/internal/config"
	"github.com/roach88/shelterpair/internal/ingest"
	"github.com/roach88/shelterpair/internal/record"
)

// Cleaned file names written by CleanDir.
const (
	CleanIntakesFile  = "clean_intakes.csv"
	CleanOutcomesFile = "clean_outcomes.csv"
)

// CleanResult reports what CleanDir wrote.
type CleanResult struct {
	Sources  ingest.Sources `json:"sources"`
	Intakes  string         `json:"intakes"`
	Outcomes string         `json:"outcomes"`
	Clean    CleanReport    `json:"clean"`
}

// CleanDir discovers the raw exports in rawDir, cleans each kind once over
// the concatenation of its files, and writes the cleaned tables to outDir.
func CleanDir(rawDir, outDir string, cfg *config.Config, log *slog.Logger) (*CleanResult, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = slog.Default()
	}

	src, err := ResolveSources(config.Input{Dir: rawDir})
	if err != nil {
		return nil, fmt.Errorf("clean %s: %w", rawDir, err)
	}

	res := &CleanResult{
		Sources:  src,
		Intakes:  filepath.Join(outDir, CleanIntakesFile),
		Outcomes: filepath.Join(outDir, CleanOutcomesFile),
	}

	intakes, intakeStats, err := ingest.LoadKind(src.Intakes, ingest.KindIntake, CleanOptions(cfg, ingest.KindIntake))
	if err != nil {
		return nil, err
	}
	outcomes, outcomeStats, err := ingest.LoadKind(src.Outcomes, ingest.KindOutcome, CleanOptions(cfg, ingest.KindOutcome))
	if err != nil {
		return nil, err
	}
	res.Clean = CleanReport{Intakes: intakeStats, Outcomes: outcomeStats}

	if err := ingest.WriteFiles(map[string]record.Table{res.Intakes: intakes, res.Outcomes: outcomes}); err != nil {
		return nil, err
	}
	log.Info("intakes cleaned", "files", len(src.Intakes), "rows_in", intakeStats.RowsIn, "rows_out", intakeStats.RowsOut, "path", res.Intakes)
	log.Info("outcomes cleaned", "files", len(src.Outcomes), "rows_in", outcomeStats.RowsIn, "rows_out", outcomeStats.RowsOut, "path", res.Outcomes)

	return res, nil
}
