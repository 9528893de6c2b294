package harness

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/shelterpair/internal/output"
	"github.com/roach88/shelterpair/internal/record"
)

// RunWithGolden runs a scenario and compares its CSV output against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario is malformed or its pairing failed.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if result.Err != nil {
		return result, fmt.Errorf("scenario %s: %w", scenario.Name, result.Err)
	}
	if err := AssertGolden(t, scenario.Name, result.Records); err != nil {
		return result, err
	}
	return result, nil
}

// AssertGolden compares records, rendered as CSV, against a golden file.
func AssertGolden(t *testing.T, name string, records []record.PairedRecord) error {
	t.Helper()

	data, err := RenderCSV(records)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}

// RenderCSV renders records the way golden files store them.
func RenderCSV(records []record.PairedRecord) ([]byte, error) {
	var buf bytes.Buffer
	sink := output.NewCSVSink(&buf)
	if err := sink.Write(context.Background(), records); err != nil {
		return nil, err
	}
	if err := sink.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
