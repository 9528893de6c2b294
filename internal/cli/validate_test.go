package cli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	inputDir := writeInputs(t, rawIntakes, rawOutcomes)

	stdout, _, err := execute(NewValidateCommand(rootOpts("text")), "--input-dir", inputDir)
	require.NoError(t, err)
	assert.Equal(t, "✓ inputs valid: 3 entries, 3 exits\n", stdout)
}

func TestValidateCommand_ValidJSON(t *testing.T) {
	inputDir := writeInputs(t, rawIntakes, rawOutcomes)

	stdout, _, err := execute(NewValidateCommand(rootOpts("json")), "--input-dir", inputDir)
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Entries)
	assert.Equal(t, 3, resp.Data.Exits)
	assert.Len(t, resp.Data.Sources.Intakes, 1)
}

func TestValidateCommand_ReportsEveryLog(t *testing.T) {
	// Intakes lose a bound column; outcomes get an unparseable date.
	intakes := strings.ReplaceAll(strings.ReplaceAll(rawIntakes, ",Intake Condition", ""), ",Normal", "")
	outcomes := strings.Replace(rawOutcomes, "01/05/2020 11:00:00 AM", "sometime", 1)
	inputDir := writeInputs(t, intakes, outcomes)

	stdout, _, err := execute(NewValidateCommand(rootOpts("text")), "--input-dir", inputDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "✗ intakes [E006]")
	assert.Contains(t, lines[0], "SCHEMA_MISMATCH")
	assert.Contains(t, lines[1], "✗ outcomes [E004]")
	assert.Contains(t, lines[1], "sometime")
}

func TestValidateCommand_MissingIdentifier(t *testing.T) {
	inputDir := writeInputs(t, badIntakes, rawOutcomes)

	stdout, _, err := execute(NewValidateCommand(rootOpts("json")), "--input-dir", inputDir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodePairing, resp.Error.Code)
}

func TestValidateCommand_NoInput(t *testing.T) {
	stdout, _, err := execute(NewValidateCommand(rootOpts("text")), "--input-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E003]")
}
