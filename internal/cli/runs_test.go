package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelterpair/internal/pairing"
	"github.com/roach88/shelterpair/internal/store"
)

// seedRuns creates a database holding an older succeeded run and a newer
// failed one.
func seedRuns(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(store.DriverSQLite, db)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.WriteRun(ctx, store.Run{
		ID:         "run-1",
		StartedAt:  start,
		FinishedAt: start.Add(time.Second),
		Status:     store.StatusSucceeded,
		Stats:      pairing.Stats{Entities: 3, Entries: 3, Exits: 3, OrphanExits: 1, OpenRecords: 1, Paired: 2},
		Digest:     strings.Repeat("ab", 32),
	}, nil))
	require.NoError(t, st.WriteFailedRun(ctx, store.Run{
		ID:         "run-2",
		StartedAt:  start.Add(time.Hour),
		FinishedAt: start.Add(time.Hour + time.Second),
		Error:      "MISSING_IDENTIFIER: empty entity id",
	}))
	return db
}

func TestRunsCommand_List(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(NewRunsCommand(rootOpts("text")), "--db", db)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "RUN ID"))
	assert.True(t, strings.HasPrefix(lines[1], "run-2"), "newest first")
	assert.Contains(t, lines[1], "failed")
	assert.True(t, strings.HasPrefix(lines[2], "run-1"))
	assert.Contains(t, lines[2], "succeeded")
}

func TestRunsCommand_ListJSONLimit(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(NewRunsCommand(rootOpts("json")), "--db", db, "--limit", "1")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "run-2", resp.Data[0].ID)
}

func TestRunsCommand_Show(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(NewRunsCommand(rootOpts("text")), "--db", db, "run-1")
	require.NoError(t, err)
	assert.Contains(t, stdout, "run run-1\n")
	assert.Contains(t, stdout, "status:   succeeded")
	assert.Contains(t, stdout, "paired:   2, open: 1, orphan exits: 1, unmatched exits: 0")
	assert.Contains(t, stdout, "digest:   "+strings.Repeat("ab", 32))
}

func TestRunsCommand_ShowFailed(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(NewRunsCommand(rootOpts("text")), "--db", db, "run-2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "status:   failed")
	assert.Contains(t, stdout, "error:    MISSING_IDENTIFIER")
	assert.NotContains(t, stdout, "digest:")
}

func TestRunsCommand_NotFound(t *testing.T) {
	db := seedRuns(t)

	stdout, _, err := execute(NewRunsCommand(rootOpts("text")), "--db", db, "run-9")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E005]")
}

func TestRunsCommand_Empty(t *testing.T) {
	db := filepath.Join(t.TempDir(), "empty.db")

	stdout, _, err := execute(NewRunsCommand(rootOpts("text")), "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded.\n", stdout)
}

func TestRunsCommand_NoDatabase(t *testing.T) {
	stdout, _, err := execute(NewRunsCommand(rootOpts("text")))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E007]: no database configured")
}
