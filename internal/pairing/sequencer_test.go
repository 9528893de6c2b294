package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelterpair/internal/record"
	"github.com/roach88/shelterpair/internal/testutil"
)

func TestSequence_RanksPerEntityByDate(t *testing.T) {
	entries := testutil.Entries("A1", "2020-02-01", "A1", "2020-01-01", "B1", "2020-01-03")
	exits := testutil.Exits("A1", "2020-01-05", "A1", "2020-02-10")

	tl, err := Sequence(entries, exits)
	require.NoError(t, err)

	assert.Equal(t, []string{"A1", "B1"}, tl.Entities())
	assert.Equal(t, 5, tl.Len())

	evs := tl.Events("A1")
	require.Len(t, evs, 4)

	want := []struct {
		date string
		kind record.EventKind
		src  int
	}{
		{"2020-01-01", record.KindEntry, 1},
		{"2020-01-05", record.KindExit, 0},
		{"2020-02-01", record.KindEntry, 0},
		{"2020-02-10", record.KindExit, 1},
	}
	for i, w := range want {
		assert.Equal(t, i+1, evs[i].SequenceRank)
		assert.Equal(t, w.date, evs[i].Timestamp.String())
		assert.Equal(t, w.kind, evs[i].Kind)
		assert.Equal(t, w.src, evs[i].Source)
	}
}

func TestSequence_SameDayEntryRanksBeforeExit(t *testing.T) {
	// Entries precede exits in the merged input.
	entries := testutil.Entries("D1", "2020-03-01")
	exits := testutil.Exits("D1", "2020-03-01")

	tl, err := Sequence(entries, exits)
	require.NoError(t, err)

	evs := tl.Events("D1")
	require.Len(t, evs, 2)
	assert.Equal(t, record.KindEntry, evs[0].Kind)
	assert.Equal(t, 1, evs[0].SequenceRank)
	assert.Equal(t, record.KindExit, evs[1].Kind)
	assert.Equal(t, 2, evs[1].SequenceRank)
}

func TestSequence_TiesKeepInputOrder(t *testing.T) {
	exits := testutil.Exits("E1", "2020-01-01", "E1", "2020-01-01")
	exits[1].ExitType = "Transfer"

	tl, err := Sequence(nil, exits)
	require.NoError(t, err)

	evs := tl.Events("E1")
	require.Len(t, evs, 2)
	assert.Equal(t, 0, evs[0].Source)
	assert.Equal(t, 1, evs[1].Source)
}

func TestSequence_MissingIdentifier(t *testing.T) {
	entries := testutil.Entries("A1", "2020-01-01", "  ", "2020-01-02")

	_, err := Sequence(entries, nil)
	require.Error(t, err)
	assert.True(t, IsMissingIdentifier(err))
	assert.Contains(t, err.Error(), "entries row 1")
	assert.Contains(t, err.Error(), "2020-01-02")
}

func TestSequence_MissingTimestamp(t *testing.T) {
	exits := testutil.Exits("A1", "")

	_, err := Sequence(testutil.Entries("A1", "2020-01-01"), exits)
	require.Error(t, err)
	assert.True(t, IsMissingTimestamp(err))

	var pe *PairingError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "A1", pe.EntityID)
	assert.Equal(t, "exits", pe.Details["log"])
}

func TestSequence_Empty(t *testing.T) {
	tl, err := Sequence(nil, nil)
	require.NoError(t, err)
	assert.Empty(t, tl.Entities())
	assert.Equal(t, 0, tl.Len())
	assert.Empty(t, tl.Events("missing"))
}
