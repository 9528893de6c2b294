package pairing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelterpair/internal/record"
	"github.com/roach88/shelterpair/internal/testutil"
)

func recordsFor(records []record.PairedRecord, entityID string) []record.PairedRecord {
	var out []record.PairedRecord
	for _, r := range records {
		if r.EntityID == entityID {
			out = append(out, r)
		}
	}
	return out
}

func TestPair_TwoCyclesNoCrossMixing(t *testing.T) {
	entries := testutil.Entries("A1", "2020-01-01", "A1", "2020-02-01")
	exits := testutil.Exits("A1", "2020-01-05", "A1", "2020-02-10")

	records, err := Pair(entries, exits)
	require.NoError(t, err)

	a1 := recordsFor(records, "A1")
	require.Len(t, a1, 2)
	assert.Equal(t, "2020-01-01", a1[0].EntryTimestamp.String())
	assert.Equal(t, "2020-01-05", a1[0].ExitTimestamp.String())
	assert.Equal(t, "2020-02-01", a1[1].EntryTimestamp.String())
	assert.Equal(t, "2020-02-10", a1[1].ExitTimestamp.String())
}

func TestPair_ExitWithoutEntryNeverAppears(t *testing.T) {
	records, err := Pair(testutil.Entries("A1", "2020-01-01"), testutil.Exits("B1", "2020-01-01"))
	require.NoError(t, err)

	assert.Empty(t, recordsFor(records, "B1"))
	require.Len(t, records, 1)
	assert.True(t, records[0].Open())
}

func TestPair_OpenRecord(t *testing.T) {
	records, err := Pair(testutil.Entries("C1", "2020-01-01"), nil)
	require.NoError(t, err)

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "C1", r.EntityID)
	assert.Equal(t, "Name-C1", r.Name)
	assert.Equal(t, "2020-01-01", r.EntryTimestamp.String())
	assert.Nil(t, r.ExitTimestamp)
	assert.Nil(t, r.DateOfBirth)
	assert.Nil(t, r.ExitType)
	assert.Nil(t, r.ExitSubtype)
	assert.Nil(t, r.SexAtExit)
}

func TestPair_EarlyExitExcludedEvenWithLaterEntry(t *testing.T) {
	entries := testutil.Entries("H1", "2020-06-01")
	exits := testutil.Exits("H1", "2020-05-01")

	res, err := Run(entries, exits)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.True(t, res.Records[0].Open())
	assert.Equal(t, 1, res.Stats.OrphanExits)
	require.Len(t, res.Orphans, 1)
	assert.Equal(t, "2020-05-01", res.Orphans[0].Timestamp.String())
}

func TestPair_CardinalityMatchesEntries(t *testing.T) {
	var entries []record.EntryEvent
	var exits []record.ExitEvent
	for i := 0; i < 40; i++ {
		id := fmt.Sprintf("E%02d", i%7)
		day := 1 + i
		entries = append(entries, testutil.Entry(id, fmt.Sprintf("2020-01-%02d", 1+day%28)))
		if i%3 != 0 {
			exits = append(exits, testutil.Exit(id, fmt.Sprintf("2020-02-%02d", 1+day%28)))
		}
		if i%5 == 0 {
			exits = append(exits, testutil.Exit(fmt.Sprintf("X%02d", i), "2019-12-01"))
		}
	}
	entries = dedupeEntries(entries)
	exits = dedupeExits(exits)

	records, err := Pair(entries, exits)
	require.NoError(t, err)
	assert.Len(t, records, len(entries))

	seen := make(map[string]int)
	for _, r := range records {
		seen[r.EntityID+"|"+r.EntryTimestamp.String()]++
	}
	for _, e := range entries {
		assert.Equal(t, 1, seen[e.EntityID+"|"+e.Timestamp.String()], "entry %s %s", e.EntityID, e.Timestamp)
	}

	used := make(map[string]int)
	for _, r := range records {
		if !r.Open() {
			used[r.EntityID+"|"+r.ExitTimestamp.String()]++
		}
	}
	for k, n := range used {
		assert.Equal(t, 1, n, "exit %s used more than once", k)
	}
}

func TestPair_Idempotent(t *testing.T) {
	entries := testutil.Entries("A1", "2020-01-01", "A1", "2020-02-01", "C1", "2020-01-01")
	exits := testutil.Exits("A1", "2020-01-05", "B1", "2020-01-01", "A1", "2020-02-10")

	first, err := Pair(entries, exits)
	require.NoError(t, err)
	second, err := Pair(entries, exits)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestPair_DoesNotMutateInput(t *testing.T) {
	entries := testutil.Entries("A1", "2020-02-01", "A1", "2020-01-01")
	exits := testutil.Exits("A1", "2020-02-10", "A1", "2020-01-05")
	entriesCopy := append([]record.EntryEvent(nil), entries...)
	exitsCopy := append([]record.ExitEvent(nil), exits...)

	_, err := Pair(entries, exits)
	require.NoError(t, err)

	assert.Equal(t, entriesCopy, entries)
	assert.Equal(t, exitsCopy, exits)
}

func TestPair_ErrorReturnsNoRecords(t *testing.T) {
	records, err := Pair(testutil.Entries("", "2020-01-01"), nil)
	require.Error(t, err)
	assert.True(t, IsMissingIdentifier(err))
	assert.Nil(t, records)
}

func TestRun_Stats(t *testing.T) {
	entries := testutil.Entries("A1", "2020-01-01", "A1", "2020-02-01", "C1", "2020-01-01")
	exits := testutil.Exits(
		"A1", "2020-01-05",
		"A1", "2020-02-10",
		"A1", "2020-03-10",
		"B1", "2020-01-01",
	)

	res, err := Run(entries, exits)
	require.NoError(t, err)

	assert.Equal(t, Stats{
		Entities:       3,
		Entries:        3,
		Exits:          4,
		OrphanExits:    1,
		UnmatchedExits: 1,
		OpenRecords:    1,
		Paired:         2,
	}, res.Stats)
}

func dedupeEntries(in []record.EntryEvent) []record.EntryEvent {
	seen := make(map[string]bool)
	var out []record.EntryEvent
	for _, e := range in {
		k := e.EntityID + "|" + e.Timestamp.String()
		if !seen[k] {
			seen[k] = true
			out = append(out, e)
		}
	}
	return out
}

func dedupeExits(in []record.ExitEvent) []record.ExitEvent {
	seen := make(map[string]bool)
	var out []record.ExitEvent
	for _, x := range in {
		k := x.EntityID + "|" + x.Timestamp.String()
		if !seen[k] {
			seen[k] = true
			out = append(out, x)
		}
	}
	return out
}
