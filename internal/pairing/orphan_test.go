package pairing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelterpair/internal/testutil"
)

func TestFilterOrphans(t *testing.T) {
	tests := []struct {
		name         string
		entries      []string
		exits        []string
		wantSurvive  int
		wantOrphaned []string
	}{
		{
			name:        "exit after entry survives",
			entries:     []string{"A1", "2020-01-01"},
			exits:       []string{"A1", "2020-01-05"},
			wantSurvive: 1,
		},
		{
			name:         "exit with no entry at all",
			exits:        []string{"B1", "2020-01-01"},
			wantOrphaned: []string{"2020-01-01"},
		},
		{
			name:         "exit earlier than every entry",
			entries:      []string{"C1", "2020-02-01"},
			exits:        []string{"C1", "2020-01-01"},
			wantOrphaned: []string{"2020-01-01"},
		},
		{
			name:         "only the first of two leading exits is orphaned",
			exits:        []string{"F1", "2020-01-01", "F1", "2020-01-09"},
			wantSurvive:  1,
			wantOrphaned: []string{"2020-01-01"},
		},
		{
			name:        "same-day entry protects the exit",
			entries:     []string{"D1", "2020-03-01"},
			exits:       []string{"D1", "2020-03-01"},
			wantSurvive: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := testutil.Entries(tt.entries...)
			exits := testutil.Exits(tt.exits...)

			tl, err := Sequence(entries, exits)
			require.NoError(t, err)

			surviving, orphaned := FilterOrphans(tl, exits)
			assert.Len(t, surviving, tt.wantSurvive)

			var got []string
			for _, o := range orphaned {
				got = append(got, o.Timestamp.String())
			}
			assert.Equal(t, tt.wantOrphaned, got)
		})
	}
}

func TestFilterOrphans_PreservesExitOrder(t *testing.T) {
	entries := testutil.Entries("A1", "2020-01-01", "B1", "2020-01-01")
	exits := testutil.Exits("B1", "2020-01-04", "Z9", "2019-12-01", "A1", "2020-01-02")

	tl, err := Sequence(entries, exits)
	require.NoError(t, err)

	surviving, orphaned := FilterOrphans(tl, exits)
	require.Len(t, surviving, 2)
	assert.Equal(t, "B1", surviving[0].EntityID)
	assert.Equal(t, "A1", surviving[1].EntityID)
	require.Len(t, orphaned, 1)
	assert.Equal(t, "Z9", orphaned[0].EntityID)
}
