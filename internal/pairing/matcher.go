package pairing

import (
	"slices"

	"github.com/roach88/shelterpair/internal/record"
)

// Match is one entry joined to the exit of the same per-entity rank.
// Exit is nil when the entry has no exit of matching rank (an open record).
type Match struct {
	Entry     record.EntryEvent
	EntryRank int
	Exit      *record.ExitEvent
	ExitRank  int
}

// MatchSequential pairs entry rank k with surviving exit rank k within each entity.
//
// Every entry produces exactly one Match. Exits whose rank has no entry
// counterpart are dropped; their count is returned as unmatched. Matches are
// ordered by entity ID ascending, then entry rank.
//
// Returns a DUPLICATE_RANK error if two entries of one entity end up with
// the same rank.
func MatchSequential(entries []record.EntryEvent, surviving []record.ExitEvent) (matches []Match, unmatched int, err error) {
	entryRanks := rankByEntity(len(entries), func(i int) (string, record.Date) {
		return entries[i].EntityID, entries[i].Timestamp
	})
	exitRanks := rankByEntity(len(surviving), func(i int) (string, record.Date) {
		return surviving[i].EntityID, surviving[i].Timestamp
	})

	entities := make([]string, 0, len(entryRanks))
	for id := range entryRanks {
		entities = append(entities, id)
	}
	slices.Sort(entities)

	matches = make([]Match, 0, len(entries))
	for _, id := range entities {
		ranked := entryRanks[id]
		seen := make(map[int]bool, len(ranked))
		exitsByRank := make(map[int]int, len(exitRanks[id]))
		for _, r := range exitRanks[id] {
			exitsByRank[r.rank] = r.index
		}

		for _, r := range ranked {
			if seen[r.rank] {
				return nil, 0, NewDuplicateRankError(id, r.rank, entries[r.index].Timestamp.String())
			}
			seen[r.rank] = true

			m := Match{Entry: entries[r.index], EntryRank: r.rank}
			if xi, ok := exitsByRank[r.rank]; ok {
				x := surviving[xi]
				m.Exit = &x
				m.ExitRank = r.rank
			}
			matches = append(matches, m)
		}
	}

	for id, ranked := range exitRanks {
		if extra := len(ranked) - len(entryRanks[id]); extra > 0 {
			unmatched += extra
		}
	}

	return matches, unmatched, nil
}

type rankedIndex struct {
	index int
	rank  int
}

// rankByEntity groups n items by entity and numbers each group 1..k by date,
// keeping input order for equal dates.
func rankByEntity(n int, key func(i int) (string, record.Date)) map[string][]rankedIndex {
	groups := make(map[string][]int)
	for i := 0; i < n; i++ {
		id, _ := key(i)
		groups[id] = append(groups[id], i)
	}

	out := make(map[string][]rankedIndex, len(groups))
	for id, idx := range groups {
		slices.SortStableFunc(idx, func(a, b int) int {
			_, da := key(a)
			_, db := key(b)
			return da.Time().Compare(db.Time())
		})
		ranked := make([]rankedIndex, len(idx))
		for pos, i := range idx {
			ranked[pos] = rankedIndex{index: i, rank: pos + 1}
		}
		out[id] = ranked
	}
	return out
}
