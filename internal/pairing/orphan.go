package pairing

import "github.com/roach88/shelterpair/internal/record"

// FilterOrphans splits exits into those that follow at least one earlier
// event of their entity and those that open the entity's timeline.
//
// An exit is orphaned iff its sequence rank is 1. Orphans are dropped from
// all further processing, not merely left unpaired. Both returned slices keep
// the original exit order. Entries are never filtered.
func FilterOrphans(tl Timeline, exits []record.ExitEvent) (surviving, orphaned []record.ExitEvent) {
	first := make(map[int]bool)
	for _, id := range tl.entities {
		for _, ev := range tl.byEntity[id] {
			if ev.SequenceRank == 1 && ev.Kind == record.KindExit {
				first[ev.Source] = true
			}
		}
	}

	surviving = make([]record.ExitEvent, 0, max(0, len(exits)-len(first)))
	for i, x := range exits {
		if first[i] {
			orphaned = append(orphaned, x)
			continue
		}
		surviving = append(surviving, x)
	}
	return surviving, orphaned
}
