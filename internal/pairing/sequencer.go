package pairing

import (
	"slices"
	"strings"

	"github.com/roach88/shelterpair/internal/record"
)

// TimelineEvent is one entry or exit placed on its entity's timeline.
type TimelineEvent struct {
	EntityID     string
	Timestamp    record.Date
	Kind         record.EventKind
	SequenceRank int

	// Source is the index of the event in its original collection
	// (entries for KindEntry, exits for KindExit).
	Source int
}

// Timeline holds every event grouped by entity, each group in rank order.
type Timeline struct {
	byEntity map[string][]TimelineEvent
	entities []string
}

// Entities returns the entity IDs on the timeline in ascending order.
func (t Timeline) Entities() []string {
	return slices.Clone(t.entities)
}

// Events returns the ranked events of one entity.
func (t Timeline) Events(entityID string) []TimelineEvent {
	return slices.Clone(t.byEntity[entityID])
}

// Len returns the total number of events.
func (t Timeline) Len() int {
	n := 0
	for _, evs := range t.byEntity {
		n += len(evs)
	}
	return n
}

// Sequence merges entries and exits into one ranked timeline per entity.
//
// Merged input order is all entries, then all exits, each in slice order.
// Events of one entity that share a date keep that order, so a same-day
// entry always ranks ahead of a same-day exit.
//
// Returns a MISSING_IDENTIFIER or MISSING_TIMESTAMP error for the first
// offending row in merged order.
func Sequence(entries []record.EntryEvent, exits []record.ExitEvent) (Timeline, error) {
	merged := make([]TimelineEvent, 0, len(entries)+len(exits))

	for i, e := range entries {
		if err := validateEvent("entries", i, e.EntityID, e.Timestamp); err != nil {
			return Timeline{}, err
		}
		merged = append(merged, TimelineEvent{EntityID: e.EntityID, Timestamp: e.Timestamp, Kind: record.KindEntry, Source: i})
	}
	for i, x := range exits {
		if err := validateEvent("exits", i, x.EntityID, x.Timestamp); err != nil {
			return Timeline{}, err
		}
		merged = append(merged, TimelineEvent{EntityID: x.EntityID, Timestamp: x.Timestamp, Kind: record.KindExit, Source: i})
	}

	byEntity := make(map[string][]TimelineEvent)
	for _, ev := range merged {
		byEntity[ev.EntityID] = append(byEntity[ev.EntityID], ev)
	}

	entities := make([]string, 0, len(byEntity))
	for id, evs := range byEntity {
		slices.SortStableFunc(evs, compareEvents)
		for i := range evs {
			evs[i].SequenceRank = i + 1
		}
		entities = append(entities, id)
	}
	slices.Sort(entities)

	return Timeline{byEntity: byEntity, entities: entities}, nil
}

func compareEvents(a, b TimelineEvent) int {
	return a.Timestamp.Time().Compare(b.Timestamp.Time())
}

func validateEvent(log string, index int, entityID string, ts record.Date) error {
	if strings.TrimSpace(entityID) == "" {
		return NewMissingIdentifierError(log, index, ts.String())
	}
	if ts.IsZero() {
		return NewMissingTimestampError(log, index, entityID, "")
	}
	return nil
}
