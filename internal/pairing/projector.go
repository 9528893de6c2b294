package pairing

import "github.com/roach88/shelterpair/internal/record"

// Project maps matches onto the published schema. Ranks and Extra columns
// are dropped; row order is preserved and nothing is filtered.
func Project(matches []Match) []record.PairedRecord {
	out := make([]record.PairedRecord, len(matches))
	for i, m := range matches {
		e := m.Entry
		r := record.PairedRecord{
			EntityID:       e.EntityID,
			Name:           e.Name,
			Species:        e.Species,
			Breed:          e.Breed,
			Color:          e.Color,
			EntryTimestamp: e.Timestamp,
			EntryType:      e.EntryType,
			EntryCondition: e.EntryCondition,
			SexAtEntry:     e.SexAtEntry,
		}
		if x := m.Exit; x != nil {
			r.DateOfBirth = x.DateOfBirth.Ptr()
			r.ExitTimestamp = x.Timestamp.Ptr()
			r.ExitType = strPtr(x.ExitType)
			r.ExitSubtype = strPtr(x.ExitSubtype)
			r.SexAtExit = strPtr(x.SexAtExit)
		}
		out[i] = r
	}
	return out
}

func strPtr(s string) *string {
	return &s
}
