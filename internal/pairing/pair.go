package pairing

import "github.com/roach88/shelterpair/internal/record"

// Stats summarises one pairing run.
type Stats struct {
	Entities       int `json:"entities"`
	Entries        int `json:"entries"`
	Exits          int `json:"exits"`
	OrphanExits    int `json:"orphan_exits"`
	UnmatchedExits int `json:"unmatched_exits"`
	OpenRecords    int `json:"open_records"`
	Paired         int `json:"paired"`
}

// Result is the output of Run.
type Result struct {
	Records []record.PairedRecord
	Orphans []record.ExitEvent
	Stats   Stats
}

// Pair reconciles entries and exits into one PairedRecord per entry.
// len(result) == len(entries) whenever err is nil.
func Pair(entries []record.EntryEvent, exits []record.ExitEvent) ([]record.PairedRecord, error) {
	res, err := Run(entries, exits)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// Run is Pair plus the orphaned exits and run statistics.
func Run(entries []record.EntryEvent, exits []record.ExitEvent) (*Result, error) {
	tl, err := Sequence(entries, exits)
	if err != nil {
		return nil, err
	}

	surviving, orphans := FilterOrphans(tl, exits)

	matches, unmatched, err := MatchSequential(entries, surviving)
	if err != nil {
		return nil, err
	}

	records := Project(matches)

	stats := Stats{
		Entities:       len(tl.entities),
		Entries:        len(entries),
		Exits:          len(exits),
		OrphanExits:    len(orphans),
		UnmatchedExits: unmatched,
	}
	for _, r := range records {
		if r.Open() {
			stats.OpenRecords++
		} else {
			stats.Paired++
		}
	}

	return &Result{Records: records, Orphans: orphans, Stats: stats}, nil
}
