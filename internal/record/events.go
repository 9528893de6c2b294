package record

// EventKind tags a timeline event with the log it came from.
type EventKind string

const (
	KindEntry EventKind = "ENTRY"
	KindExit  EventKind = "EXIT"
)

// EntryEvent is one intake row. (EntityID, Timestamp) is unique after cleaning.
type EntryEvent struct {
	EntityID       string
	Timestamp      Date
	EntryType      string
	EntryCondition string
	SexAtEntry     string
	Name           string
	Species        string
	Breed          string
	Color          string

	// Extra holds input columns outside the published schema
	// (age-upon-intake and similar). Never projected.
	Extra map[string]string
}

// ExitEvent is one outcome row. (EntityID, Timestamp) is unique after cleaning.
type ExitEvent struct {
	EntityID    string
	Timestamp   Date
	DateOfBirth Date
	ExitType    string
	ExitSubtype string
	SexAtExit   string

	Extra map[string]string
}

// PairedRecord is one published output row: an entry and, when one has been
// matched, the exit that closes it. Exit-side fields are nil for open records.
type PairedRecord struct {
	EntityID       string
	Name           string
	Species        string
	Breed          string
	Color          string
	DateOfBirth    *Date
	EntryTimestamp Date
	EntryType      string
	EntryCondition string
	SexAtEntry     string
	ExitTimestamp  *Date
	ExitType       *string
	ExitSubtype    *string
	SexAtExit      *string
}

// Open reports whether no exit has been matched to this record.
func (r PairedRecord) Open() bool {
	return r.ExitTimestamp == nil
}

// OutputColumns is the published column order.
var OutputColumns = []string{
	"entity_id",
	"name",
	"species",
	"breed",
	"color",
	"date_of_birth",
	"entry_timestamp",
	"entry_type",
	"entry_condition",
	"sex_at_entry",
	"exit_timestamp",
	"exit_type",
	"exit_subtype",
	"sex_at_exit",
}

// Values returns the record's cells in OutputColumns order.
// Null cells are nil; everything else is a string.
func (r PairedRecord) Values() []any {
	return []any{
		r.EntityID,
		r.Name,
		r.Species,
		r.Breed,
		r.Color,
		datePtrValue(r.DateOfBirth),
		r.EntryTimestamp.String(),
		r.EntryType,
		r.EntryCondition,
		r.SexAtEntry,
		datePtrValue(r.ExitTimestamp),
		strPtrValue(r.ExitType),
		strPtrValue(r.ExitSubtype),
		strPtrValue(r.SexAtExit),
	}
}

// Map returns the record keyed by output column name.
func (r PairedRecord) Map() map[string]any {
	vals := r.Values()
	m := make(map[string]any, len(OutputColumns))
	for i, col := range OutputColumns {
		m[col] = vals[i]
	}
	return m
}

func datePtrValue(d *Date) any {
	if d == nil || d.IsZero() {
		return nil
	}
	return d.String()
}

func strPtrValue(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
