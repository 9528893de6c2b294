package record

// Table is a header plus string rows, the shape every CSV source is read
// into. Rows may be shorter than Columns; missing cells read as "".
type Table struct {
	Columns []string
	Rows    [][]string
}

// Index returns the position of col in the header, or -1.
func (t Table) Index(col string) int {
	for i, c := range t.Columns {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether the header contains col.
func (t Table) Has(col string) bool {
	return t.Index(col) >= 0
}

// Cell returns row[idx], or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// EntryColumns names the cleaned-table column that feeds each entry field.
type EntryColumns struct {
	EntityID       string `yaml:"entity_id" json:"entity_id,omitempty"`
	Timestamp      string `yaml:"timestamp" json:"timestamp,omitempty"`
	EntryType      string `yaml:"entry_type" json:"entry_type,omitempty"`
	EntryCondition string `yaml:"entry_condition" json:"entry_condition,omitempty"`
	SexAtEntry     string `yaml:"sex_at_entry" json:"sex_at_entry,omitempty"`
	Name           string `yaml:"name" json:"name,omitempty"`
	Species        string `yaml:"species" json:"species,omitempty"`
	Breed          string `yaml:"breed" json:"breed,omitempty"`
	Color          string `yaml:"color" json:"color,omitempty"`
}

// ExitColumns names the cleaned-table column that feeds each exit field.
type ExitColumns struct {
	EntityID    string `yaml:"entity_id" json:"entity_id,omitempty"`
	Timestamp   string `yaml:"timestamp" json:"timestamp,omitempty"`
	DateOfBirth string `yaml:"date_of_birth" json:"date_of_birth,omitempty"`
	ExitType    string `yaml:"exit_type" json:"exit_type,omitempty"`
	ExitSubtype string `yaml:"exit_subtype" json:"exit_subtype,omitempty"`
	SexAtExit   string `yaml:"sex_at_exit" json:"sex_at_exit,omitempty"`
}

// DefaultEntryColumns returns the vocabulary of the shelter intake export.
func DefaultEntryColumns() EntryColumns {
	return EntryColumns{
		EntityID:       "animal-id",
		Timestamp:      "datetime",
		EntryType:      "intake-type",
		EntryCondition: "intake-condition",
		SexAtEntry:     "sex-upon-intake",
		Name:           "name",
		Species:        "animal-type",
		Breed:          "breed",
		Color:          "color",
	}
}

// DefaultExitColumns returns the vocabulary of the shelter outcome export.
func DefaultExitColumns() ExitColumns {
	return ExitColumns{
		EntityID:    "animal-id",
		Timestamp:   "datetime",
		DateOfBirth: "date-of-birth",
		ExitType:    "outcome-type",
		ExitSubtype: "outcome-subtype",
		SexAtExit:   "sex-upon-outcome",
	}
}

// Required returns the columns in field order.
func (c EntryColumns) Required() []string {
	return []string{c.EntityID, c.Timestamp, c.EntryType, c.EntryCondition, c.SexAtEntry, c.Name, c.Species, c.Breed, c.Color}
}

// Required returns the columns in field order.
func (c ExitColumns) Required() []string {
	return []string{c.EntityID, c.Timestamp, c.DateOfBirth, c.ExitType, c.ExitSubtype, c.SexAtExit}
}

// WithDefaults fills empty names from DefaultEntryColumns.
func (c EntryColumns) WithDefaults() EntryColumns {
	d := DefaultEntryColumns()
	fill(&c.EntityID, d.EntityID)
	fill(&c.Timestamp, d.Timestamp)
	fill(&c.EntryType, d.EntryType)
	fill(&c.EntryCondition, d.EntryCondition)
	fill(&c.SexAtEntry, d.SexAtEntry)
	fill(&c.Name, d.Name)
	fill(&c.Species, d.Species)
	fill(&c.Breed, d.Breed)
	fill(&c.Color, d.Color)
	return c
}

// WithDefaults fills empty names from DefaultExitColumns.
func (c ExitColumns) WithDefaults() ExitColumns {
	d := DefaultExitColumns()
	fill(&c.EntityID, d.EntityID)
	fill(&c.Timestamp, d.Timestamp)
	fill(&c.DateOfBirth, d.DateOfBirth)
	fill(&c.ExitType, d.ExitType)
	fill(&c.ExitSubtype, d.ExitSubtype)
	fill(&c.SexAtExit, d.SexAtExit)
	return c
}

func fill(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}
