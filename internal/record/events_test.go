package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPairedRecord_ValuesOpen(t *testing.T) {
	r := PairedRecord{
		EntityID:       "C1",
		Name:           "Bella",
		Species:        "Dog",
		Breed:          "Beagle",
		Color:          "Tan",
		EntryTimestamp: MustDate("2020-01-01"),
		EntryType:      "Stray",
		EntryCondition: "Normal",
		SexAtEntry:     "Intact Female",
	}

	vals := r.Values()
	assert.Len(t, vals, len(OutputColumns))
	assert.True(t, r.Open())
	assert.Equal(t, "C1", vals[0])
	assert.Nil(t, vals[5], "date_of_birth")
	assert.Equal(t, "2020-01-01", vals[6])
	for i := 10; i < 14; i++ {
		assert.Nil(t, vals[i], OutputColumns[i])
	}
}

func TestPairedRecord_MapClosed(t *testing.T) {
	exitType := "Adoption"
	subtype := ""
	sex := "Spayed Female"
	r := PairedRecord{
		EntityID:       "A1",
		EntryTimestamp: MustDate("2020-01-01"),
		DateOfBirth:    MustDate("2019-06-01").Ptr(),
		ExitTimestamp:  MustDate("2020-01-05").Ptr(),
		ExitType:       &exitType,
		ExitSubtype:    &subtype,
		SexAtExit:      &sex,
	}

	m := r.Map()
	assert.False(t, r.Open())
	assert.Equal(t, "2019-06-01", m["date_of_birth"])
	assert.Equal(t, "2020-01-05", m["exit_timestamp"])
	assert.Equal(t, "Adoption", m["exit_type"])
	assert.Equal(t, "", m["exit_subtype"])
}

func TestColumns_WithDefaults(t *testing.T) {
	c := EntryColumns{EntityID: "id"}.WithDefaults()
	assert.Equal(t, "id", c.EntityID)
	assert.Equal(t, "intake-type", c.EntryType)

	x := ExitColumns{}.WithDefaults()
	assert.Equal(t, DefaultExitColumns(), x)
	assert.Len(t, x.Required(), 6)
	assert.Len(t, c.Required(), 9)
}

func TestTable_Index(t *testing.T) {
	tbl := Table{Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	assert.Equal(t, 1, tbl.Index("b"))
	assert.Equal(t, -1, tbl.Index("c"))
	assert.Equal(t, "", Cell(tbl.Rows[0], 1))
	assert.Equal(t, "1", Cell(tbl.Rows[0], 0))
	assert.Equal(t, 1, tbl.Len())
}
