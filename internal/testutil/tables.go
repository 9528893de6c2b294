package testutil

import (
	"strings"

	"github.com/roach88/shelterpair/internal/record"
)

// IntakeHeader is the cleaned intake header in export order.
var IntakeHeader = []string{
	"animal-id", "name", "datetime", "intake-type", "intake-condition",
	"animal-type", "sex-upon-intake", "age-upon-intake", "breed", "color",
}

// OutcomeHeader is the cleaned outcome header in export order.
var OutcomeHeader = []string{
	"animal-id", "name", "datetime", "date-of-birth", "outcome-type",
	"outcome-subtype", "animal-type", "sex-upon-outcome", "age-upon-outcome", "breed", "color",
}

// Table builds a record.Table from a header and comma-separated rows.
// Cells cannot contain commas.
func Table(header []string, rows ...string) record.Table {
	t := record.Table{Columns: append([]string(nil), header...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, strings.Split(r, ","))
	}
	return t
}
