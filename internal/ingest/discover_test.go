package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Austin_Animal_Center_Intakes.csv", "x\n")
	writeFile(t, dir, "Austin_Animal_Center_Outcomes.CSV", "x\n")
	writeFile(t, dir, "intakes-2019.csv", "x\n")
	writeFile(t, dir, "notes.txt", "intake")
	writeFile(t, dir, "other.csv", "x\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "intake-archive.csv"), 0755))

	src, err := Discover(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "Austin_Animal_Center_Intakes.csv"),
		filepath.Join(dir, "intakes-2019.csv"),
	}, src.Intakes)
	assert.Equal(t, []string{filepath.Join(dir, "Austin_Animal_Center_Outcomes.CSV")}, src.Outcomes)
}

func TestDiscover_MissingDir(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}

func TestLoadKind_DedupesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "intakes-a.csv",
		"Animal ID,DateTime,Name,Sex upon Intake\nA1,01/01/2020 10:00:00 AM,Rex,Intact Male\n")
	b := writeFile(t, dir, "intakes-b.csv",
		"Name,Animal ID,DateTime,Sex upon Intake\nRex,A1,01/01/2020 03:00:00 PM,Intact Male\nMia,A2,01/02/2020 09:00:00 AM,\n")

	tbl, stats, err := LoadKind([]string{a, b}, KindIntake, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"animal-id", "datetime", "name", "sex-upon-intake"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"A2", "2020-01-02", "Mia", "Unknown"}, tbl.Rows[1])
	assert.Equal(t, 1, stats.Duplicates)
}

func TestLoadKind_NoFiles(t *testing.T) {
	_, _, err := LoadKind(nil, KindOutcome, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no input files")
}
