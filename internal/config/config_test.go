package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	assert.NoError(t, Validate(Default(), "default"))
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "shelterpair.yaml", `
input:
  intakes: [clean_intakes.csv]
  outcomes: [clean_outcomes.csv]
output:
  path: out.ndjson
  format: ndjson
columns:
  entry:
    entity_id: id
log:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"clean_intakes.csv"}, cfg.Input.Intakes)
	assert.Equal(t, "out.ndjson", cfg.Output.Path)
	assert.Equal(t, "ndjson", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "id", cfg.Columns.Entry.EntityID)
	assert.Equal(t, "datetime", cfg.Columns.Entry.Timestamp, "unset columns keep defaults")
	assert.Equal(t, "sqlite3", cfg.Store.Driver, "unset sections keep defaults")
}

func TestLoad_YAMLEmptyFileIsDefault(t *testing.T) {
	cfg, err := Load(writeFile(t, "empty.yml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLUnknownField(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "output:\n  colour: red\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "colour")
}

func TestLoad_YAMLSchemaViolation(t *testing.T) {
	_, err := Load(writeFile(t, "bad.yaml", "output:\n  format: parquet\n"))
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "got %v", err)
}

func TestLoad_CUE(t *testing.T) {
	path := writeFile(t, "shelterpair.cue", `
input: dir: "data/clean"
store: {
	driver: "pgx"
	dsn:    "postgres://localhost/shelter"
}
clean: drop_columns: outcome: []
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "data/clean", cfg.Input.Dir)
	assert.Equal(t, "pgx", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/shelter", cfg.Store.DSN)
	assert.Equal(t, "csv", cfg.Output.Format)
}

func TestLoad_CUEUnknownField(t *testing.T) {
	_, err := Load(writeFile(t, "bad.cue", `store: port: 5432`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "got %v", err)
}

func TestLoad_CUEBadEnum(t *testing.T) {
	_, err := Load(writeFile(t, "bad.cue", `log: level: "chatty"`))
	require.Error(t, err)
	assert.True(t, IsValidationError(err), "got %v", err)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load(writeFile(t, "config.toml", ""))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported extension")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Output.Format = "xml"
	cfg.Log.Format = "logfmt"

	err := Validate(cfg, "flags")
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "flags", ve.Source)
	assert.GreaterOrEqual(t, len(ve.Problems), 2)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := ApplyEnvFrom(cfg, map[string]string{
		"SHELTERPAIR_DB_DRIVER": "pgx",
		"SHELTERPAIR_DB_DSN":    "postgres://db/shelter",
		"SHELTERPAIR_OUTPUT":    "-",
		"SHELTERPAIR_LOG_LEVEL": "warn",
		"SHELTERPAIR_INTAKES":   "a.csv,b.csv",
		"UNRELATED":             "x",
	})
	require.NoError(t, err)

	assert.Equal(t, "pgx", cfg.Store.Driver)
	assert.Equal(t, "postgres://db/shelter", cfg.Store.DSN)
	assert.Equal(t, "-", cfg.Output.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, []string{"a.csv", "b.csv"}, cfg.Input.Intakes)
	assert.Equal(t, "csv", cfg.Output.Format, "unset variables leave values alone")
}
