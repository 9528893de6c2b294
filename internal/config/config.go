// Package config loads run configuration from YAML or CUE files and the
// environment.
//
// Precedence, lowest first: Default, the config file, SHELTERPAIR_*
// environment variables, command-line flags (applied by the caller).
// Every loaded config is checked against the embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/shelterpair/internal/record"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHELTERPAIR_"

// Config is the full run configuration.
type Config struct {
	Input   Input   `yaml:"input" json:"input"`
	Clean   Clean   `yaml:"clean" json:"clean"`
	Columns Columns `yaml:"columns" json:"columns"`
	Output  Output  `yaml:"output" json:"output"`
	Store   Store   `yaml:"store" json:"store"`
	Metrics Metrics `yaml:"metrics" json:"metrics"`
	Log     Log     `yaml:"log" json:"log"`
}

// Input selects the cleaned intake and outcome files. Explicit file lists
// take precedence over Dir discovery.
type Input struct {
	Dir      string   `yaml:"dir" json:"dir,omitempty" env:"INPUT_DIR"`
	Intakes  []string `yaml:"intakes" json:"intakes,omitempty" env:"INTAKES" envSeparator:","`
	Outcomes []string `yaml:"outcomes" json:"outcomes,omitempty" env:"OUTCOMES" envSeparator:","`
}

// Clean tunes the cleaning stage.
type Clean struct {
	UnknownSex  string      `yaml:"unknown_sex" json:"unknown_sex,omitempty" env:"UNKNOWN_SEX"`
	DropColumns DropColumns `yaml:"drop_columns" json:"drop_columns"`
}

// DropColumns overrides the dropped columns per kind. nil keeps the default.
type DropColumns struct {
	Intake  []string `yaml:"intake" json:"intake,omitempty"`
	Outcome []string `yaml:"outcome" json:"outcome,omitempty"`
}

// Columns maps cleaned-table columns to event fields.
type Columns struct {
	Entry record.EntryColumns `yaml:"entry" json:"entry"`
	Exit  record.ExitColumns  `yaml:"exit" json:"exit"`
}

// Output selects the published file.
type Output struct {
	Path   string `yaml:"path" json:"path,omitempty" env:"OUTPUT"`
	Format string `yaml:"format" json:"format,omitempty" env:"OUTPUT_FORMAT"`
}

// Store selects the run database. An empty DSN disables persistence.
type Store struct {
	Driver string `yaml:"driver" json:"driver,omitempty" env:"DB_DRIVER"`
	DSN    string `yaml:"dsn" json:"dsn,omitempty" env:"DB_DSN"`
}

// Metrics configures metric export. An empty Textfile disables it.
type Metrics struct {
	Textfile string `yaml:"textfile" json:"textfile,omitempty" env:"METRICS_TEXTFILE"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level" json:"level,omitempty" env:"LOG_LEVEL"`
	Format string `yaml:"format" json:"format,omitempty" env:"LOG_FORMAT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Clean: Clean{UnknownSex: "Unknown"},
		Columns: Columns{
			Entry: record.DefaultEntryColumns(),
			Exit:  record.DefaultExitColumns(),
		},
		Output: Output{Path: "paired.csv", Format: "csv"},
		Store:  Store{Driver: "sqlite3"},
		Log:    Log{Level: "info", Format: "text"},
	}
}

// ValidationError lists every schema violation in a config.
type ValidationError struct {
	Source   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Load reads a .yaml, .yml, or .cue file over Default and validates it.
// Environment overrides are not applied.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".cue":
		err = decodeCUE(path, data, cfg)
	default:
		return nil, fmt.Errorf("load config %s: unsupported extension %q (want .yaml, .yml or .cue)", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}

	if err := Validate(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeYAML uses strict decoding: unknown fields are errors.
func decodeYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse yaml: %w", err)
	}
	return nil
}

// decodeCUE unifies the file with #Config so closedness rejects unknown
// fields, then exports it as JSON over cfg.
func decodeCUE(path string, data []byte, cfg *Config) error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return fmt.Errorf("compile cue: %w", err)
	}
	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Source: path, Problems: problems(err)}
	}

	js, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("export cue: %w", err)
	}
	if err := json.Unmarshal(js, cfg); err != nil {
		return fmt.Errorf("decode cue: %w", err)
	}
	return nil
}

// Validate checks cfg against the embedded schema. source names the config
// in error messages.
func Validate(cfg *Config, source string) error {
	ctx := cuecontext.New()
	schema, err := compileSchema(ctx)
	if err != nil {
		return err
	}

	js, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	v := schema.Unify(ctx.CompileBytes(js, cue.Filename(source)))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{Source: source, Problems: problems(err)}
	}
	return nil
}

func compileSchema(ctx *cue.Context) (cue.Value, error) {
	v := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile config schema: %w", err)
	}
	return v.LookupPath(cue.ParsePath("#Config")), nil
}

func problems(err error) []string {
	var out []string
	for _, e := range cueerrors.Errors(err) {
		out = append(out, e.Error())
	}
	if len(out) == 0 {
		out = append(out, err.Error())
	}
	return out
}

// ApplyEnv overrides cfg from SHELTERPAIR_* environment variables.
func ApplyEnv(cfg *Config) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix})
}

// ApplyEnvFrom is ApplyEnv over an explicit environment. Used in tests.
func ApplyEnvFrom(cfg *Config, environ map[string]string) error {
	return applyEnv(cfg, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func applyEnv(cfg *Config, opts env.Options) error {
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
