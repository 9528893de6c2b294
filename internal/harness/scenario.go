package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/shelterpair/internal/pairing"
)

// Scenario is one pairing case.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	Entries []EntrySpec `yaml:"entries"`
	Exits   []ExitSpec  `yaml:"exits"`

	Expect Expect `yaml:"expect"`
}

// EntrySpec describes one intake event. Empty fields take fixture defaults.
type EntrySpec struct {
	EntityID       string `yaml:"entity_id"`
	Timestamp      string `yaml:"timestamp"`
	EntryType      string `yaml:"entry_type,omitempty"`
	EntryCondition string `yaml:"entry_condition,omitempty"`
	Sex            string `yaml:"sex,omitempty"`
	Name           string `yaml:"name,omitempty"`
	Species        string `yaml:"species,omitempty"`
	Breed          string `yaml:"breed,omitempty"`
	Color          string `yaml:"color,omitempty"`
}

// ExitSpec describes one outcome event. Empty fields take fixture defaults,
// except ExitSubtype which is empty unless set.
type ExitSpec struct {
	EntityID    string `yaml:"entity_id"`
	Timestamp   string `yaml:"timestamp"`
	DateOfBirth string `yaml:"date_of_birth,omitempty"`
	ExitType    string `yaml:"exit_type,omitempty"`
	ExitSubtype string `yaml:"exit_subtype,omitempty"`
	Sex         string `yaml:"sex,omitempty"`
}

// Expect lists what the pairing must produce.
type Expect struct {
	// Rows is the exact number of published records.
	Rows *int `yaml:"rows,omitempty"`

	// Error is the expected pairing error code. When set, no records are
	// expected and the other fields must be empty.
	Error pairing.ErrorCode `yaml:"error,omitempty"`

	// Records are subset matches keyed by entity_id and entry_timestamp.
	Records []map[string]*string `yaml:"records,omitempty"`

	// Absent lists entity IDs that must not appear in the output.
	Absent []string `yaml:"absent,omitempty"`

	// Stats are checked field by field when set.
	Stats *ExpectStats `yaml:"stats,omitempty"`
}

// ExpectStats holds optional run statistic checks.
type ExpectStats struct {
	OrphanExits    *int `yaml:"orphan_exits,omitempty"`
	UnmatchedExits *int `yaml:"unmatched_exits,omitempty"`
	OpenRecords    *int `yaml:"open_records,omitempty"`
	Paired         *int `yaml:"paired,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
// Scenario names must be unique.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("scan scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	slices.Sort(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	seen := make(map[string]string)
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		if prev, ok := seen[s.Name]; ok {
			return nil, fmt.Errorf("duplicate scenario name %q in %s and %s", s.Name, prev, p)
		}
		seen[s.Name] = p
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Entries) == 0 && len(s.Exits) == 0 {
		return fmt.Errorf("at least one entry or exit is required")
	}

	e := s.Expect
	if e.Error != "" {
		if e.Rows != nil || len(e.Records) > 0 || len(e.Absent) > 0 || e.Stats != nil {
			return fmt.Errorf("expect: error excludes rows, records, absent and stats")
		}
		return nil
	}
	if e.Rows == nil {
		return fmt.Errorf("expect.rows is required")
	}
	if *e.Rows < 0 {
		return fmt.Errorf("expect.rows must be non-negative")
	}
	for i, r := range e.Records {
		for _, key := range []string{"entity_id", "entry_timestamp"} {
			if v, ok := r[key]; !ok || v == nil {
				return fmt.Errorf("expect.records[%d]: %s is required", i, key)
			}
		}
	}
	return nil
}
