package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/shelterpair/internal/config"
)

const rawIntakes = `Animal ID,Name,DateTime,MonthYear,Found Location,Intake Type,Intake Condition,Animal Type,Sex upon Intake,Age upon Intake,Breed,Color
A1,Rex,01/01/2020 10:15:00 AM,January 2020,Austin (TX),Stray,Normal,Dog,Intact Male,2 years,Beagle,Tan
A1,Rex,02/01/2020 10:15:00 AM,February 2020,Austin (TX),Stray,Normal,Dog,Intact Male,2 years,Beagle,Tan
B1,Mia,03/01/2020 09:00:00 AM,March 2020,Austin (TX),Owner Surrender,Normal,Cat,,1 year,Domestic Shorthair,Black
`

const rawOutcomes = `Animal ID,Name,DateTime,MonthYear,Date of Birth,Outcome Type,Outcome Subtype,Animal Type,Sex upon Outcome,Age upon Outcome,Breed,Color
A1,Rex,01/05/2020 11:00:00 AM,Jan 2020,01/01/2018,Adoption,,Dog,Neutered Male,2 years,Beagle,Tan
A1,Rex,02/10/2020 11:00:00 AM,Feb 2020,01/01/2018,Return to Owner,,Dog,Neutered Male,2 years,Beagle,Tan
C1,Ghost,01/01/2020 08:00:00 AM,Jan 2020,01/01/2015,Transfer,Partner,Cat,Spayed Female,5 years,Siamese,White
`

// badIntakes adds a row without an animal ID.
const badIntakes = rawIntakes + ",Nobody,04/01/2020 09:00:00 AM,April 2020,Austin (TX),Stray,Normal,Dog,Unknown,1 year,Mixed,Brown\n"

const wantCSV = `entity_id,name,species,breed,color,date_of_birth,entry_timestamp,entry_type,entry_condition,sex_at_entry,exit_timestamp,exit_type,exit_subtype,sex_at_exit
A1,Rex,Dog,Beagle,Tan,2018-01-01,2020-01-01,Stray,Normal,Intact Male,2020-01-05,Adoption,,Neutered Male
A1,Rex,Dog,Beagle,Tan,2018-01-01,2020-02-01,Stray,Normal,Intact Male,2020-02-10,Return to Owner,,Neutered Male
B1,Mia,Cat,Domestic Shorthair,Black,,2020-03-01,Owner Surrender,Normal,Unknown,,,,
`

const (
	intakesFile  = "Austin_Animal_Center_Intakes.csv"
	outcomesFile = "Austin_Animal_Center_Outcomes.csv"
)

func writeInputs(t *testing.T, intakes, outcomes string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, intakesFile), []byte(intakes), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, outcomesFile), []byte(outcomes), 0o644))
	return dir
}

// rootOpts returns options isolated from the host environment.
func rootOpts(format string) *RootOptions {
	return &RootOptions{
		Format:   format,
		applyEnv: func(*config.Config) error { return nil },
	}
}

// execute runs cmd with args and returns stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if args == nil {
		// nil makes cobra fall back to os.Args.
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}
