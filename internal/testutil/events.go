// Package testutil builds intake and outcome fixtures for tests.
package testutil

import (
	"github.com/roach88/shelterpair/internal/record"
)

// Entry returns an intake event for entityID on date (YYYY-MM-DD) with
// plausible defaults for the descriptive fields.
func Entry(entityID, date string) record.EntryEvent {
	return record.EntryEvent{
		EntityID:       entityID,
		Timestamp:      parseOrZero(date),
		EntryType:      "Stray",
		EntryCondition: "Normal",
		SexAtEntry:     "Unknown",
		Name:           "Name-" + entityID,
		Species:        "Dog",
		Breed:          "Mixed",
		Color:          "Black",
	}
}

// Exit returns an outcome event for entityID on date (YYYY-MM-DD).
func Exit(entityID, date string) record.ExitEvent {
	return record.ExitEvent{
		EntityID:    entityID,
		Timestamp:   parseOrZero(date),
		DateOfBirth: record.MustDate("2019-01-01"),
		ExitType:    "Adoption",
		ExitSubtype: "",
		SexAtExit:   "Unknown",
	}
}

// Entries builds one Entry per (entityID, date) pair.
func Entries(pairs ...string) []record.EntryEvent {
	out := make([]record.EntryEvent, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Entry(pairs[i], pairs[i+1]))
	}
	return out
}

// Exits builds one Exit per (entityID, date) pair.
func Exits(pairs ...string) []record.ExitEvent {
	out := make([]record.ExitEvent, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Exit(pairs[i], pairs[i+1]))
	}
	return out
}

func parseOrZero(s string) record.Date {
	if s == "" {
		return record.Date{}
	}
	return record.MustDate(s)
}
