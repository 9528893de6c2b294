// Package ingest turns raw shelter exports into the cleaned tables the
// pairing core consumes.
//
// Cleaning is a sequence of stateless, row-level transforms:
//  1. Headers lower-cased with spaces replaced by hyphens
//  2. Empty sex-upon-intake/outcome cells set to "Unknown"
//  3. datetime (and date-of-birth for outcomes) normalised to YYYY-MM-DD
//  4. monthyear and found-location columns dropped
//  5. Rows repeating an (animal-id, datetime) pair dropped, first one kept
//  6. Outcome rows without an outcome-type dropped
//
// Every cell is NFC-normalised on the way in so the same name typed on two
// systems compares equal.
package ingest
