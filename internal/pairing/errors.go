package pairing

import (
	"errors"
	"fmt"
	"strings"
)

// PairingError reports a malformed input row or a violated ranking
// invariant. The run aborts on the first one; there is no partial result.
type PairingError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EntityID identifies the offending entity, when known.
	EntityID string

	// Timestamp is the offending row's date (or raw cell), when known.
	Timestamp string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes pairing errors.
type ErrorCode string

const (
	// ErrCodeMissingIdentifier indicates an event with an empty entity ID.
	ErrCodeMissingIdentifier ErrorCode = "MISSING_IDENTIFIER"

	// ErrCodeMissingTimestamp indicates an event without a normalized date.
	ErrCodeMissingTimestamp ErrorCode = "MISSING_TIMESTAMP"

	// ErrCodeDuplicateRank indicates two entries of one entity share a rank.
	ErrCodeDuplicateRank ErrorCode = "DUPLICATE_RANK"

	// ErrCodeSchemaMismatch indicates an input table lacks required columns.
	ErrCodeSchemaMismatch ErrorCode = "SCHEMA_MISMATCH"
)

// Error implements the error interface.
func (e *PairingError) Error() string {
	switch {
	case e.EntityID != "" && e.Timestamp != "":
		return fmt.Sprintf("%s: %s (entity=%s, timestamp=%s)", e.Code, e.Message, e.EntityID, e.Timestamp)
	case e.EntityID != "":
		return fmt.Sprintf("%s: %s (entity=%s)", e.Code, e.Message, e.EntityID)
	case e.Timestamp != "":
		return fmt.Sprintf("%s: %s (timestamp=%s)", e.Code, e.Message, e.Timestamp)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var pe *PairingError
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// IsMissingIdentifier reports whether err is a missing-identifier error.
func IsMissingIdentifier(err error) bool { return hasCode(err, ErrCodeMissingIdentifier) }

// IsMissingTimestamp reports whether err is a missing-timestamp error.
func IsMissingTimestamp(err error) bool { return hasCode(err, ErrCodeMissingTimestamp) }

// IsDuplicateRank reports whether err is a duplicate-rank error.
func IsDuplicateRank(err error) bool { return hasCode(err, ErrCodeDuplicateRank) }

// IsSchemaMismatch reports whether err is a schema-mismatch error.
func IsSchemaMismatch(err error) bool { return hasCode(err, ErrCodeSchemaMismatch) }

// NewMissingIdentifierError reports the row at position index of the given
// log that has no entity ID.
func NewMissingIdentifierError(log string, index int, timestamp string) *PairingError {
	return &PairingError{
		Code:      ErrCodeMissingIdentifier,
		Message:   fmt.Sprintf("%s row %d has no entity_id", log, index),
		Timestamp: timestamp,
		Details: map[string]string{
			"log": log,
			"row": fmt.Sprintf("%d", index),
		},
	}
}

// NewMissingTimestampError reports a row of entityID with no usable date.
// raw is the unparsed cell, if there was one.
func NewMissingTimestampError(log string, index int, entityID, raw string) *PairingError {
	msg := fmt.Sprintf("%s row %d has no normalized timestamp", log, index)
	if raw != "" {
		msg = fmt.Sprintf("%s row %d has malformed timestamp %q", log, index, raw)
	}
	return &PairingError{
		Code:      ErrCodeMissingTimestamp,
		Message:   msg,
		EntityID:  entityID,
		Timestamp: raw,
		Details: map[string]string{
			"log": log,
			"row": fmt.Sprintf("%d", index),
		},
	}
}

// NewDuplicateRankError reports two entries of entityID ranked the same.
func NewDuplicateRankError(entityID string, rank int, timestamp string) *PairingError {
	return &PairingError{
		Code:      ErrCodeDuplicateRank,
		Message:   fmt.Sprintf("entry rank %d assigned twice", rank),
		EntityID:  entityID,
		Timestamp: timestamp,
		Details: map[string]string{
			"rank": fmt.Sprintf("%d", rank),
		},
	}
}

// NewSchemaMismatchError reports the required columns missing from a table.
func NewSchemaMismatchError(table string, missing []string) *PairingError {
	return &PairingError{
		Code:    ErrCodeSchemaMismatch,
		Message: fmt.Sprintf("%s table is missing required columns: %s", table, strings.Join(missing, ", ")),
		Details: map[string]string{
			"table":   table,
			"missing": strings.Join(missing, ","),
		},
	}
}
