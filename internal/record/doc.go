// Package record defines the data model shared by the cleaning stage, the
// pairing core and the output sinks.
//
// Two input shapes exist:
//   - EntryEvent: one row from the intake log
//   - ExitEvent: one row from the outcome log
//
// The core turns them into PairedRecord values, one per EntryEvent, with the
// exit side left null when no exit has been matched yet (an open record).
//
// Table is the untyped tabular boundary. The cleaning stage produces Tables,
// the pairing package binds them into typed events using EntryColumns and
// ExitColumns.
package record
