// Package harness runs pairing scenarios described in YAML and checks the
// published records against expectations and golden files.
//
// # Scenario Format
//
//	name: two_cycles
//	description: "Two stays of one animal stay separate"
//	entries:
//	  - { entity_id: A1, timestamp: 2020-01-01 }
//	  - { entity_id: A1, timestamp: 2020-02-01, entry_type: Stray }
//	exits:
//	  - { entity_id: A1, timestamp: 2020-01-05, exit_type: Adoption }
//	expect:
//	  rows: 2
//	  records:
//	    - { entity_id: A1, entry_timestamp: 2020-01-01, exit_timestamp: 2020-01-05 }
//	    - { entity_id: A1, entry_timestamp: 2020-02-01, exit_timestamp: ~ }
//	  absent: [B1]
//	  stats: { orphan_exits: 0 }
//
// Omitted event fields take the testutil fixture defaults. Expected records
// are matched on (entity_id, entry_timestamp) and compared field by field;
// only listed fields are checked and ~ means null. A scenario that expects a
// pairing failure sets expect.error to the error code instead.
//
// Scenarios decode strictly: unknown keys are errors.
package harness
