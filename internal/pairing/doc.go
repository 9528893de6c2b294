// Package pairing reconciles an intake log and an outcome log into one
// paired record per intake.
//
// PIPELINE:
//
// Data flows strictly through four stages, none of which re-enter an
// earlier one:
//
// 1. Sequence: union entries and exits, group by entity, stable-sort by
// date, number each event 1..N within its entity.
// 2. FilterOrphans: drop every exit whose sequence rank is 1, i.e. the
// entity's history starts with an exit and no entry is on record.
// 3. Match: rank entries and surviving exits separately per entity, then
// left-join entry rank k to exit rank k. Unmatched exits are dropped.
// 4. Project: strip helper ranks and non-schema columns.
//
// Pairing is positional, not nearest-date. Two consecutive entries with no
// exit between them shift every later exit of that entity by one cycle.
// This is a known modelling limit and is kept on purpose.
//
// Every stage is a pure function over immutable input. There is no package
// state, so Pair is idempotent and safe to call from any goroutine.
package pairing
