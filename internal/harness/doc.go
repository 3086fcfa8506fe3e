// Package harness runs installation scenarios end to end.
//
// A scenario declares a module catalog and a sequence of installer runs
// that share one working directory, so later runs exercise re-runs
// against what earlier runs left behind. Every hook firing is recorded
// into a trace, and assertions check the trace and the final database.
//
// # Scenario Format
//
//	name: fresh_then_rerun
//	description: "What this scenario validates"
//	vardefs: ../vardefs            # optional, relative to this file
//	modules:
//	  - {id: User, dir: Users, table: users, default_init: true, seeds: users}
//	runs:
//	  - name: fresh
//	    config: {setup_db_create_database: "true"}
//	    expect:
//	      status: Complete
//	      admin: created
//	  - name: rerun
//	    force: true
//	    config: {setup_db_create_database: "false"}
//	assertions:
//	  - type: trace_count
//	    run: rerun
//	    hook: pre_createDefaultSettings
//	    count: 0
//	  - type: final_state
//	    table: config
//	    where: {category: info, name: sugar_version}
//	    expect: {value: "7.10.0"}
//
// # Assertion Types
//
//   - trace_contains: the hook fired, optionally for a given subject
//   - trace_order: events first occur in the given order
//   - trace_count: the hook fired exactly N times
//   - final_state: exactly one row matches and holds the expected values
//   - row_count: N rows match
//
// # Deterministic Testing
//
// Run IDs come from a sequence generator ("run-0001", "run-0002", ...)
// and timestamps from a step clock, so snapshots compare byte for byte
// against golden files.
package harness
