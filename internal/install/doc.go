// Package install runs the ordered installation pipeline.
//
// A Sequencer walks a fixed list of stages:
//
//	ConfigPrepared -> DatabaseProvisioned -> SchemaInstalled ->
//	RelationshipsInstalled -> DefaultsSeeded -> ModulesPostProcessed ->
//	UserFinalized -> Complete
//
// Any fatal error moves the run to Failed and stops it. Nothing is rolled
// back: every step is written so that running it again converges on the
// same database.
//
// The stage components (SchemaInstaller, RelationshipInstaller,
// DefaultsSeeder) talk to the database through the small interfaces in
// collaborators.go. store.Store implements all of them; tests substitute
// fakes where a real database gets in the way.
package install
