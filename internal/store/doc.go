// Package store is the SQLite side of the installer.
//
// A Provisioner maps database names onto files in a data directory and
// creates, drops and opens them. A Store wraps one open database and
// implements every collaborator the install sequencer needs:
//   - DDL: TableExists, CreateTable, DropTable, generated from vardef
//     field and index definitions
//   - Metadata: RegisterRelationshipMetadata upserts rows of the
//     relationships table keyed by a name-derived UUID
//   - Seed data: settings rows, the admin account, scheduler templates
//     and user preferences
//
// # Connection model
//
// One *sql.DB with a single open connection is shared by every stage of a
// run. Tables named by callers come from validated vardefs and are always
// quoted in generated SQL.
package store
