package install

import (
	"context"
	"errors"
	"log/slog"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/meta"
	"github.com/isleshocky77/crmsetup/internal/store"
	"github.com/isleshocky77/crmsetup/internal/vardef"
)

// SchemaResult is what SchemaInstaller.Install did.
type SchemaResult struct {
	// Created lists the tables created by this call, in order.
	Created []string

	// Fresh maps seed roles to true when their table was created by this
	// call.
	Fresh map[catalog.SeedRole]bool

	// Skipped lists modules passed over by policy.
	Skipped []catalog.Skip
}

// SchemaInstaller creates module tables and registers their relationship
// metadata.
type SchemaInstaller struct {
	DB     Database
	Meta   MetadataRegistrar
	Hooks  *Hooks
	Logger *slog.Logger
}

// Install processes mods in order. For each module it skips non-standard
// modules and tables already in processed, drops the table when drop is
// set, creates it when absent and registers the vardef's relationship
// metadata whether or not the table was new. When the metadata table's own
// module is in mods, registration is held back until that module is done.
//
// Modules whose vardef is malformed or has no table are skipped and
// reported. Any database error stops the run with a KindSchema error.
func (si *SchemaInstaller) Install(ctx context.Context, mods []*catalog.Descriptor, processed *TableSet, drop bool) (SchemaResult, error) {
	res := SchemaResult{Fresh: make(map[catalog.SeedRole]bool)}
	log := loggerOrDefault(si.Logger)

	if err := si.Hooks.Fire(ctx, HookPreCreateAllModuleTables, ""); err != nil {
		return res, err
	}

	// Metadata rows wait until the module owning the metadata table has been
	// installed, so its vardef shapes the table and its drop cannot discard
	// rows written earlier in the run.
	var pending []metadataBatch
	metaReady := processed.Contains(store.RelationshipsTable) || !ownsMetadataTable(mods)

	for _, d := range mods {
		if err := ctx.Err(); err != nil {
			return res, newError(KindTimeout, d.ID, err)
		}

		if d.NonStandard {
			log.Debug("skipping non-standard module", "module", d.ID)
			continue
		}

		def, err := d.Definition()
		if err != nil {
			reason := catalog.SkipDefinition
			if errors.Is(err, vardef.ErrSourceNotFound) {
				reason = catalog.SkipSourceAbsent
			}
			log.Warn("skipping module", "module", d.ID, "reason", reason,
				"kind", KindSchemaDefinition, "error", err)
			res.Skipped = append(res.Skipped, catalog.Skip{Module: d.ID, Reason: reason, Err: err})
			continue
		}
		if !def.HasTable() {
			log.Debug("skipping module without table", "module", d.ID)
			res.Skipped = append(res.Skipped, catalog.Skip{Module: d.ID, Reason: catalog.SkipNoTable})
			continue
		}

		table := def.Table
		if processed.Contains(table) {
			log.Debug("table already processed", "module", d.ID, "table", table)
			continue
		}

		if err := si.Hooks.Fire(ctx, HookPreCreateModuleTable, d.ID); err != nil {
			return res, err
		}

		if drop {
			if err := si.DB.DropTable(ctx, table); err != nil {
				return res, newError(KindSchema, d.ID, err)
			}
		}

		exists, err := si.DB.TableExists(ctx, table)
		if err != nil {
			return res, newError(KindSchema, d.ID, err)
		}
		if !exists {
			if err := si.DB.CreateTable(ctx, table, def.Fields, def.Indices); err != nil {
				return res, newError(KindSchema, d.ID, err)
			}
			res.Created = append(res.Created, table)
			if d.Seeds != catalog.SeedNone {
				res.Fresh[d.Seeds] = true
			}
			log.Debug("table created", "module", d.ID, "table", table)
		} else {
			log.Debug("table exists", "module", d.ID, "table", table)
		}

		processed.Add(table)
		pending = append(pending, metadataBatch{owner: d.ID, table: table, links: def.Relationships})
		if table == store.RelationshipsTable {
			metaReady = true
		}
		if metaReady {
			if err := si.register(ctx, pending); err != nil {
				return res, err
			}
			pending = pending[:0]
		}

		if err := si.Hooks.Fire(ctx, HookPostCreateModuleTable, d.ID); err != nil {
			return res, err
		}
	}

	// The owning module was skipped; the registrar falls back to its own
	// layout.
	if err := si.register(ctx, pending); err != nil {
		return res, err
	}

	if err := si.Hooks.Fire(ctx, HookPostCreateAllModuleTables, ""); err != nil {
		return res, err
	}
	return res, nil
}

// metadataBatch is one module's relationship links awaiting registration.
type metadataBatch struct {
	owner string
	table string
	links []meta.RelationshipLink
}

func (si *SchemaInstaller) register(ctx context.Context, batches []metadataBatch) error {
	for _, b := range batches {
		if err := si.Meta.RegisterRelationshipMetadata(ctx, b.owner, b.table, b.links); err != nil {
			return newError(KindSchema, b.owner, err)
		}
	}
	return nil
}

func ownsMetadataTable(mods []*catalog.Descriptor) bool {
	for _, d := range mods {
		if !d.NonStandard && d.TableName() == store.RelationshipsTable {
			return true
		}
	}
	return false
}

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}
