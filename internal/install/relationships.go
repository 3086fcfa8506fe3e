package install

import (
	"context"
	"log/slog"
	"sort"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

// RelationshipInstaller creates relationship join tables and registers
// their metadata.
type RelationshipInstaller struct {
	DB     Database
	Meta   MetadataRegistrar
	Logger *slog.Logger

	// Processed, when set, is consulted and extended so that a join table
	// already handled this run is not dropped or created again. Metadata is
	// registered for every relationship regardless.
	Processed *TableSet
}

// Install processes rels in name order, whatever order they are given
// in. Without drop, tables that already exist are left alone, so a second
// call changes no structure. Relationships sharing a join table each get
// their metadata registered. Returns the tables it created.
func (ri *RelationshipInstaller) Install(ctx context.Context, rels []meta.RelationshipDef, drop bool) ([]string, error) {
	log := loggerOrDefault(ri.Logger)

	sorted := make([]meta.RelationshipDef, len(rels))
	copy(sorted, rels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var created []string
	for _, rel := range sorted {
		if err := ctx.Err(); err != nil {
			return created, newError(KindTimeout, rel.Name, err)
		}

		if ri.Processed != nil && ri.Processed.Contains(rel.Table) {
			// Another relationship or a module owns the table; only the
			// metadata below is still ours to write.
			log.Debug("relationship table already processed", "relationship", rel.Name, "table", rel.Table)
		} else {
			ok, err := ri.createTable(ctx, rel, drop)
			if err != nil {
				return created, err
			}
			if ok {
				created = append(created, rel.Table)
			}
			if ri.Processed != nil {
				ri.Processed.Add(rel.Table)
			}
		}

		if err := ri.Meta.RegisterRelationshipMetadata(ctx, rel.Name, rel.Table, rel.Links); err != nil {
			return created, newError(KindSchema, rel.Name, err)
		}
	}

	return created, nil
}

// createTable drops the join table when drop is set and creates it when
// absent. Reports whether it created the table.
func (ri *RelationshipInstaller) createTable(ctx context.Context, rel meta.RelationshipDef, drop bool) (bool, error) {
	if drop {
		if err := ri.DB.DropTable(ctx, rel.Table); err != nil {
			return false, newError(KindSchema, rel.Name, err)
		}
	}

	exists, err := ri.DB.TableExists(ctx, rel.Table)
	if err != nil {
		return false, newError(KindSchema, rel.Name, err)
	}
	if exists {
		return false, nil
	}
	if err := ri.DB.CreateTable(ctx, rel.Table, rel.Fields, rel.Indices); err != nil {
		return false, newError(KindSchema, rel.Name, err)
	}
	loggerOrDefault(ri.Logger).Debug("relationship table created", "relationship", rel.Name, "table", rel.Table)
	return true, nil
}
