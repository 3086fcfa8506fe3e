package install

import (
	"context"
	"time"

	"github.com/isleshocky77/crmsetup/internal/meta"
	"github.com/isleshocky77/crmsetup/internal/store"
)

// Database creates and drops tables.
type Database interface {
	TableExists(ctx context.Context, name string) (bool, error)
	CreateTable(ctx context.Context, name string, fields []meta.FieldDef, indices []meta.IndexDef) error
	DropTable(ctx context.Context, name string) error
}

// MetadataRegistrar records relationship metadata rows.
type MetadataRegistrar interface {
	RegisterRelationshipMetadata(ctx context.Context, owner, table string, links []meta.RelationshipLink) error
}

// SeedStore writes default data.
type SeedStore interface {
	InsertSettings(ctx context.Context, table string, settings []store.Setting) error
	SaveSetting(ctx context.Context, table string, st store.Setting) error
	CreateAdmin(ctx context.Context, table string, acct store.AdminAccount, now time.Time) error
	ResetAdminPassword(ctx context.Context, table, password string, now time.Time) error
	SetAdmin(ctx context.Context, table string, now time.Time) error
	ReplaceSchedulers(ctx context.Context, table string, jobs []store.Scheduler, now time.Time) error
	SavePreferences(ctx context.Context, table, userID, category string, prefs map[string]any, now time.Time) error
}

// Target is an open installation database.
type Target interface {
	Database
	MetadataRegistrar
	SeedStore
	EnsureEncoding(ctx context.Context) error
	Close() error
}

// Provisioner creates, drops and opens named databases.
type Provisioner interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name string) error
	DropDatabase(ctx context.Context, name string) error
	Open(ctx context.Context, name string) (Target, error)
}

// ConfigWriter persists the application configuration.
type ConfigWriter interface {
	Write(path string, values map[string]any) error
}

// StoreProvisioner adapts store.Provisioner to Provisioner.
type StoreProvisioner struct {
	*store.Provisioner
}

// NewStoreProvisioner returns a provisioner for SQLite databases in dir.
func NewStoreProvisioner(dir string) StoreProvisioner {
	return StoreProvisioner{Provisioner: store.NewProvisioner(dir)}
}

// Open opens an existing database.
func (p StoreProvisioner) Open(ctx context.Context, name string) (Target, error) {
	s, err := p.Provisioner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

var (
	_ Target      = (*store.Store)(nil)
	_ Provisioner = StoreProvisioner{}
)
