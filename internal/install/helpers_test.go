package install

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/meta"
	"github.com/isleshocky77/crmsetup/internal/store"
	"github.com/isleshocky77/crmsetup/internal/testutil"
)

func init() {
	store.HashCost = bcrypt.MinCost
}

// testConfig builds a valid configuration rooted in dir, using the shared
// vardef fixtures and creating the database.
func testConfig(t *testing.T, dir string, overrides map[string]string, force bool) *config.Config {
	t.Helper()
	d, err := config.EmbeddedDefaults()
	require.NoError(t, err)

	values := d.Values(nil)
	values[config.KeyAdminPassword] = "secret"
	values[config.KeyDBName] = "crm"
	values[config.KeyDBDataDir] = filepath.Join(dir, "data")
	values[config.KeyDBCreate] = "true"
	values[config.KeyVardefs] = testutil.VardefRoot(t)
	values[config.KeyConfigFile] = filepath.Join(dir, "config.toml")
	values[config.KeyCacheDir] = filepath.Join(dir, "cache")
	values[config.KeyLogDir] = dir
	values[config.KeySiteGUID] = "test-guid"
	for k, v := range overrides {
		values[k] = v
	}

	cfg, err := config.Build(values, force)
	require.NoError(t, err)
	return cfg
}

func scenarioRegistry() *catalog.Registry {
	return catalog.NewRegistry().MustRegister(
		catalog.Entry{ID: "User", Dir: "Users", Table: "users", DefaultInit: true, Seeds: catalog.SeedUsers},
		catalog.Entry{ID: "Administration", Dir: "Administration", Table: "config", DefaultInit: true, Seeds: catalog.SeedSettings},
		catalog.Entry{ID: "Account", Dir: "Accounts", Table: "accounts", DefaultInit: true},
	)
}

func resolve(t *testing.T, r *catalog.Registry) *catalog.Resolution {
	t.Helper()
	res, err := r.Resolve(testutil.VardefRoot(t))
	require.NoError(t, err)
	return res
}

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// fakeDB records schema calls in order.
type fakeDB struct {
	tables     map[string]bool
	calls      []string
	failCreate string
}

func newFakeDB(existing ...string) *fakeDB {
	db := &fakeDB{tables: make(map[string]bool)}
	for _, t := range existing {
		db.tables[t] = true
	}
	return db
}

func (f *fakeDB) TableExists(_ context.Context, name string) (bool, error) {
	return f.tables[name], nil
}

func (f *fakeDB) CreateTable(_ context.Context, name string, _ []meta.FieldDef, _ []meta.IndexDef) error {
	if name == f.failCreate {
		return fmt.Errorf("create %s: disk full", name)
	}
	f.calls = append(f.calls, "create:"+name)
	f.tables[name] = true
	return nil
}

func (f *fakeDB) DropTable(_ context.Context, name string) error {
	f.calls = append(f.calls, "drop:"+name)
	delete(f.tables, name)
	return nil
}

func (f *fakeDB) RegisterRelationshipMetadata(_ context.Context, owner, _ string, links []meta.RelationshipLink) error {
	f.calls = append(f.calls, fmt.Sprintf("meta:%s:%d", owner, len(links)))
	return nil
}

func (f *fakeDB) creates() []string {
	var out []string
	for _, c := range f.calls {
		if name, ok := strings.CutPrefix(c, "create:"); ok {
			out = append(out, name)
		}
	}
	return out
}

// hookRecorder returns hooks that record every event for the given names.
func hookRecorder(names ...string) (*Hooks, *[]HookEvent) {
	var events []HookEvent
	h := NewHooks()
	for _, name := range names {
		h.On(name, func(_ context.Context, e HookEvent) error {
			events = append(events, e)
			return nil
		})
	}
	return h, &events
}
