package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isleshocky77/crmsetup/internal/meta"
)

func TestSettings(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTable(t, s, "config", configFields)

	require.NoError(t, s.InsertSettings(ctx, "config", []Setting{
		{Category: "info", Name: "sugar_version", Value: "7.10.0"},
		{Category: "system", Name: "name", Value: "CRM"},
	}))

	v, ok, err := s.GetSetting(ctx, "config", "info", "sugar_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "7.10.0", v)

	_, ok, err = s.GetSetting(ctx, "config", "info", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// SaveSetting replaces instead of appending
	require.NoError(t, s.SaveSetting(ctx, "config", Setting{Category: "system", Name: "name", Value: "Renamed"}))
	require.NoError(t, s.SaveSetting(ctx, "config", Setting{Category: "system", Name: "adminwizard", Value: "1"}))

	v, _, err = s.GetSetting(ctx, "config", "system", "name")
	require.NoError(t, err)
	assert.Equal(t, "Renamed", v)

	n, err := s.CountRows(ctx, "config")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestAdminAccount(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTable(t, s, "users", userFields)

	require.NoError(t, s.CreateAdmin(ctx, "users", AdminAccount{UserName: "admin", Password: "first", LastName: "Administrator"}, testNow))

	ok, err := s.CheckAdminPassword(ctx, "users", "first")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, s.ResetAdminPassword(ctx, "users", "second", testNow.Add(time.Hour)))

	ok, err = s.CheckAdminPassword(ctx, "users", "first")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = s.CheckAdminPassword(ctx, "users", "second")
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := s.CountRows(ctx, "users")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reset must not add accounts")

	var modified time.Time
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT date_modified FROM users WHERE id = ?", AdminID).Scan(&modified))
	assert.True(t, testNow.Add(time.Hour).Equal(modified), "date_modified = %s", modified)

	require.NoError(t, s.SetAdmin(ctx, "users", testNow))
}

func TestAdminAccount_Missing(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTable(t, s, "users", userFields)

	assert.ErrorIs(t, s.ResetAdminPassword(ctx, "users", "pw", testNow), ErrAdminNotFound)
	assert.ErrorIs(t, s.SetAdmin(ctx, "users", testNow), ErrAdminNotFound)

	_, err := s.CheckAdminPassword(ctx, "users", "pw")
	assert.ErrorIs(t, err, ErrAdminNotFound)
}

func TestCreateAdmin_Twice(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreateTable(ctx, "users", userFields, []meta.IndexDef{
		{Name: "userspk", Type: meta.IndexPrimary, Fields: []string{"id"}},
	}))

	acct := AdminAccount{UserName: "admin", Password: "pw"}
	require.NoError(t, s.CreateAdmin(ctx, "users", acct, testNow))
	assert.Error(t, s.CreateAdmin(ctx, "users", acct, testNow))
}

func TestReplaceSchedulers(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTable(t, s, "schedulers", schedulerFields)

	jobs := []Scheduler{
		{Name: "Prune Database", Job: "function::pruneDatabase", Interval: "0::4::1::*::*", Status: "Inactive"},
		{Name: "Clean Jobs Queue", Job: "function::cleanJobQueue", Interval: "0::5::*::*::*", Status: "Active", CatchUp: true},
	}

	require.NoError(t, s.ReplaceSchedulers(ctx, "schedulers", jobs, testNow))
	require.NoError(t, s.ReplaceSchedulers(ctx, "schedulers", jobs, testNow.Add(time.Minute)))

	n, err := s.CountRows(ctx, "schedulers")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var id string
	var catchUp bool
	require.NoError(t, s.DB().QueryRowContext(ctx,
		"SELECT id, catch_up FROM schedulers WHERE job = ?", "function::cleanJobQueue",
	).Scan(&id, &catchUp))
	assert.Equal(t, meta.SchedulerID("function::cleanJobQueue"), id)
	assert.True(t, catchUp)
}

func TestPreferences(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createTable(t, s, "user_preferences", preferenceFields)

	prefs, err := s.Preferences(ctx, "user_preferences", AdminID, "global")
	require.NoError(t, err)
	assert.Nil(t, prefs)

	require.NoError(t, s.SavePreferences(ctx, "user_preferences", AdminID, "global",
		map[string]any{"datef": "Y-m-d", "reminder_time": 1800}, testNow))
	require.NoError(t, s.SavePreferences(ctx, "user_preferences", AdminID, "global",
		map[string]any{"datef": "d/m/Y", "reminder_time": 1800}, testNow))

	n, err := s.CountRows(ctx, "user_preferences")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	prefs, err = s.Preferences(ctx, "user_preferences", AdminID, "global")
	require.NoError(t, err)
	assert.Equal(t, "d/m/Y", prefs["datef"])
	assert.Equal(t, float64(1800), prefs["reminder_time"])
}
