package install

import (
	"context"
	"fmt"
)

// Hook names fired by the sequencer and the stage components.
const (
	HookPreCreateAllModuleTables  = "pre_createAllModuleTables"
	HookPostCreateAllModuleTables = "post_createAllModuleTables"
	HookPreCreateModuleTable      = "pre_createModuleTable"
	HookPostCreateModuleTable     = "post_createModuleTable"
	HookPreCreateDatabase         = "pre_handleDbCreateDatabase"
	HookPostCreateDatabase        = "post_handleDbCreateDatabase"
	HookPreCharsetCollation       = "pre_handleDbCharsetCollation"
	HookPostCharsetCollation      = "post_handleDbCharsetCollation"
	HookPreCreateDefaultSettings  = "pre_createDefaultSettings"
	HookPostCreateDefaultSettings = "post_createDefaultSettings"
	HookPreCreateUsers            = "pre_createUsers"
	HookPostCreateUsers           = "post_createUsers"
	HookPreCreateSchedulers       = "pre_createDefaultSchedulers"
	HookPostCreateSchedulers      = "post_createDefaultSchedulers"
	HookPreSetSystemTabs          = "pre_setSystemTabs"
	HookPostSetSystemTabs         = "post_setSystemTabs"
	HookPostInstallModules        = "post_installModules"
)

// HookNames lists every hook name.
var HookNames = []string{
	HookPreCreateDatabase, HookPostCreateDatabase,
	HookPreCharsetCollation, HookPostCharsetCollation,
	HookPreCreateAllModuleTables, HookPostCreateAllModuleTables,
	HookPreCreateModuleTable, HookPostCreateModuleTable,
	HookPreCreateDefaultSettings, HookPostCreateDefaultSettings,
	HookPreCreateUsers, HookPostCreateUsers,
	HookPreCreateSchedulers, HookPostCreateSchedulers,
	HookPreSetSystemTabs, HookPostSetSystemTabs,
	HookPostInstallModules,
}

// HookEvent is passed to every hook.
type HookEvent struct {
	Name string
	// Subject is the module or table for per-module hooks, empty otherwise.
	Subject string
}

// Hook is an extension point run at a named step. A hook error fails the
// current stage.
type Hook func(ctx context.Context, e HookEvent) error

// Hooks holds registered hooks by name. A nil *Hooks fires nothing.
type Hooks struct {
	byName map[string][]Hook
}

// NewHooks returns an empty hook set.
func NewHooks() *Hooks {
	return &Hooks{byName: make(map[string][]Hook)}
}

// On registers fn for name. Hooks for one name run in registration order.
func (h *Hooks) On(name string, fn Hook) *Hooks {
	h.byName[name] = append(h.byName[name], fn)
	return h
}

// Fire runs the hooks registered for name and stops at the first error.
func (h *Hooks) Fire(ctx context.Context, name, subject string) error {
	if h == nil {
		return nil
	}
	for _, fn := range h.byName[name] {
		if err := fn(ctx, HookEvent{Name: name, Subject: subject}); err != nil {
			return fmt.Errorf("hook %s: %w", name, err)
		}
	}
	return nil
}
