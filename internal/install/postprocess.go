package install

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/store"
)

// DefaultTabs are the modules shown as tabs on a new installation.
var DefaultTabs = []string{
	"Home", "Accounts", "Contacts", "Opportunities", "Leads", "AOS_Quotes",
	"Calendar", "Documents", "Emails", "Campaigns", "Calls", "Meetings",
	"Tasks", "Notes", "AOS_Invoices", "AOS_Contracts", "Cases", "Prospects",
	"ProspectLists", "Project", "AM_ProjectTemplates", "AM_TaskTemplates",
	"FP_events", "FP_Event_Locations", "AOS_Products", "AOS_Product_Categories",
	"AOS_PDF_Templates", "jjwg_Maps", "jjwg_Markers", "jjwg_Areas",
	"jjwg_Address_Cache", "AOR_Reports", "AOW_WorkFlow", "AOK_KnowledgeBase",
	"AOK_Knowledge_Base_Categories",
}

// PostProcessor writes the settings that depend on the installed modules.
type PostProcessor struct {
	Store  SeedStore
	Config *config.Config
	Hooks  *Hooks
	Logger *slog.Logger
}

// Run saves the system tabs, update checks, system name, feed and admin
// wizard settings into table, then fires post_installModules. Without a
// settings table only the hook runs.
func (p *PostProcessor) Run(ctx context.Context, table string) error {
	if table == "" {
		loggerOrDefault(p.Logger).Warn("no settings table, skipping module post-processing")
		return p.Hooks.Fire(ctx, HookPostInstallModules, "")
	}

	if err := p.Hooks.Fire(ctx, HookPreSetSystemTabs, ""); err != nil {
		return err
	}
	tabs, err := json.Marshal(DefaultTabs)
	if err != nil {
		return newError(KindSeedData, table, fmt.Errorf("encode tabs: %w", err))
	}
	if err := p.save(ctx, table, "MySettings", "tab", string(tabs)); err != nil {
		return err
	}
	if err := p.Hooks.Fire(ctx, HookPostSetSystemTabs, ""); err != nil {
		return err
	}

	checks := "manual"
	if p.Config.Site.AutomaticChecks {
		checks = "automatic"
	}
	settings := []store.Setting{
		{Category: "Update", Name: "CheckUpdates", Value: checks},
		{Category: "system", Name: "name", Value: p.Config.Site.SystemName},
		{Category: "sugarfeed", Name: "enabled", Value: "1"},
		{Category: "system", Name: "adminwizard", Value: "1"},
	}
	for _, st := range settings {
		if err := p.save(ctx, table, st.Category, st.Name, st.Value); err != nil {
			return err
		}
	}

	return p.Hooks.Fire(ctx, HookPostInstallModules, "")
}

func (p *PostProcessor) save(ctx context.Context, table, category, name, value string) error {
	st := store.Setting{Category: category, Name: name, Value: value}
	if err := p.Store.SaveSetting(ctx, table, st); err != nil {
		return newError(KindSeedData, table, err)
	}
	return nil
}
