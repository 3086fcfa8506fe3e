package catalog

// Builtin returns the stock CRM module registry.
//
// The list mirrors the application's bean list: plain business modules in
// declaration order, the four dependency roots with explicit priorities,
// the modules whose vardefs are compiled lazily, and the configurator,
// which has no table of its own.
func Builtin() *Registry {
	return NewRegistry().MustRegister(
		Entry{ID: "Account", Dir: "Accounts", Table: "accounts", DefaultInit: true},
		Entry{ID: "Contact", Dir: "Contacts", Table: "contacts", DefaultInit: true},
		Entry{ID: "Lead", Dir: "Leads", Table: "leads", DefaultInit: true},
		Entry{ID: "Opportunity", Dir: "Opportunities", Table: "opportunities", DefaultInit: true},
		Entry{ID: "aCase", Object: "Case", Dir: "Cases", Table: "cases", DefaultInit: true},
		Entry{ID: "Note", Dir: "Notes", Table: "notes", DefaultInit: true},
		Entry{ID: "Task", Dir: "Tasks", Table: "tasks", DefaultInit: true},
		Entry{ID: "Call", Dir: "Calls", Table: "calls", DefaultInit: true},
		Entry{ID: "Meeting", Dir: "Meetings", Table: "meetings", DefaultInit: true},
		Entry{ID: "Document", Dir: "Documents", Table: "documents", DefaultInit: true},
		Entry{ID: "Campaign", Dir: "Campaigns", Table: "campaigns", DefaultInit: true},
		Entry{ID: "Project", Dir: "Project", Table: "project", DefaultInit: true},
		Entry{ID: "ProjectTask", Dir: "ProjectTask", Table: "project_task"},
		Entry{ID: "Administration", Dir: "Administration", Table: "config", DefaultInit: true, Seeds: SeedSettings},
		Entry{ID: "User", Dir: "Users", Table: "users", DefaultInit: true, Seeds: SeedUsers},
		Entry{ID: "UserPreference", Dir: "UserPreferences", Table: "user_preferences", DefaultInit: true, Seeds: SeedUserPreferences},
		Entry{ID: "Currency", Dir: "Currencies", Table: "currencies", DefaultInit: true},
		Entry{ID: "ACLAction", Dir: "ACLActions", Table: "acl_actions", Priority: 1, DefaultInit: true},
		Entry{ID: "ACLRole", Dir: "ACLRoles", Table: "acl_roles", Priority: 2, DefaultInit: true},
		Entry{ID: "Relationship", Dir: "Relationships", Table: "relationships", Priority: 3, DefaultInit: true},
		Entry{ID: "AOW_WorkFlow", Dir: "AOW_WorkFlow", Table: "aow_workflow", Priority: 4, DefaultInit: true},
		Entry{ID: "AOR_Report", Dir: "AOR_Reports", Table: "aor_reports", DefaultInit: true},
		Entry{ID: "Scheduler", Dir: "Schedulers", Table: "schedulers", Seeds: SeedSchedulers},
		Entry{ID: "SchedulersJob", Dir: "SchedulersJobs", Table: "job_queue"},
		Entry{ID: "jjwg_Maps", Dir: "jjwg_Maps", Table: "jjwg_maps"},
		Entry{ID: "jjwg_Markers", Dir: "jjwg_Markers", Table: "jjwg_markers"},
		Entry{ID: "jjwg_Areas", Dir: "jjwg_Areas", Table: "jjwg_areas"},
		Entry{ID: "jjwg_Address_Cache", Dir: "jjwg_Address_Cache", Table: "jjwg_address_cache"},
		Entry{ID: "Configurator", Dir: "Configurator", NonStandard: true},
	)
}
