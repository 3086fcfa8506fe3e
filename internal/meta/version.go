package meta

// Version constants for the installer and the schema it lays down.
const (
	// SchemaVersion is recorded as info/sugar_version in the settings table.
	SchemaVersion = "7.10.0"

	// AppVersion is the application release written to the persisted config.
	AppVersion = "7.10.0"

	// InstallerVersion is the crmsetup release.
	InstallerVersion = "0.3.0"
)
