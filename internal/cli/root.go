package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/install"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Registry is the module catalog. Nil means catalog.Builtin().
	Registry *catalog.Registry

	// InstallOptions are appended to the sequencer options of every
	// install run.
	InstallOptions []install.Option
}

func (o *RootOptions) registry() *catalog.Registry {
	if o.Registry != nil {
		return o.Registry
	}
	return catalog.Builtin()
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the crmsetup CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crmsetup",
		Short: "crmsetup - CRM schema installer",
		Long: `Install the CRM database schema from module vardefs.

Creates every module table in dependency order, the relationship join
tables and metadata, seeds default settings, the administrator account
and scheduler jobs, and writes the application configuration.
Re-running against an installed database is safe.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewInstallCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}
