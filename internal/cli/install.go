package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/install"
	"github.com/isleshocky77/crmsetup/internal/lock"
)

// InstallOptions holds flags for the install command that are not
// generated from the defaults file.
type InstallOptions struct {
	Force    bool
	LogFile  bool
	Defaults string
}

// NewInstallCommand creates the install command. Its database-* and
// install-* flags are generated from the embedded defaults.
func NewInstallCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InstallOptions{}

	defs, defsErr := config.EmbeddedDefaults()

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the CRM schema and seed data",
		Long: `Install the CRM database schema.

Runs the installation stages in order: configuration, database
provisioning, module tables, relationship tables, default data, module
post-processing and administrator finalisation. A run that fails stops
at the failing stage; nothing is rolled back.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if defsErr != nil {
				return WrapExitError(ExitCommandError, "embedded defaults", defsErr)
			}
			return runInstall(rootOpts, opts, defs, cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Force, "force", "f", false, "install even if the configuration is locked")
	cmd.Flags().BoolVar(&opts.LogFile, "log-file", false, "also write the log to <install-log-dir>/"+InstallLogFile)
	cmd.Flags().StringVar(&opts.Defaults, "defaults", "", "read installer defaults from this file instead of the built-in ones")

	if defs != nil {
		addOptionFlags(cmd.Flags(), defs)
	}

	return cmd
}

// addOptionFlags registers one flag per defaults option. Switches become
// boolean flags.
func addOptionFlags(flags *pflag.FlagSet, defs *config.Defaults) {
	for _, opt := range defs.Options() {
		if opt.IsSwitch() {
			def, _ := strconv.ParseBool(opt.Default)
			flags.BoolP(opt.FlagName(), opt.Shortcut, def, opt.Description)
			continue
		}
		flags.StringP(opt.FlagName(), opt.Shortcut, opt.Default, opt.Description)
	}
}

// changedFlag returns a flag's value only when it was set on the command
// line, so the defaults file decides everything else.
func changedFlag(flags *pflag.FlagSet) func(string) (string, bool) {
	return func(name string) (string, bool) {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}
}

func runInstall(rootOpts *RootOptions, opts *InstallOptions, defs *config.Defaults, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	if opts.Defaults != "" {
		custom, err := config.ReadDefaults(opts.Defaults)
		if err != nil {
			_ = formatter.Error(string(install.KindConfiguration), err.Error(), nil)
			return WrapExitError(ExitCommandError, "installer defaults", err)
		}
		defs = custom
	}

	cfg, err := config.Build(defs.Values(changedFlag(cmd.Flags())), opts.Force)
	if err != nil {
		var cerr *config.Error
		if errors.As(err, &cerr) {
			_ = formatter.Error(string(install.KindConfiguration), "invalid configuration", cerr.Problems)
			if formatter.Format != "json" {
				for _, p := range cerr.Problems {
					fmt.Fprintf(formatter.Writer, "  %s: %s\n", p.Key, p.Message)
				}
			}
		}
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	var logPath string
	if opts.LogFile {
		dir := cfg.Paths.LogDir
		if dir == "" {
			dir = "."
		}
		logPath = filepath.Join(dir, InstallLogFile)
	}
	logger, closeLog, err := newLogger(cmd.ErrOrStderr(), rootOpts.Verbose, logPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "logging", err)
	}
	defer func() {
		if err := closeLog(); err != nil {
			slog.Error("error closing install log", "error", err)
		}
	}()

	held, err := lock.Acquire(cfg.Database.DataDir, 0)
	if err != nil {
		_ = formatter.Error("LOCKED", err.Error(), nil)
		return WrapExitError(ExitCommandError, "data directory busy", err)
	}
	defer func() {
		if err := held.Release(); err != nil {
			slog.Error("error releasing lock", "error", err)
		}
	}()

	seqOpts := append([]install.Option{install.WithLogger(logger)}, rootOpts.InstallOptions...)
	seq := install.New(cfg, rootOpts.registry(),
		install.NewStoreProvisioner(cfg.Database.DataDir), config.FileWriter{}, seqOpts...)

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan) // Prevent signal handler leak

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, aborting installation", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	report, runErr := seq.Run(ctx)
	if err := formatter.Report(report); err != nil {
		return WrapExitError(ExitFailure, "write report", err)
	}
	if runErr != nil {
		code := ExitFailure
		if install.IsKind(runErr, install.KindConfiguration) {
			code = ExitCommandError
		}
		return WrapExitError(code, "installation failed", runErr)
	}
	return nil
}
