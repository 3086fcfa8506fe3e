package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/install"
	"github.com/isleshocky77/crmsetup/internal/vardef"
)

// PlannedModule is one module in installation order.
type PlannedModule struct {
	ID          string `json:"id"`
	Table       string `json:"table,omitempty"`
	Priority    int    `json:"priority,omitempty"`
	Lazy        bool   `json:"lazy,omitempty"`
	NonStandard bool   `json:"non_standard,omitempty"`
}

// PlannedRelationship is one relationship table in installation order.
type PlannedRelationship struct {
	Name  string `json:"name"`
	Table string `json:"table"`
	Links int    `json:"links"`
}

// PlanSkip is a module or definition left out of the plan.
type PlanSkip struct {
	Module string `json:"module"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// PlanResult is the dry-run view of an installation.
type PlanResult struct {
	Vardefs       string                `json:"vardefs"`
	Modules       []PlannedModule       `json:"modules"`
	Relationships []PlannedRelationship `json:"relationships"`
	Skipped       []PlanSkip            `json:"skipped,omitempty"`
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	var vardefs string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what install would do without touching the database",
		Long: `Resolve the module catalog against a vardef tree and print the
installation order, the modules that would be skipped and the
relationship tables in the order they would be created.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(rootOpts, vardefs, cmd)
		},
	}

	cmd.Flags().StringVar(&vardefs, "vardefs", defaultVardefs(), "vardef root directory")

	return cmd
}

func runPlan(opts *RootOptions, root string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	plan, err := buildPlan(opts.registry(), root)
	if err != nil {
		code := ExitFailure
		if errors.Is(err, catalog.ErrRootNotFound) {
			code = ExitCommandError
		}
		_ = formatter.Error(string(install.KindConfiguration), err.Error(), nil)
		return WrapExitError(code, "plan", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(plan)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Modules (%d):\n", len(plan.Modules))
	for i, m := range plan.Modules {
		line := fmt.Sprintf("  %2d. %s", i+1, m.ID)
		switch {
		case m.NonStandard:
			line += " (no table)"
		case m.Table != "":
			line += " (" + m.Table + ")"
		}
		if m.Priority > 0 {
			line += fmt.Sprintf(" priority %d", m.Priority)
		}
		if m.Lazy {
			line += " lazy"
		}
		fmt.Fprintln(w, line)
	}

	fmt.Fprintf(w, "Relationships (%d):\n", len(plan.Relationships))
	for _, r := range plan.Relationships {
		fmt.Fprintf(w, "  %s (%s)\n", r.Name, r.Table)
	}

	for _, s := range plan.Skipped {
		if s.Error != "" && formatter.Verbose {
			formatter.Warn("skipped %s: %s: %s", s.Module, s.Reason, s.Error)
			continue
		}
		formatter.Warn("skipped %s: %s", s.Module, s.Reason)
	}
	return nil
}

func buildPlan(reg *catalog.Registry, root string) (*PlanResult, error) {
	res, err := reg.Resolve(root)
	if err != nil {
		return nil, err
	}

	plan := &PlanResult{
		Vardefs:       root,
		Modules:       make([]PlannedModule, 0, len(res.Modules)),
		Relationships: []PlannedRelationship{},
	}
	for _, d := range res.Modules {
		plan.Modules = append(plan.Modules, PlannedModule{
			ID:          d.ID,
			Table:       d.TableName(),
			Priority:    d.Priority,
			Lazy:        !d.NonStandard && !d.Loaded(),
			NonStandard: d.NonStandard,
		})
	}
	for _, s := range res.Skipped {
		plan.Skipped = append(plan.Skipped, planSkip(s.Module, s.Reason, s.Err))
	}

	rels, errs := vardef.LoadRelationships(root, vardef.LoadModeCollectAll)
	for _, err := range errs {
		plan.Skipped = append(plan.Skipped, planSkip(vardef.MetadataDir, catalog.SkipDefinition, err))
	}
	for _, r := range rels {
		plan.Relationships = append(plan.Relationships, PlannedRelationship{
			Name:  r.Name,
			Table: r.Table,
			Links: len(r.Links),
		})
	}
	return plan, nil
}

func planSkip(module, reason string, err error) PlanSkip {
	s := PlanSkip{Module: module, Reason: reason}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}
