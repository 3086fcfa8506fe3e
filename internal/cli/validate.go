package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/isleshocky77/crmsetup/internal/catalog"
	"github.com/isleshocky77/crmsetup/internal/config"
	"github.com/isleshocky77/crmsetup/internal/vardef"
)

// Codes for problems that are not vardef validation errors.
const (
	ErrCodeNotFound      = "E005" // vardef root not found
	ErrCodeCompile       = "E100" // vardef did not compile
	ErrCodeTableMismatch = "E101" // vardef table differs from the catalog
)

// ValidationIssue is one problem found in a vardef.
type ValidationIssue struct {
	Module  string `json:"module"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid         bool              `json:"valid"`
	Modules       int               `json:"modules"`
	Relationships int               `json:"relationships"`
	Errors        []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [vardefs-dir]",
		Short: "Compile and check every vardef without installing",
		Long: `Compile the vardef of every catalog module and the relationship
dictionary, and report validation errors (E2xx codes).

Faster than install for development feedback: no database is touched.
Defaults to the vardef directory of the built-in installer defaults.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			root := defaultVardefs()
			if len(args) == 1 {
				root = args[0]
			}
			return runValidate(rootOpts, root, cmd)
		},
	}

	return cmd
}

// defaultVardefs returns the vardef directory from the embedded defaults.
func defaultVardefs() string {
	defs, err := config.EmbeddedDefaults()
	if err != nil {
		return ""
	}
	return defs.Install["vardefs"].Default
}

func runValidate(opts *RootOptions, root string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	result, err := ValidateVardefs(opts.registry(), root, formatter)
	if err != nil {
		code := ErrCodeCompile
		if errors.Is(err, catalog.ErrRootNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		// Missing inputs are command-level errors (exit code 2)
		return WrapExitError(ExitCommandError, code, err)
	}

	if len(result.Errors) > 0 {
		return outputValidationErrors(formatter, result)
	}
	return outputValidateSuccess(formatter, result)
}

// ValidateVardefs compiles every module of reg found under root and the
// relationship dictionary, collecting all problems. The error is non-nil
// only when root itself cannot be read.
func ValidateVardefs(reg *catalog.Registry, root string, formatter *OutputFormatter) (*ValidationResult, error) {
	res, err := reg.Resolve(root)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{}
	for _, s := range res.Skipped {
		if s.Err == nil {
			formatter.VerboseLog("Skipping %s: %s", s.Module, s.Reason)
			continue
		}
		result.Modules++
		result.Errors = append(result.Errors, issuesFor(s.Module, s.Err)...)
	}
	for _, d := range res.Modules {
		if d.NonStandard {
			continue
		}
		formatter.VerboseLog("Validating module: %s", d.ID)
		result.Modules++
		if _, err := d.Definition(); err != nil {
			result.Errors = append(result.Errors, issuesFor(d.ID, err)...)
		}
	}

	rels, errs := vardef.LoadRelationships(root, vardef.LoadModeCollectAll)
	result.Relationships = len(rels)
	for _, err := range errs {
		result.Errors = append(result.Errors, issuesFor(vardef.MetadataDir, err)...)
	}

	result.Valid = len(result.Errors) == 0
	return result, nil
}

// issuesFor flattens a vardef error into issues.
func issuesFor(module string, err error) []ValidationIssue {
	var mismatch *catalog.TableMismatchError
	if errors.As(err, &mismatch) {
		return []ValidationIssue{{
			Module:  module,
			Field:   "table",
			Message: mismatch.Error(),
			Code:    ErrCodeTableMismatch,
		}}
	}

	var defErr *vardef.DefinitionError
	if !errors.As(err, &defErr) {
		return []ValidationIssue{{Module: module, Message: err.Error(), Code: ErrCodeCompile}}
	}

	issues := make([]ValidationIssue, 0, len(defErr.Errors))
	for _, inner := range defErr.Errors {
		var (
			verr vardef.ValidationError
			cerr *vardef.CompileError
		)
		switch {
		case errors.As(inner, &verr):
			issues = append(issues, ValidationIssue{
				Module:  module,
				Field:   verr.Field,
				Message: verr.Message,
				Code:    verr.Code,
			})
		case errors.As(inner, &cerr):
			issue := ValidationIssue{
				Module:  module,
				Field:   cerr.Field,
				Message: cerr.Message,
				Code:    ErrCodeCompile,
			}
			if cerr.Pos.IsValid() {
				issue.Line = cerr.Pos.Line()
			}
			issues = append(issues, issue)
		default:
			issues = append(issues, ValidationIssue{Module: module, Message: inner.Error(), Code: ErrCodeCompile})
		}
	}
	return issues
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, result *ValidationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s All vardefs valid (%d modules, %d relationships)\n",
		okMark("✓"), result.Modules, result.Relationships)
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, result *ValidationResult) error {
	errs := result.Errors
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", failMark("✗"))

	for _, e := range errs {
		loc := e.Module
		if e.Line > 0 {
			loc = fmt.Sprintf("%s line %d", loc, e.Line)
		}
		fmt.Fprintln(formatter.Writer, loc)
		if e.Field != "" {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s\n\n", e.Code, e.Field, e.Message)
			continue
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
