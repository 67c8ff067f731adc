package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/playback/internal/script"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Script string        `json:"script"`
	Name   string        `json:"name,omitempty"`
	Steps  []StepSummary `json:"steps,omitempty"`
	Fields []string      `json:"fields,omitempty"`
}

// StepSummary describes one step of a valid script.
type StepSummary struct {
	Index      int    `json:"index"`
	Kind       string `json:"kind"`
	Field      string `json:"field,omitempty"`
	Confidence *int   `json:"confidence,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <script>",
		Short: "Validate a script",
		Long: `Load and validate a script file (YAML or CUE) or a built-in name.

Checks document syntax, step kinds and their attributes, confidence
ranges and the terminal step. Nothing is run.

Exit codes:
  0 - Script is valid
  1 - Script is invalid
  2 - Command error (file not found, etc.)

Examples:
  playback validate ./scripts/onboarding.yaml
  playback validate builtin:tango --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, ref string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, _, err := LoadScript(ref)
	if err != nil {
		var le *LoadError
		if !errors.As(err, &le) {
			return WrapExitError(ExitCommandError, "validation failed", err)
		}
		var details any
		if le.Line > 0 {
			details = map[string]any{"file": le.File, "line": le.Line, "column": le.Column}
		}
		if f.JSON() {
			_ = f.Error(le.Code, le.Message, details)
		} else {
			fmt.Fprintf(f.Writer, "✗ %s\n  %s\n", ref, le.Error())
		}
		return WrapExitError(le.ExitCode(), "validation failed", le)
	}

	result := summarize(ref, s)
	f.VerboseLog("Validated %d step(s) in %s", len(result.Steps), ref)
	if f.JSON() {
		return f.Success(result)
	}

	fmt.Fprintf(f.Writer, "✓ %s is valid (%d steps)\n", s.Name(), s.Len())
	if len(result.Fields) > 0 {
		fmt.Fprintf(f.Writer, "  fields: %s\n", strings.Join(result.Fields, ", "))
	}
	if opts.Verbose {
		for _, st := range result.Steps {
			line := fmt.Sprintf("  %2d %s", st.Index, st.Kind)
			if st.Field != "" {
				line += " -> " + st.Field
			}
			if st.Confidence != nil {
				line += fmt.Sprintf(" (%d%%)", *st.Confidence)
			}
			fmt.Fprintln(f.Writer, line)
		}
	}
	return nil
}

func summarize(ref string, s *script.Script) ValidationResult {
	result := ValidationResult{Valid: true, Script: ref, Name: s.Name(), Fields: s.Fields()}
	for i, st := range s.Steps() {
		sum := StepSummary{Index: i, Kind: st.Kind().String(), Field: script.TargetField(st)}
		if c := st.Meta().Confidence; c != script.Unchanged {
			sum.Confidence = &c
		}
		result.Steps = append(result.Steps, sum)
	}
	return result
}
