package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/playback/internal/demo"
	"github.com/roach88/playback/internal/harness"
	"github.com/roach88/playback/internal/store"
	"github.com/roach88/playback/internal/trace"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	RunID    string // optional - specific run only
}

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Script        string `json:"script"`
	Answers       int    `json:"answers"`
	Events        int    `json:"events"`
	Recorded      string `json:"recorded_fingerprint"`
	Replayed      string `json:"replayed_fingerprint,omitempty"`
	Deterministic bool   `json:"deterministic"`
	// Divergence is the index of the first differing event, or -1.
	Divergence int    `json:"divergence"`
	Error      string `json:"error,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded runs and verify determinism",
		Long: `Re-execute runs recorded by "playback trace --db" and verify determinism.

Each run is played again from its script with the recorded answers.
The replayed trace fingerprint must equal the recorded one, and the
stored events must still hash to the recorded fingerprint.

Exit codes:
  0 - All runs are deterministic
  1 - Determinism verification failed (differences detected)
  2 - Command error (database not found, unknown run, etc.)

Examples:
  playback replay --db ./runs.db
  playback replay --db ./runs.db --run 0192f6d2-...
  playback replay --db ./runs.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "replay specific run only")

	return cmd
}

func runReplay(ctx context.Context, opts *ReplayOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = f.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []*store.Run
	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			_ = f.Error(ErrCodeNotFound, fmt.Sprintf("run %s not found", opts.RunID), nil)
			return WrapExitError(ExitCommandError, "run not found", err)
		}
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load run", err)
		}
		runs = []*store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx)
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runs)),
		TotalRuns:        len(runs),
		AllDeterministic: true,
	}
	for _, run := range runs {
		rr, err := replayRun(ctx, st, run, opts)
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay run %s", run.ID), err)
		}
		result.Runs = append(result.Runs, rr)
		if !rr.Deterministic {
			result.AllDeterministic = false
		}
	}

	if f.JSON() {
		return outputReplayJSON(f, result)
	}
	return outputReplayText(f, result)
}

// replayRun plays run again and compares. Store failures are returned;
// script and playback failures mark the run non-deterministic.
func replayRun(ctx context.Context, st *store.Store, run *store.Run, opts *ReplayOptions) (ReplayRunResult, error) {
	rr := ReplayRunResult{
		RunID:      run.ID,
		Script:     run.Script,
		Answers:    len(run.Answers),
		Events:     run.Events,
		Recorded:   run.Fingerprint,
		Divergence: -1,
	}

	recorded, err := st.RunEvents(ctx, run.ID)
	if err != nil {
		return rr, err
	}
	if fp, err := trace.Fingerprint(recorded); err != nil || fp != run.Fingerprint {
		rr.Error = "stored events do not match the recorded fingerprint"
		return rr, nil
	}

	s, err := demo.Resolve(run.Script, "")
	if err != nil {
		rr.Error = fmt.Sprintf("load script: %v", err)
		return rr, nil
	}
	tr, err := harness.Autoplay(s, run.Answers,
		harness.WithTiming(opts.Timing()),
		harness.WithLogger(opts.Logger()),
	)
	if err != nil {
		rr.Error = fmt.Sprintf("replay: %v", err)
		return rr, nil
	}

	rr.Replayed = tr.Fingerprint
	rr.Deterministic = tr.Fingerprint == run.Fingerprint
	if !rr.Deterministic {
		rr.Divergence = firstDivergence(recorded, tr.Events)
	}
	return rr, nil
}

// firstDivergence returns the index of the first event whose call or
// arguments differ, ignoring sequence numbers and timestamps.
func firstDivergence(a, b []trace.Event) int {
	for i := range min(len(a), len(b)) {
		if a[i].Call != b[i].Call {
			return i
		}
		ja, errA := trace.MarshalCanonical(a[i].Args)
		jb, errB := trace.MarshalCanonical(b[i].Args)
		if errA != nil || errB != nil || !bytes.Equal(ja, jb) {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(f *OutputFormatter, result ReplayResult) error {
	var failure *CLIError
	if !result.AllDeterministic {
		failure = &CLIError{
			Code:    ErrCodeDeterminism,
			Message: "determinism verification failed",
		}
	}
	if err := f.Report(result, failure); err != nil {
		return err
	}
	if failure != nil {
		return NewExitError(ExitFailure, failure.Message)
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(f *OutputFormatter, result ReplayResult) error {
	w := f.Writer

	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No runs found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d run(s)\n", result.TotalRuns)
	fmt.Fprintln(w)

	for _, run := range result.Runs {
		status := "✓"
		if !run.Deterministic {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Run: %s (%s)\n", status, run.RunID, run.Script)

		if f.Verbose {
			fmt.Fprintf(w, "  Answers: %d\n", run.Answers)
			fmt.Fprintf(w, "  Events: %d\n", run.Events)
			fmt.Fprintf(w, "  Recorded: %s\n", run.Recorded)
			fmt.Fprintf(w, "  Replayed: %s\n", run.Replayed)
		} else {
			fmt.Fprintf(w, "  Events: %d, answers: %d\n", run.Events, run.Answers)
		}

		if run.Error != "" {
			fmt.Fprintf(w, "  Error: %s\n", run.Error)
		} else if !run.Deterministic {
			fmt.Fprintf(w, "  Warning: non-deterministic replay, first divergence at event %d\n", run.Divergence)
		}
		fmt.Fprintln(w)
	}

	if result.AllDeterministic {
		fmt.Fprintln(w, "✓ All runs verified deterministic")
		return nil
	}

	fmt.Fprintln(w, "✗ Determinism verification failed")
	return NewExitError(ExitFailure, "determinism verification failed")
}
