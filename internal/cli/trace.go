package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/playback/internal/harness"
	"github.com/roach88/playback/internal/script"
	"github.com/roach88/playback/internal/store"
	"github.com/roach88/playback/internal/trace"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Answers  []string
	Database string // optional - record the run
	Realtime bool
}

// TraceResult holds the trace command output.
type TraceResult struct {
	*harness.Transcript
	Ref   string `json:"ref"`
	RunID string `json:"run_id,omitempty"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <script>",
		Short: "Run a script unattended and print its call trace",
		Long: `Run a script on a virtual clock and print every outbound host call.

Each checkpoint is answered from --answer in order. A checkpoint with
no answer left gets its first choice, or "n/a" for text. The output
ends with the trace fingerprint, which ignores sequence numbers and
timestamps. With --db the run is recorded for "playback replay".

With --realtime the script plays on the wall clock using the configured
timing, and text output prints each event as it happens.

Examples:
  playback trace builtin:tango
  playback trace ./demo.yaml --answer App --answer "five people"
  playback trace builtin:enrichment --db ./runs.db --format json
  playback trace builtin:transform --realtime`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(cmd.Context(), opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Answers, "answer", "a", nil, "checkpoint answer (repeatable, in order)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().BoolVar(&opts.Realtime, "realtime", false, "play on the wall clock and stream events")

	return cmd
}

func runTrace(ctx context.Context, opts *TraceOptions, ref string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f := opts.formatter(cmd)

	s, recorded, err := LoadScript(ref)
	if err != nil {
		return loadFailure(f, err)
	}

	tr, err := playTrace(ctx, opts, s, f)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return WrapExitError(ExitFailure, "run interrupted", err)
		}
		_ = f.Error(ErrCodeRun, err.Error(), nil)
		return WrapExitError(ExitFailure, "run failed", err)
	}
	f.VerboseLog("Played %s: %d event(s), %d answer(s), %dms", s.Name(), len(tr.Events), len(tr.Answers), tr.ElapsedMS)

	result := TraceResult{Transcript: tr, Ref: recorded}
	if opts.Database != "" {
		run, err := recordRun(ctx, opts.Database, recorded, tr)
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		result.RunID = run.ID
		f.VerboseLog("Recorded run %s in %s", run.ID, opts.Database)
	}

	if f.JSON() {
		return f.Success(result)
	}

	w := f.Writer
	if !opts.Realtime {
		data, err := trace.MarshalEvents(tr.Events)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to marshal trace", err)
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "fingerprint: %s\n", tr.Fingerprint)
	if result.RunID != "" {
		fmt.Fprintf(w, "run: %s\n", result.RunID)
	}
	return nil
}

// playTrace runs s on a virtual clock, or live when --realtime is set. Live text
// output streams each event as it is recorded.
func playTrace(ctx context.Context, opts *TraceOptions, s *script.Script, f *OutputFormatter) (*harness.Transcript, error) {
	runOpts := []harness.Option{
		harness.WithTiming(opts.Timing()),
		harness.WithLogger(opts.Logger()),
	}
	if !opts.Realtime {
		return harness.Autoplay(s, opts.Answers, runOpts...)
	}
	var observe func(trace.Event)
	if !f.JSON() {
		observe = func(e trace.Event) {
			fmt.Fprintf(f.Writer, "%6dms %s\n", e.AtMS, e)
		}
	}
	return harness.Live(ctx, s, opts.Answers, observe, runOpts...)
}

func recordRun(ctx context.Context, path, ref string, tr *harness.Transcript) (*store.Run, error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	defer st.Close()
	return st.SaveRun(ctx, ref, tr.Answers, tr.Events)
}

// loadFailure reports a script that could not be loaded.
func loadFailure(f *OutputFormatter, err error) error {
	var le *LoadError
	if !errors.As(err, &le) {
		_ = f.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load script", err)
	}
	_ = f.Error(le.Code, le.Error(), nil)
	return WrapExitError(le.ExitCode(), "failed to load script", le)
}
