package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/playback/internal/tui"
)

// PlayOptions holds flags for the play command.
type PlayOptions struct {
	*RootOptions
	LogFile string
}

// NewPlayCommand creates the play command.
func NewPlayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "play <script>",
		Short: "Play a script interactively in the terminal",
		Long: `Play a script in the terminal on real time.

Pick choices with the arrow keys and enter (or 1-9), type answers to
text checkpoints, restart with ctrl+r and quit with esc. The terminal
is taken over while playing, so logs go to --log-file only.

Examples:
  playback play builtin:tango
  playback play ./demo.cue --log-file play.log -v`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to this file")

	return cmd
}

func runPlay(opts *PlayOptions, ref string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	s, _, err := LoadScript(ref)
	if err != nil {
		return loadFailure(f, err)
	}

	logger := slog.New(slog.DiscardHandler)
	if opts.LogFile != "" {
		file, err := os.OpenFile(opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		defer file.Close()
		level := slog.LevelInfo
		if opts.Verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: level}))
	}

	if err := tui.Play(s, tui.WithTiming(opts.Timing()), tui.WithLogger(logger)); err != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("play %s", s.Name()), err)
	}
	return nil
}
