// Command chatstats runs the bot's counting and summarization pipeline over a
// Telegram Desktop JSON export, without connecting to any chat platform.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chat-history-bot/internal/pipeline"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "chatstats",
		Short: "Offline message statistics and AI summaries for chat exports",
		Long: `chatstats reads a Telegram Desktop JSON export (result.json) and produces
the same leaderboards and AI summaries the Discord bot posts.`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Disable completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("now", "", "evaluate time windows as of this RFC3339 time instead of the current time")

	rootCmd.AddCommand(newLeaderboardCmd())
	rootCmd.AddCommand(newSummarizeCmd())

	return rootCmd
}

// commandLogger writes human readable logs to stderr so stdout stays clean
func commandLogger(cmd *cobra.Command) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = zerolog.DebugLevel
	}

	var out io.Writer = cmd.ErrOrStderr()
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}).Level(level).With().Timestamp().Logger()
}

// serviceOptions pins the pipeline clock when --now is given
func serviceOptions(cmd *cobra.Command) ([]pipeline.Option, error) {
	raw, _ := cmd.Flags().GetString("now")
	if raw == "" {
		return nil, nil
	}

	now, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid --now value %q: %w", raw, err)
	}

	return []pipeline.Option{pipeline.WithClock(func() time.Time { return now })}, nil
}
