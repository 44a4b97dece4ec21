package main

import (
	"errors"
	"path/filepath"

	appconfig "github.com/chat-history-bot/internal/config"
	"github.com/chat-history-bot/internal/export"
	"github.com/chat-history-bot/internal/history"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/spf13/cobra"
)

func newLeaderboardCmd() *cobra.Command {
	var (
		file  string
		top   int
		since string
	)

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Rank chat members by message count",
		Example: `  chatstats leaderboard --file ./ChatExport/result.json
  chatstats leaderboard --file result.json --since "2 days" --top 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)

			opts, err := serviceOptions(cmd)
			if err != nil {
				return err
			}

			exp, err := export.Load(file)
			if err != nil {
				return err
			}

			config, err := appconfig.LoadOffline()
			if err != nil {
				return err
			}

			opts = append(opts, pipeline.WithLeaderboardSize(top))
			service := pipeline.NewService(history.NewFetcher(logger), nil, config, logger, opts...)
			report, err := service.CountWindow(cmd.Context(), export.NewChannel(exp, filepath.Dir(file)), since)
			if err != nil {
				return cliError(err)
			}

			renderLeaderboard(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "result.json", "path to the export's result.json")
	cmd.Flags().IntVarP(&top, "top", "n", 10, "number of users to show (0 shows everyone)")
	cmd.Flags().StringVar(&since, "since", "", `only count messages from a window such as "12 hours" or "3 days"`)

	return cmd
}

// cliError turns a pipeline failure into the same sentence the bot would send
func cliError(err error) error {
	var pErr *pipeline.Error
	if errors.As(err, &pErr) {
		return errors.New(pErr.Message)
	}
	return err
}
