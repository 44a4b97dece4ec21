package main

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	appconfig "github.com/chat-history-bot/internal/config"
	"github.com/chat-history-bot/internal/export"
	"github.com/chat-history-bot/internal/history"
	"github.com/chat-history-bot/internal/llm"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/chat-history-bot/internal/summary"
	"github.com/spf13/cobra"
)

// imageDownloadTimeout bounds a single remote image download
const imageDownloadTimeout = 30 * time.Second

func newSummarizeCmd() *cobra.Command {
	var (
		file  string
		since string
	)

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Generate an AI summary of an export",
		Long: `Summarize sends the export's recent messages to the configured completion
service (LLM_PROVIDER, OPENAI_BASE_URL, GEMINI_API_KEY, AI_TEXT_MODEL) and
prints the structured summary. Photos stored next to result.json are described
by the vision model.`,
		Example: `  chatstats summarize --file result.json --since "6 hours"
  chatstats summarize --file result.json --since "2 days" --now 2024-03-10T12:00:00Z`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := commandLogger(cmd)

			opts, err := serviceOptions(cmd)
			if err != nil {
				return err
			}

			config, err := appconfig.LoadOffline()
			if err != nil {
				return err
			}

			exp, err := export.Load(file)
			if err != nil {
				return err
			}

			llmClient, err := llm.NewClient(config, nil, logger)
			if err != nil {
				return fmt.Errorf("failed to create LLM client: %w", err)
			}
			defer func() {
				if err := llmClient.Close(); err != nil {
					logger.Error().Err(err).Msg("Failed to close LLM client")
				}
			}()

			images := export.NewImageFetcher(llm.NewHTTPImageFetcher(&http.Client{Timeout: imageDownloadTimeout}))
			generator := summary.NewGenerator(llmClient, images, config, nil, logger)
			service := pipeline.NewService(history.NewFetcher(logger), generator, config, logger, opts...)

			errOut := cmd.ErrOrStderr()
			report, err := service.Summarize(cmd.Context(), export.NewChannel(exp, filepath.Dir(file)), since, func(imageCount int) {
				fmt.Fprintln(errOut, summaryStatusText(imageCount))
			})
			if err != nil {
				return cliError(err)
			}

			renderSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "result.json", "path to the export's result.json")
	cmd.Flags().StringVar(&since, "since", pipeline.DefaultTimeframe, `window to summarize, such as "12 hours" or "3 days"`)

	return cmd
}
