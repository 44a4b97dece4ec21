package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chat-history-bot/internal/bot"
	"github.com/chat-history-bot/internal/config"
	"github.com/chat-history-bot/internal/history"
	"github.com/chat-history-bot/internal/llm"
	"github.com/chat-history-bot/internal/metrics"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/chat-history-bot/internal/scheduler"
	"github.com/chat-history-bot/internal/summary"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// imageDownloadTimeout bounds a single attachment download
const imageDownloadTimeout = 30 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel, cfg.Environment)
	logger.Info().
		Str("environment", cfg.Environment).
		Str("provider", string(cfg.LLMProvider)).
		Str("text_model", cfg.TextModel).
		Str("vision_model", cfg.VisionModel).
		Int("max_messages_for_ai", cfg.MaxMessagesForAI).
		Bool("daily_report_enabled", cfg.DailyReportEnabled()).
		Msg("Starting chat history bot")

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	if cfg.MetricsAddr != "" {
		go func() {
			if err := m.Serve(ctx, cfg.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("Metrics server stopped with error")
			}
		}()
	}

	// Initialize LLM client
	logger.Info().Msg("Initializing LLM client...")
	llmClient, err := llm.NewClient(cfg, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create LLM client")
	}
	defer func() {
		if err := llmClient.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close LLM client")
		}
	}()

	images := llm.NewHTTPImageFetcher(&http.Client{Timeout: imageDownloadTimeout})
	generator := summary.NewGenerator(llmClient, images, cfg, m, logger)
	service := pipeline.NewService(history.NewFetcher(logger), generator, cfg, logger)

	// Initialize bot
	logger.Info().Msg("Initializing Discord bot...")
	discordBot, err := bot.New(cfg, service, m, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Initialize scheduler for daily reports
	sched, err := scheduler.NewScheduler(cfg, discordBot.PostDailyReport, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create scheduler")
	}

	schedDone := make(chan struct{})
	go func() {
		defer close(schedDone)
		if err := sched.Start(ctx); err != nil {
			logger.Error().Err(err).Msg("Scheduler stopped with error")
		}
	}()

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start bot in a goroutine
	botErrChan := make(chan error, 1)
	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		if err := discordBot.Start(ctx); err != nil {
			botErrChan <- err
		}
	}()

	logger.Info().Msg("Bot is running. Press Ctrl+C to stop.")

	// Wait for termination signal or bot error
	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("Received termination signal")
	case err := <-botErrChan:
		logger.Error().Err(err).Msg("Bot stopped with error")
	}

	// Graceful shutdown
	logger.Info().Msg("Initiating graceful shutdown...")
	cancel()

	// Give the bot some time to finish processing
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Wait for shutdown or timeout
	select {
	case <-shutdownCtx.Done():
		logger.Warn().Msg("Shutdown timeout exceeded, some requests may be lost")
	case <-waitAll(botDone, schedDone):
		logger.Info().Msg("Graceful shutdown completed")
	}

	logger.Info().Msg("Bot stopped")
}

// waitAll closes the returned channel once every input channel is closed
func waitAll(chans ...<-chan struct{}) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		for _, ch := range chans {
			<-ch
		}
		close(done)
	}()
	return done
}

// setupLogger configures and returns a zerolog logger
func setupLogger(level, environment string) zerolog.Logger {
	// Parse log level
	logLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	// Configure output format
	var logger zerolog.Logger
	if environment == "development" {
		// Pretty console output for development
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Caller().Logger()
	} else {
		// JSON output for production
		logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return logger
}
