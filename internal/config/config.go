package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/chat-history-bot/internal/models"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Load loads configuration from environment variables
// It first attempts to load from .env file, then reads environment variables
func Load() (*models.BotConfig, error) {
	// Try to load .env file (optional, ignore error if not found)
	_ = godotenv.Load()

	return FromEnv()
}

// LoadOffline loads configuration for tools that never connect to Discord,
// so DISCORD_TOKEN is not required
func LoadOffline() (*models.BotConfig, error) {
	_ = godotenv.Load()

	return fromEnv(false)
}

// FromEnv builds configuration from the current process environment only
func FromEnv() (*models.BotConfig, error) {
	return fromEnv(true)
}

func fromEnv(requireDiscord bool) (*models.BotConfig, error) {
	config := &models.BotConfig{
		// Discord settings
		DiscordToken:   getEnv("DISCORD_TOKEN", ""),
		DiscordGuildID: getEnv("DISCORD_GUILD_ID", ""),

		// Completion service settings
		LLMProvider:   models.LLMProvider(strings.ToLower(getEnv("LLM_PROVIDER", string(models.ProviderOpenAI)))),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "http://localhost:11434/v1"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", "ollama"),
		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		TextModel:     getEnv("AI_TEXT_MODEL", ""),
		VisionModel:   getEnv("AI_VISION_MODEL", ""),
		LLMTimeout:    getEnvInt("LLM_TIMEOUT", 0),

		// Pipeline limits
		MaxMessagesForAI: getEnvInt("MAX_MESSAGES_FOR_AI", 200),
		MaxDaysLookback:  getEnvInt("MAX_DAYS_LOOKBACK", 7),
		MaxHoursLookback: getEnvInt("MAX_HOURS_LOOKBACK", 168),
		MaxImagesForAI:   getEnvInt("MAX_IMAGES_FOR_AI", 5),

		// App settings
		Timezone:    getEnv("TIMEZONE", "UTC"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "production"),

		// Daily report
		DailyReportSchedule:   getEnv("DAILY_REPORT_SCHEDULE", "55 23 * * *"),
		DailyReportChannelIDs: getEnvList("DAILY_REPORT_CHANNEL_IDS"),

		// Metrics
		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	applyModelDefaults(config)

	// Validate configuration
	if err := validate(config, requireDiscord); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyModelDefaults picks provider-specific model names when none are configured
func applyModelDefaults(cfg *models.BotConfig) {
	switch cfg.LLMProvider {
	case models.ProviderGemini:
		if cfg.TextModel == "" {
			cfg.TextModel = "gemini-2.0-flash"
		}
		if cfg.VisionModel == "" {
			cfg.VisionModel = "gemini-2.0-flash"
		}
	default:
		if cfg.TextModel == "" {
			cfg.TextModel = "gpt-oss:20b-cloud"
		}
		if cfg.VisionModel == "" {
			cfg.VisionModel = "llava"
		}
	}
}

// validate checks if all required configuration values are set
func validate(cfg *models.BotConfig, requireDiscord bool) error {
	if requireDiscord && cfg.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}

	switch cfg.LLMProvider {
	case models.ProviderOpenAI:
		if cfg.OpenAIBaseURL == "" {
			return fmt.Errorf("OPENAI_BASE_URL is required for provider %s", cfg.LLMProvider)
		}
	case models.ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required for provider %s", cfg.LLMProvider)
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be one of: openai, gemini; got %s", cfg.LLMProvider)
	}

	// Validate positive values
	if cfg.MaxMessagesForAI <= 0 {
		return fmt.Errorf("MAX_MESSAGES_FOR_AI must be positive, got %d", cfg.MaxMessagesForAI)
	}
	if cfg.MaxDaysLookback <= 0 {
		return fmt.Errorf("MAX_DAYS_LOOKBACK must be positive, got %d", cfg.MaxDaysLookback)
	}
	if cfg.MaxHoursLookback <= 0 {
		return fmt.Errorf("MAX_HOURS_LOOKBACK must be positive, got %d", cfg.MaxHoursLookback)
	}
	if cfg.MaxImagesForAI < 0 {
		return fmt.Errorf("MAX_IMAGES_FOR_AI must not be negative, got %d", cfg.MaxImagesForAI)
	}
	if cfg.LLMTimeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative, got %d", cfg.LLMTimeout)
	}

	if cfg.DailyReportEnabled() {
		if _, err := cron.ParseStandard(cfg.DailyReportSchedule); err != nil {
			return fmt.Errorf("DAILY_REPORT_SCHEDULE is not a valid cron expression: %w", err)
		}
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[cfg.LogLevel] {
		return fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %s", cfg.LogLevel)
	}

	return nil
}

// getEnv retrieves environment variable or returns default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves environment variable as integer or returns default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

// getEnvList retrieves a comma-separated environment variable as a list, skipping blanks
func getEnvList(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}

	var values []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
