package config

import (
	"testing"

	"github.com/chat-history-bot/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DISCORD_TOKEN", "DISCORD_GUILD_ID", "LLM_PROVIDER", "OPENAI_BASE_URL", "OPENAI_API_KEY",
		"GEMINI_API_KEY", "AI_TEXT_MODEL", "AI_VISION_MODEL", "LLM_TIMEOUT", "MAX_MESSAGES_FOR_AI",
		"MAX_DAYS_LOOKBACK", "MAX_HOURS_LOOKBACK", "MAX_IMAGES_FOR_AI", "TIMEZONE", "LOG_LEVEL",
		"ENVIRONMENT", "DAILY_REPORT_SCHEDULE", "DAILY_REPORT_CHANNEL_IDS", "METRICS_ADDR",
	} {
		t.Setenv(key, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, models.ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "http://localhost:11434/v1", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-oss:20b-cloud", cfg.TextModel)
	assert.Equal(t, "llava", cfg.VisionModel)
	assert.Equal(t, 200, cfg.MaxMessagesForAI)
	assert.Equal(t, 7, cfg.MaxDaysLookback)
	assert.Equal(t, 168, cfg.MaxHoursLookback)
	assert.Equal(t, 5, cfg.MaxImagesForAI)
	assert.Equal(t, 0, cfg.LLMTimeout)
	assert.False(t, cfg.DailyReportEnabled())
}

func TestFromEnvRequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
}

func TestFromEnvGemini(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LLM_PROVIDER", "Gemini")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	t.Setenv("GEMINI_API_KEY", "key")
	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, models.ProviderGemini, cfg.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.TextModel)
}

func TestFromEnvRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LLM_PROVIDER", "claude")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_PROVIDER")
}

func TestFromEnvDailyReport(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("DAILY_REPORT_CHANNEL_IDS", " 123, ,456 ")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"123", "456"}, cfg.DailyReportChannelIDs)
	assert.True(t, cfg.DailyReportEnabled())

	t.Setenv("DAILY_REPORT_SCHEDULE", "not a cron")
	_, err = FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAILY_REPORT_SCHEDULE")
}

func TestFromEnvInvalidNumbersFallBackToDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("MAX_DAYS_LOOKBACK", "seven")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.MaxDaysLookback)

	t.Setenv("MAX_DAYS_LOOKBACK", "0")
	_, err = FromEnv()
	require.Error(t, err)
}

func TestFromEnvRejectsBadLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("LOG_LEVEL", "trace")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}

func TestFromEnvOfflineSkipsToken(t *testing.T) {
	clearEnv(t)

	cfg, err := fromEnv(false)
	require.NoError(t, err)
	assert.Empty(t, cfg.DiscordToken)
	assert.Equal(t, "gpt-oss:20b-cloud", cfg.TextModel)
}
