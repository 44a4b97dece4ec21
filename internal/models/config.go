package models

// LLMProvider selects the completion backend
type LLMProvider string

const (
	// ProviderOpenAI talks to any OpenAI-compatible endpoint (Ollama by default)
	ProviderOpenAI LLMProvider = "openai"

	// ProviderGemini talks to Google Gemini
	ProviderGemini LLMProvider = "gemini"
)

// BotConfig represents bot configuration.
// It is built once at startup and must not be modified afterwards.
type BotConfig struct {
	// Discord settings
	DiscordToken   string
	DiscordGuildID string // Optional: register commands on one guild for instant availability

	// Completion service settings
	LLMProvider   LLMProvider
	OpenAIBaseURL string
	OpenAIAPIKey  string
	GeminiAPIKey  string
	TextModel     string
	VisionModel   string
	LLMTimeout    int // Seconds, 0 disables the client-side timeout

	// Pipeline limits
	MaxMessagesForAI int
	MaxDaysLookback  int
	MaxHoursLookback int
	MaxImagesForAI   int

	// App settings
	Timezone    string
	LogLevel    string
	Environment string

	// Daily report
	DailyReportSchedule   string
	DailyReportChannelIDs []string

	// Metrics
	MetricsAddr string
}

// DailyReportEnabled reports whether the scheduled daily report has any target channel
func (c *BotConfig) DailyReportEnabled() bool {
	return len(c.DailyReportChannelIDs) > 0
}
