package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/chat-history-bot/internal/metrics"
	"github.com/chat-history-bot/internal/models"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/rs/zerolog"
)

// Bot represents the Discord bot
type Bot struct {
	session *discordgo.Session
	config  *models.BotConfig
	service *pipeline.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
	wg      sync.WaitGroup // Tracks active handlers for graceful shutdown

	mu       sync.Mutex
	draining bool // Set once shutdown starts; new interactions are dropped
}

// New creates a new bot instance
func New(
	config *models.BotConfig,
	service *pipeline.Service,
	m *metrics.Metrics,
	logger zerolog.Logger,
) (*Bot, error) {
	session, err := discordgo.New("Bot " + config.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentGuilds |
		discordgo.IntentGuildMessages |
		discordgo.IntentMessageContent

	// Set debug mode based on log level
	if config.LogLevel == "debug" {
		session.LogLevel = discordgo.LogDebug
	}

	return &Bot{
		session: session,
		config:  config,
		service: service,
		metrics: m,
		logger:  logger.With().Str("component", "bot").Logger(),
	}, nil
}

// Start connects to the gateway and serves interactions until ctx is cancelled
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info().Msg("Starting bot...")

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.onReady(s, r)
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		// Track this handler in WaitGroup
		if !b.beginHandler() {
			b.logger.Debug().Str("interaction_id", i.ID).Msg("Shutting down, dropping interaction")
			return
		}
		defer b.wg.Done()

		b.handleInteraction(ctx, s, i)
	})

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}

	if err := b.registerCommands(); err != nil {
		_ = b.session.Close()
		return err
	}

	b.logger.Info().Msg("Bot started, waiting for interactions...")

	<-ctx.Done()
	b.logger.Info().Msg("Shutting down bot...")

	// Wait for all active handlers to complete
	b.logger.Info().Msg("Waiting for active handlers to complete...")
	b.drain()
	b.logger.Info().Msg("All handlers completed")

	return b.Stop()
}

// beginHandler registers an interaction handler unless shutdown has started
func (b *Bot) beginHandler() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.draining {
		return false
	}
	b.wg.Add(1)
	return true
}

// drain stops accepting interactions and waits for the running ones
func (b *Bot) drain() {
	b.mu.Lock()
	b.draining = true
	b.mu.Unlock()

	b.wg.Wait()
}

// Stop closes the gateway connection
func (b *Bot) Stop() error {
	b.logger.Info().Msg("Stopping bot...")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info().
		Str("username", r.User.Username).
		Str("id", r.User.ID).
		Int("guilds", len(r.Guilds)).
		Msg("Discord bot authorized")

	if len(r.Guilds) == 0 {
		b.logger.Warn().Msg("Bot is not in any guilds!")
	}
}

// registerCommands syncs slash commands globally, or to DISCORD_GUILD_ID for
// instant availability during development
func (b *Bot) registerCommands() error {
	appID := b.session.State.User.ID

	synced, err := b.session.ApplicationCommandBulkOverwrite(appID, b.config.DiscordGuildID, commands)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	scope := "global"
	if b.config.DiscordGuildID != "" {
		scope = b.config.DiscordGuildID
	}

	b.logger.Info().
		Int("count", len(synced)).
		Str("scope", scope).
		Msg("Synced slash commands")

	return nil
}

// PostDailyReport posts today's leaderboard for channelID into that channel,
// with the day starting at midnight in loc. A channel without messages today
// is skipped.
func (b *Bot) PostDailyReport(ctx context.Context, channelID string, loc *time.Location) error {
	channel, err := b.lookupChannel(channelID)
	if err != nil {
		return err
	}

	source := newChannelSource(b.session, channel.GuildID, channel.ID, channel.Name, b.botUserID())

	report, err := b.service.DailyCountIn(ctx, source, loc)
	if err != nil {
		if pErr, ok := asPipelineError(err); ok && pErr.Kind == pipeline.KindEmpty {
			b.logger.Info().
				Str("channel", channel.Name).
				Msg("No messages today, skipping daily report")
			return nil
		}
		return fmt.Errorf("failed to build daily report for #%s: %w", channel.Name, err)
	}

	if _, err := b.session.ChannelMessageSendEmbed(channelID, dailyLeaderboardEmbed(report), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send daily report to #%s: %w", channel.Name, err)
	}

	return nil
}

func (b *Bot) lookupChannel(channelID string) (*discordgo.Channel, error) {
	if channel, err := b.session.State.Channel(channelID); err == nil {
		return channel, nil
	}

	channel, err := b.session.Channel(channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to get channel %s: %w", channelID, err)
	}
	return channel, nil
}

func (b *Bot) lookupGuild(guildID string) (*discordgo.Guild, error) {
	if guild, err := b.session.State.Guild(guildID); err == nil {
		return guild, nil
	}

	guild, err := b.session.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to get guild %s: %w", guildID, err)
	}
	return guild, nil
}

func (b *Bot) botUserID() string {
	if b.session.State == nil || b.session.State.User == nil {
		return ""
	}
	return b.session.State.User.ID
}
