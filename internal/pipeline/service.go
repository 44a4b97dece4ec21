// Package pipeline runs the bot's commands end to end: resolve the time window,
// fetch and normalize history, then aggregate or summarize. Every failure is
// returned as *Error so the presentation layer only has to render it.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chat-history-bot/internal/analytics"
	"github.com/chat-history-bot/internal/history"
	"github.com/chat-history-bot/internal/models"
	"github.com/chat-history-bot/internal/summary"
	"github.com/chat-history-bot/internal/timewindow"
	"github.com/rs/zerolog"
)

// DefaultTimeframe is used by Summarize when no timeframe is given
const DefaultTimeframe = "1 day"

// Summarizer produces AI summaries
type Summarizer interface {
	Generate(ctx context.Context, records []models.NormalizedMessage, timeDesc string) (*models.SummaryOutcome, error)
	TextModel() string
}

// UserReport is one user's share of a channel's messages
type UserReport struct {
	AuthorID   int64
	Count      int
	Percentage float64
}

// CountReport is the result of a counting command
type CountReport struct {
	Scope       string
	Period      string
	Leaderboard []models.LeaderboardEntry
	Stats       analytics.MessageStats
	User        *UserReport
	GeneratedAt time.Time
}

// SummaryReport is the result of a summarize command
type SummaryReport struct {
	ChannelName string
	Window      models.TimeWindow
	Outcome     *models.SummaryOutcome
	GeneratedAt time.Time
}

// FirstMessageReport is the result of the first message command
type FirstMessageReport struct {
	ChannelName   string
	Message       history.RawMessage
	TotalMessages int
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLeaderboardSize keeps only the top n leaderboard entries. Zero or less
// keeps everyone.
func WithLeaderboardSize(n int) Option {
	return func(s *Service) {
		s.maxEntries = n
	}
}

// Service executes commands against platform channels
type Service struct {
	fetcher    *history.Fetcher
	summarizer Summarizer
	limits     timewindow.Limits
	maxEntries int
	now        func() time.Time
	logger     zerolog.Logger
}

// NewService creates a new command service
func NewService(
	fetcher *history.Fetcher,
	summarizer Summarizer,
	config *models.BotConfig,
	logger zerolog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		fetcher:    fetcher,
		summarizer: summarizer,
		limits:     timewindow.LimitsFromConfig(config),
		now:        time.Now,
		logger:     logger.With().Str("component", "pipeline").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CountMessages counts all-time messages in a channel. A non-zero userID
// reports that user's count and percentage instead of the leaderboard.
func (s *Service) CountMessages(ctx context.Context, channel history.Channel, userID int64) (*CountReport, error) {
	s.logger.Info().
		Str("channel", channel.Name()).
		Int64("user_id", userID).
		Msg("Counting messages")

	raw, err := s.fetcher.FetchChannel(ctx, channel, history.HistoryOptions{})
	if err != nil {
		return nil, classifyFetchError(err, "An error occurred while counting messages: %v", err)
	}
	if len(raw) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found in this channel!")
	}

	humans := analytics.FilterHuman(history.Extract(raw))
	if len(humans) == 0 {
		return nil, newError(KindEmpty, nil, "No user messages found in this channel!")
	}

	report := &CountReport{
		Scope:       channel.Name(),
		Period:      "all time",
		Stats:       analytics.Stats(humans),
		GeneratedAt: s.now().UTC(),
	}

	if userID != 0 {
		report.User = &UserReport{
			AuthorID:   userID,
			Count:      analytics.UserMessageCount(humans, userID),
			Percentage: analytics.Percentage(humans, userID),
		}
		return report, nil
	}

	report.Leaderboard = analytics.FormatLeaderboard(analytics.CountByUser(humans), s.maxEntries)
	return report, nil
}

// DailyCount ranks users by messages sent in the channel since UTC midnight
func (s *Service) DailyCount(ctx context.Context, channel history.Channel) (*CountReport, error) {
	return s.DailyCountIn(ctx, channel, time.UTC)
}

// DailyCountIn is DailyCount with "today" starting at midnight in loc
func (s *Service) DailyCountIn(ctx context.Context, channel history.Channel, loc *time.Location) (*CountReport, error) {
	now := s.now()
	todayStart := timewindow.StartOfDayIn(now, loc)

	s.logger.Info().
		Str("channel", channel.Name()).
		Time("since", todayStart).
		Msg("Counting today's messages")

	raw, err := s.fetcher.FetchChannel(ctx, channel, history.HistoryOptions{After: todayStart})
	if err != nil {
		return nil, classifyFetchError(err, "An error occurred while counting messages: %v", err)
	}
	if len(raw) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found today in this channel!")
	}

	humans := analytics.FilterHuman(history.Extract(raw))
	if len(humans) == 0 {
		return nil, newError(KindEmpty, nil, "No user messages found today in this channel!")
	}

	return &CountReport{
		Scope:       channel.Name(),
		Period:      "today",
		Leaderboard: analytics.FormatLeaderboard(analytics.CountByUser(humans), s.maxEntries),
		Stats:       analytics.Stats(humans),
		GeneratedAt: now.UTC(),
	}, nil
}

// CountWindow ranks users by messages sent within a timeframe such as
// "2 days". An empty timeframe counts all history.
func (s *Service) CountWindow(ctx context.Context, channel history.Channel, timeframe string) (*CountReport, error) {
	if strings.TrimSpace(timeframe) == "" {
		return s.CountMessages(ctx, channel, 0)
	}

	now := s.now()
	window, err := timewindow.ResolveExpression(timeframe, s.limits, now)
	if err != nil {
		return nil, newError(KindValidation, err, "%s", err.Error())
	}

	raw, err := s.fetcher.FetchChannel(ctx, channel, history.HistoryOptions{After: window.Start})
	if err != nil {
		return nil, classifyFetchError(err, "An error occurred while counting messages: %v", err)
	}
	if len(raw) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found in the %s in this channel!", window.Description)
	}

	humans := analytics.FilterHuman(history.Extract(raw))
	if len(humans) == 0 {
		return nil, newError(KindEmpty, nil, "No user messages found in the %s in this channel!", window.Description)
	}

	return &CountReport{
		Scope:       channel.Name(),
		Period:      window.Description,
		Leaderboard: analytics.FormatLeaderboard(analytics.CountByUser(humans), s.maxEntries),
		Stats:       analytics.Stats(humans),
		GeneratedAt: now.UTC(),
	}, nil
}

// GlobalDailyCount ranks users by messages sent today across every readable
// text channel of the container
func (s *Service) GlobalDailyCount(ctx context.Context, container history.Container) (*CountReport, error) {
	now := s.now()
	todayStart := timewindow.StartOfDay(now)

	s.logger.Info().
		Str("container", container.Name()).
		Time("since", todayStart).
		Msg("Counting today's messages across all channels")

	records, scanned, err := s.fetcher.FetchGuild(ctx, container, history.HistoryOptions{After: todayStart})
	if err != nil {
		return nil, newError(KindUnclassified, err, "An error occurred while counting messages: %v", err)
	}
	if len(records) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found today in this server!")
	}

	humans := analytics.FilterHuman(records)
	if len(humans) == 0 {
		return nil, newError(KindEmpty, nil, "No user messages found today in this server!")
	}

	stats := analytics.ChannelStats(humans)

	s.logger.Debug().
		Int("channels_scanned", scanned).
		Int("channels_with_messages", stats.ChannelsChecked).
		Msg("Global daily count computed")

	return &CountReport{
		Scope:       container.Name(),
		Period:      "today",
		Leaderboard: analytics.FormatLeaderboard(analytics.CountByUser(humans), s.maxEntries),
		Stats:       stats,
		GeneratedAt: now.UTC(),
	}, nil
}

// Summarize produces an AI summary of the channel over a timeframe such as
// "2 days". onStart, when set, is called right before the completion service
// is contacted with the number of images found.
func (s *Service) Summarize(ctx context.Context, channel history.Channel, timeframe string, onStart func(imageCount int)) (*SummaryReport, error) {
	if strings.TrimSpace(timeframe) == "" {
		timeframe = DefaultTimeframe
	}

	now := s.now()
	window, err := timewindow.ResolveExpression(timeframe, s.limits, now)
	if err != nil {
		return nil, newError(KindValidation, err, "%s", err.Error())
	}

	s.logger.Info().
		Str("channel", channel.Name()).
		Str("time_desc", window.Description).
		Str("model", s.summarizer.TextModel()).
		Msg("Fetching messages for summary")

	raw, err := s.fetcher.FetchChannel(ctx, channel, history.HistoryOptions{After: window.Start, OldestFirst: true})
	if err != nil {
		return nil, classifyFetchError(err, "An error occurred while generating the summary: %v", err)
	}
	if len(raw) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found in the %s in this channel to summarize!", window.Description)
	}

	humans := analytics.FilterHuman(history.Extract(raw))
	if !hasText(humans) {
		return nil, newError(KindEmpty, nil, "No text messages found in the %s in this channel to summarize!", window.Description)
	}

	if onStart != nil {
		onStart(len(summary.CollectImageURLs(humans)))
	}

	outcome, err := s.summarizer.Generate(ctx, humans, window.Description)
	if err != nil {
		var completionErr *summary.CompletionError
		switch {
		case errors.Is(err, summary.ErrNoText):
			return nil, newError(KindEmpty, err, "No text messages found in the %s in this channel to summarize!", window.Description)
		case errors.As(err, &completionErr):
			return nil, newError(KindUpstream, err,
				"Failed to generate summary. Make sure the completion service is running and the %s model is available.\n\nError: %v",
				completionErr.Model, completionErr.Err)
		default:
			return nil, newError(KindUnclassified, err, "An error occurred while generating the summary: %v", err)
		}
	}

	return &SummaryReport{
		ChannelName: channel.Name(),
		Window:      window,
		Outcome:     outcome,
		GeneratedAt: now.UTC(),
	}, nil
}

// FirstMessage returns the oldest message of the channel
func (s *Service) FirstMessage(ctx context.Context, channel history.Channel) (*FirstMessageReport, error) {
	raw, err := s.fetcher.FetchChannel(ctx, channel, history.HistoryOptions{OldestFirst: true})
	if err != nil {
		return nil, classifyFetchError(err, "An error occurred while fetching messages.")
	}
	if len(raw) == 0 {
		return nil, newError(KindEmpty, nil, "No messages found in this channel!")
	}

	return &FirstMessageReport{
		ChannelName:   channel.Name(),
		Message:       raw[0],
		TotalMessages: len(raw),
	}, nil
}

func classifyFetchError(err error, format string, args ...interface{}) *Error {
	if errors.Is(err, history.ErrPermissionDenied) {
		return newError(KindPermission, err, "I don't have permission to read message history!")
	}
	return &Error{
		Kind:    KindUnclassified,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

func hasText(records []models.NormalizedMessage) bool {
	for _, r := range records {
		if r.Content != "" {
			return true
		}
	}
	return false
}
