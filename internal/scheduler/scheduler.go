package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/chat-history-bot/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// ReportPoster posts today's leaderboard into a channel. loc is the
// scheduler's timezone and decides where "today" begins.
type ReportPoster func(ctx context.Context, channelID string, loc *time.Location) error

// Scheduler runs the daily leaderboard report
type Scheduler struct {
	cron     *cron.Cron
	schedule cron.Schedule
	spec     string
	channels []string
	poster   ReportPoster
	logger   zerolog.Logger
	timezone *time.Location
}

// NewScheduler creates a new scheduler
func NewScheduler(
	config *models.BotConfig,
	poster ReportPoster,
	logger zerolog.Logger,
) (*Scheduler, error) {
	// Load timezone
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", config.Timezone, err)
	}

	schedule, err := cron.ParseStandard(config.DailyReportSchedule)
	if err != nil {
		return nil, fmt.Errorf("failed to parse schedule %q: %w", config.DailyReportSchedule, err)
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		schedule: schedule,
		spec:     config.DailyReportSchedule,
		channels: config.DailyReportChannelIDs,
		poster:   poster,
		logger:   logger.With().Str("component", "scheduler").Logger(),
		timezone: loc,
	}, nil
}

// Start runs the scheduler until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.channels) == 0 {
		s.logger.Info().Msg("No daily report channels configured, scheduler idle")
		<-ctx.Done()
		return nil
	}

	s.logger.Info().Msg("Starting scheduler...")

	s.cron.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunDailyReports(ctx)
	}))
	s.cron.Start()

	nextRun := s.NextRun(time.Now())
	s.logger.Info().
		Str("schedule", s.spec).
		Time("next_report_run", nextRun).
		Dur("wait_duration", time.Until(nextRun)).
		Int("channel_count", len(s.channels)).
		Msg("Scheduled daily report")

	// Wait for context cancellation
	<-ctx.Done()

	// Wait for a running report to finish
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// NextRun returns the first report time after t
func (s *Scheduler) NextRun(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.timezone))
}

// RunDailyReports posts the report to every configured channel. A failing
// channel is logged and does not stop the others. It returns the number of
// channels that failed.
func (s *Scheduler) RunDailyReports(ctx context.Context) int {
	s.logger.Info().
		Int("channel_count", len(s.channels)).
		Msg("Running daily reports")

	failed := 0
	for i, channelID := range s.channels {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Err(err).Msg("Daily reports interrupted")
			return failed + len(s.channels) - i
		}

		if err := s.poster(ctx, channelID, s.timezone); err != nil {
			failed++
			s.logger.Error().
				Err(err).
				Str("channel_id", channelID).
				Msg("Failed to post daily report")
			continue
		}

		s.logger.Info().
			Str("channel_id", channelID).
			Msg("Daily report posted")
	}

	return failed
}
