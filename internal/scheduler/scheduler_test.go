package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/chat-history-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(channels ...string) *models.BotConfig {
	return &models.BotConfig{
		Timezone:              "UTC",
		DailyReportSchedule:   "55 23 * * *",
		DailyReportChannelIDs: channels,
	}
}

func TestNewSchedulerInvalidTimezone(t *testing.T) {
	cfg := testConfig("c1")
	cfg.Timezone = "Invalid/Zone"

	_, err := NewScheduler(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestNewSchedulerInvalidSchedule(t *testing.T) {
	cfg := testConfig("c1")
	cfg.DailyReportSchedule = "every day"

	_, err := NewScheduler(cfg, nil, zerolog.Nop())
	assert.Error(t, err)
}

func TestNextRun(t *testing.T) {
	s, err := NewScheduler(testConfig("c1"), nil, zerolog.Nop())
	require.NoError(t, err)

	noon := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 10, 23, 55, 0, 0, time.UTC), s.NextRun(noon).UTC())

	late := time.Date(2024, 3, 10, 23, 56, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 3, 11, 23, 55, 0, 0, time.UTC), s.NextRun(late).UTC())
}

func TestRunDailyReportsContinuesAfterFailure(t *testing.T) {
	var posted []string
	poster := func(ctx context.Context, channelID string, loc *time.Location) error {
		posted = append(posted, channelID)
		if channelID == "c2" {
			return errors.New("missing access")
		}
		return nil
	}

	s, err := NewScheduler(testConfig("c1", "c2", "c3"), poster, zerolog.Nop())
	require.NoError(t, err)

	failed := s.RunDailyReports(context.Background())
	assert.Equal(t, 1, failed)
	assert.Equal(t, []string{"c1", "c2", "c3"}, posted)
}

func TestRunDailyReportsStopsWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var posted []string
	poster := func(ctx context.Context, channelID string, loc *time.Location) error {
		posted = append(posted, channelID)
		cancel()
		return nil
	}

	s, err := NewScheduler(testConfig("c1", "c2", "c3"), poster, zerolog.Nop())
	require.NoError(t, err)

	failed := s.RunDailyReports(ctx)
	assert.Equal(t, 2, failed)
	assert.Equal(t, []string{"c1"}, posted)
}

func TestStartIdleWithoutChannels(t *testing.T) {
	s, err := NewScheduler(testConfig(), nil, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	s, err := NewScheduler(testConfig("c1"), func(context.Context, string, *time.Location) error { return nil }, zerolog.Nop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Len(t, s.cron.Entries(), 1)
}

func TestRunDailyReportsUsesConfiguredTimezone(t *testing.T) {
	cfg := testConfig("c1")
	cfg.Timezone = "America/Los_Angeles"

	var got *time.Location
	poster := func(ctx context.Context, channelID string, loc *time.Location) error {
		got = loc
		return nil
	}

	s, err := NewScheduler(cfg, poster, zerolog.Nop())
	require.NoError(t, err)

	// The report fires at 23:55 local time, which is already the next day in UTC
	run := s.NextRun(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2024, 3, 11, 6, 55, 0, 0, time.UTC), run.UTC())

	assert.Zero(t, s.RunDailyReports(context.Background()))
	require.NotNil(t, got)
	assert.Equal(t, "America/Los_Angeles", got.String())
}
