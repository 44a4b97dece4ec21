package history

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/chat-history-bot/internal/models"
	"github.com/rs/zerolog"
)

// Fetcher pulls message history from platform channels
type Fetcher struct {
	logger zerolog.Logger
}

// NewFetcher creates a new history fetcher
func NewFetcher(logger zerolog.Logger) *Fetcher {
	return &Fetcher{
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// FetchChannel retrieves messages from a single channel.
// Missing permission is fatal here and is reported as ErrPermissionDenied.
func (f *Fetcher) FetchChannel(ctx context.Context, channel Channel, opts HistoryOptions) ([]RawMessage, error) {
	messages, err := channel.History(ctx, opts)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			f.logger.Error().
				Str("channel", channel.Name()).
				Msg("No permission to read history")
			return nil, err
		}

		f.logger.Error().
			Err(err).
			Str("channel", channel.Name()).
			Msg("Error fetching messages")
		return nil, fmt.Errorf("failed to fetch messages from #%s: %w", channel.Name(), err)
	}

	messages = applyOptions(messages, opts)

	f.logger.Debug().
		Str("channel", channel.Name()).
		Int("count", len(messages)).
		Bool("oldest_first", opts.OldestFirst).
		Msg("Fetched channel history")

	return messages, nil
}

// FetchGuild retrieves messages from every text channel of a container.
// Channels that cannot be read or fail to load are skipped and system messages
// are dropped. Only listing the channels or cancellation fails the sweep. It returns the normalized records and the number of channels scanned.
func (f *Fetcher) FetchGuild(ctx context.Context, container Container, opts HistoryOptions) ([]models.NormalizedMessage, int, error) {
	channels, err := container.TextChannels(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list channels of %s: %w", container.Name(), err)
	}

	var (
		records []models.NormalizedMessage
		scanned int
	)

	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return nil, scanned, err
		}

		canRead, err := channel.CanReadHistory(ctx)
		if err != nil {
			f.logger.Error().
				Err(err).
				Str("channel", channel.Name()).
				Msg("Failed to check permissions, skipping channel")
			continue
		}
		if !canRead {
			f.logger.Warn().
				Str("channel", channel.Name()).
				Msg("No permission to read history, skipping channel")
			continue
		}

		messages, err := channel.History(ctx, opts)
		if err != nil {
			if errors.Is(err, ErrPermissionDenied) {
				f.logger.Warn().
					Str("channel", channel.Name()).
					Msg("Forbidden to read channel, skipping")
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, scanned, ctxErr
			}
			f.logger.Error().
				Err(err).
				Str("channel", channel.Name()).
				Msg("Error fetching messages, skipping channel")
			continue
		}
		scanned++

		messages = applyOptions(messages, opts)
		for _, msg := range messages {
			if msg.Type != MessageTypeDefault {
				continue
			}
			record := extractOne(msg)
			record.ChannelName = channel.Name()
			records = append(records, record)
		}
	}

	f.logger.Info().
		Str("container", container.Name()).
		Int("channels", len(channels)).
		Int("channels_scanned", scanned).
		Int("records", len(records)).
		Msg("Fetched guild history")

	return records, scanned, nil
}

// applyOptions enforces the After bound, ordering and limit regardless of how
// much of it the platform adapter already handled.
func applyOptions(messages []RawMessage, opts HistoryOptions) []RawMessage {
	filtered := messages[:0:0]
	for _, msg := range messages {
		if !opts.After.IsZero() && !msg.Timestamp.After(opts.After) {
			continue
		}
		filtered = append(filtered, msg)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if opts.OldestFirst {
			return filtered[i].Timestamp.Before(filtered[j].Timestamp)
		}
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	if opts.Limit > 0 && len(filtered) > opts.Limit {
		filtered = filtered[:opts.Limit]
	}

	return filtered
}
