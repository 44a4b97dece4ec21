// Package historytest provides in-memory history.Channel and history.Container
// implementations for tests.
package historytest

import (
	"context"

	"github.com/chat-history-bot/internal/history"
)

// Channel is an in-memory channel. Messages are returned in the order given,
// leaving ordering and filtering to the fetcher.
type Channel struct {
	ChannelName string
	Messages    []history.RawMessage
	Denied      bool  // CanReadHistory reports false
	HistoryErr  error // Returned by History when set
	CheckErr    error // Returned by CanReadHistory when set
	Calls       []history.HistoryOptions
}

// Name returns the channel name
func (c *Channel) Name() string {
	return c.ChannelName
}

// History returns the configured messages or error
func (c *Channel) History(ctx context.Context, opts history.HistoryOptions) ([]history.RawMessage, error) {
	c.Calls = append(c.Calls, opts)
	if c.HistoryErr != nil {
		return nil, c.HistoryErr
	}
	out := make([]history.RawMessage, len(c.Messages))
	copy(out, c.Messages)
	return out, nil
}

// CanReadHistory reports whether the channel is readable
func (c *Channel) CanReadHistory(ctx context.Context) (bool, error) {
	if c.CheckErr != nil {
		return false, c.CheckErr
	}
	return !c.Denied, nil
}

// Container is an in-memory guild
type Container struct {
	ContainerName string
	Channels      []*Channel
	ListErr       error
}

// Name returns the container name
func (c *Container) Name() string {
	return c.ContainerName
}

// TextChannels returns the configured channels
func (c *Container) TextChannels(ctx context.Context) ([]history.Channel, error) {
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	channels := make([]history.Channel, 0, len(c.Channels))
	for _, ch := range c.Channels {
		channels = append(channels, ch)
	}
	return channels, nil
}
