// Package history retrieves channel message history from the chat platform and
// normalizes it into models.NormalizedMessage records.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrPermissionDenied is returned when the bot may not read a channel's history
var ErrPermissionDenied = errors.New("missing permission to read message history")

// MessageType distinguishes regular user messages from platform system messages
type MessageType int

const (
	// MessageTypeDefault is a regular message written by a user or bot
	MessageTypeDefault MessageType = iota

	// MessageTypeSystem covers joins, pins, boosts, thread notices and similar
	MessageTypeSystem
)

// Attachment is a file attached to a message
type Attachment struct {
	URL         string
	ContentType string
}

// RawMessage is a message as delivered by the platform adapter
type RawMessage struct {
	ID              string
	AuthorID        int64
	AuthorName      string
	AuthorAvatarURL string
	IsBot           bool
	Type            MessageType
	Content         string
	Timestamp       time.Time
	Attachments     []Attachment
	ChannelName     string
	JumpURL         string
}

// HistoryOptions controls a history retrieval.
// A zero After means no lower bound and a zero Limit means no limit.
type HistoryOptions struct {
	After       time.Time
	Limit       int
	OldestFirst bool
}

// Channel is a readable message stream on the chat platform
type Channel interface {
	Name() string
	History(ctx context.Context, opts HistoryOptions) ([]RawMessage, error)
	CanReadHistory(ctx context.Context) (bool, error)
}

// Container groups channels, e.g. a Discord guild
type Container interface {
	Name() string
	TextChannels(ctx context.Context) ([]Channel, error)
}
