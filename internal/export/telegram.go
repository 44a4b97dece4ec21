// Package export reads Telegram Desktop JSON exports and exposes them as a
// history.Channel so the offline tools run the same pipeline as the bot.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chat-history-bot/internal/history"
)

// TelegramExport represents Telegram Desktop JSON export format
type TelegramExport struct {
	Name     string                  `json:"name"`
	Type     string                  `json:"type"`
	ID       int64                   `json:"id"`
	Messages []TelegramExportMessage `json:"messages"`
}

// TelegramExportMessage represents a message in Telegram export
type TelegramExportMessage struct {
	ID           int64       `json:"id"`
	Type         string      `json:"type"`
	Date         string      `json:"date"`
	DateUnixtime string      `json:"date_unixtime"`
	From         string      `json:"from"`
	FromID       string      `json:"from_id"`
	ViaBot       string      `json:"via_bot,omitempty"`
	Text         interface{} `json:"text"` // Can be string or array
	Photo        string      `json:"photo,omitempty"`
	File         string      `json:"file,omitempty"`
	MimeType     string      `json:"mime_type,omitempty"`
}

// Load reads and parses an export file
func Load(path string) (*TelegramExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}

	var export TelegramExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse export JSON: %w", err)
	}

	return &export, nil
}

// Channel is a read-only view of an export as a history.Channel
type Channel struct {
	export *TelegramExport
	dir    string
}

// NewChannel wraps export. dir is the export directory that relative photo
// paths are resolved against.
func NewChannel(export *TelegramExport, dir string) *Channel {
	return &Channel{export: export, dir: dir}
}

// Name returns the chat name
func (c *Channel) Name() string {
	return c.export.Name
}

// CanReadHistory always succeeds for a local file
func (c *Channel) CanReadHistory(ctx context.Context) (bool, error) {
	return true, nil
}

// History returns every regular message of the export. Service entries and
// messages with an unreadable date are skipped.
func (c *Channel) History(ctx context.Context, opts history.HistoryOptions) ([]history.RawMessage, error) {
	messages := make([]history.RawMessage, 0, len(c.export.Messages))
	for _, msg := range c.export.Messages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if msg.Type != "message" {
			continue
		}

		timestamp, err := parseTimestamp(msg)
		if err != nil {
			continue
		}

		raw := history.RawMessage{
			ID:          strconv.FormatInt(msg.ID, 10),
			AuthorID:    parseFromID(msg.FromID),
			AuthorName:  msg.From,
			IsBot:       msg.ViaBot != "",
			Type:        history.MessageTypeDefault,
			Content:     ExtractText(msg.Text),
			Timestamp:   timestamp,
			ChannelName: c.export.Name,
		}
		if raw.AuthorName == "" {
			raw.AuthorName = msg.FromID
		}

		if attachment, ok := c.imageAttachment(msg); ok {
			raw.Attachments = append(raw.Attachments, attachment)
		}

		messages = append(messages, raw)
	}

	return messages, nil
}

func (c *Channel) imageAttachment(msg TelegramExportMessage) (history.Attachment, bool) {
	switch {
	case msg.Photo != "":
		return history.Attachment{URL: c.resolve(msg.Photo), ContentType: "image/jpeg"}, true
	case msg.File != "" && strings.HasPrefix(msg.MimeType, "image/"):
		return history.Attachment{URL: c.resolve(msg.File), ContentType: msg.MimeType}, true
	default:
		return history.Attachment{}, false
	}
}

func (c *Channel) resolve(path string) string {
	if filepath.IsAbs(path) || c.dir == "" {
		return path
	}
	return filepath.Join(c.dir, path)
}

// ExtractText extracts text from message.text field (can be string or array)
func ExtractText(text interface{}) string {
	switch v := text.(type) {
	case string:
		return v
	case []interface{}:
		// Text with entities - concatenate all text parts
		var b strings.Builder
		for _, part := range v {
			if str, ok := part.(string); ok {
				b.WriteString(str)
			} else if m, ok := part.(map[string]interface{}); ok {
				if txt, ok := m["text"].(string); ok {
					b.WriteString(txt)
				}
			}
		}
		return b.String()
	default:
		return ""
	}
}

// parseTimestamp prefers date_unixtime and falls back to the local date field,
// which is interpreted as UTC
func parseTimestamp(msg TelegramExportMessage) (time.Time, error) {
	if msg.DateUnixtime != "" {
		seconds, err := strconv.ParseInt(msg.DateUnixtime, 10, 64)
		if err == nil {
			return time.Unix(seconds, 0).UTC(), nil
		}
	}

	if msg.Date != "" {
		return time.ParseInLocation("2006-01-02T15:04:05", msg.Date, time.UTC)
	}

	return time.Time{}, fmt.Errorf("message %d has no date", msg.ID)
}

// parseFromID turns "user123" or "channel123" into 123
func parseFromID(fromID string) int64 {
	digits := strings.TrimLeft(fromID, "abcdefghijklmnopqrstuvwxyz")
	id, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
