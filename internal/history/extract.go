package history

import (
	"strings"

	"github.com/chat-history-bot/internal/models"
)

// Extract maps raw platform messages to normalized records.
// Only image attachments are kept. Bots and system messages are not filtered.
func Extract(messages []RawMessage) []models.NormalizedMessage {
	records := make([]models.NormalizedMessage, 0, len(messages))
	for _, msg := range messages {
		records = append(records, extractOne(msg))
	}
	return records
}

func extractOne(msg RawMessage) models.NormalizedMessage {
	var images []string
	for _, attachment := range msg.Attachments {
		if strings.HasPrefix(attachment.ContentType, "image/") {
			images = append(images, attachment.URL)
		}
	}

	return models.NormalizedMessage{
		AuthorID:    msg.AuthorID,
		AuthorName:  msg.AuthorName,
		IsBot:       msg.IsBot,
		Content:     msg.Content,
		Timestamp:   msg.Timestamp.UTC(),
		ImageURLs:   images,
		ChannelName: msg.ChannelName,
	}
}
