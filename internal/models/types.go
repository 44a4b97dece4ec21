package models

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizedMessage is a platform-independent view of one chat message.
// It is built once by the history extractor and never mutated afterwards.
type NormalizedMessage struct {
	AuthorID    int64     `json:"author_id"`
	AuthorName  string    `json:"author_name"`
	IsBot       bool      `json:"is_bot"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"` // Always UTC
	ImageURLs   []string  `json:"image_urls,omitempty"`
	ChannelName string    `json:"channel_name,omitempty"` // Set only by guild-wide sweeps
}

// HasImages reports whether the message carries image attachments
func (m NormalizedMessage) HasImages() bool {
	return len(m.ImageURLs) > 0
}

// TimeWindow is an absolute cutoff plus a human-readable label such as "past 3 days"
type TimeWindow struct {
	Start       time.Time
	Description string
}

// UserCount represents message count statistics for a user
type UserCount struct {
	AuthorID   int64  `json:"author_id"`
	AuthorName string `json:"author_name"`
	Count      int    `json:"count"`
}

// LeaderboardEntry is one ranked row of a leaderboard
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	AuthorName string `json:"author_name"`
	Count      int    `json:"count"`
}

// Sentiment represents the overall tone of a summarized conversation
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps free-form model output onto a known sentiment.
// Anything unrecognized is treated as neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(normalizeToken(s)) {
	case SentimentPositive:
		return SentimentPositive
	case SentimentNegative:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// Title returns the sentiment formatted for display ("Positive")
func (s Sentiment) Title() string {
	return cases.Title(language.English).String(string(s))
}

// String returns string representation of Sentiment
func (s Sentiment) String() string {
	return string(s)
}
