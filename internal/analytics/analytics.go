// Package analytics aggregates normalized messages into per-user counts and leaderboards.
// All functions are pure and return zero values on empty input.
package analytics

import (
	"sort"

	"github.com/chat-history-bot/internal/models"
)

// MessageStats summarizes a set of records
type MessageStats struct {
	TotalMessages   int
	UniqueUsers     int
	ChannelsChecked int
}

// FilterHuman drops messages written by bots
func FilterHuman(records []models.NormalizedMessage) []models.NormalizedMessage {
	humans := make([]models.NormalizedMessage, 0, len(records))
	for _, r := range records {
		if !r.IsBot {
			humans = append(humans, r)
		}
	}
	return humans
}

type userKey struct {
	id   int64
	name string
}

// CountByUser groups records by author and sorts the groups by count, descending.
// Groups with equal counts keep the order in which their author first appeared.
func CountByUser(records []models.NormalizedMessage) []models.UserCount {
	index := make(map[userKey]int)
	counts := make([]models.UserCount, 0)

	for _, r := range records {
		key := userKey{id: r.AuthorID, name: r.AuthorName}
		i, ok := index[key]
		if !ok {
			i = len(counts)
			index[key] = i
			counts = append(counts, models.UserCount{AuthorID: r.AuthorID, AuthorName: r.AuthorName})
		}
		counts[i].Count++
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	return counts
}

// UserMessageCount returns how many records belong to the author
func UserMessageCount(records []models.NormalizedMessage, authorID int64) int {
	count := 0
	for _, r := range records {
		if r.AuthorID == authorID {
			count++
		}
	}
	return count
}

// Percentage returns the author's share of all records, 0 when there are none
func Percentage(records []models.NormalizedMessage, authorID int64) float64 {
	if len(records) == 0 {
		return 0.0
	}
	return float64(UserMessageCount(records, authorID)) / float64(len(records)) * 100
}

// Stats returns the total message count and number of distinct authors
func Stats(records []models.NormalizedMessage) MessageStats {
	users := make(map[int64]struct{})
	for _, r := range records {
		users[r.AuthorID] = struct{}{}
	}
	return MessageStats{
		TotalMessages: len(records),
		UniqueUsers:   len(users),
	}
}

// ChannelStats extends Stats with the number of distinct channels seen.
// Records without a channel name do not count as a channel.
func ChannelStats(records []models.NormalizedMessage) MessageStats {
	stats := Stats(records)

	channels := make(map[string]struct{})
	for _, r := range records {
		if r.ChannelName != "" {
			channels[r.ChannelName] = struct{}{}
		}
	}
	stats.ChannelsChecked = len(channels)

	return stats
}

// FormatLeaderboard ranks counts in their given order, keeping at most maxEntries
// rows when maxEntries is positive.
func FormatLeaderboard(counts []models.UserCount, maxEntries int) []models.LeaderboardEntry {
	if maxEntries > 0 && len(counts) > maxEntries {
		counts = counts[:maxEntries]
	}

	leaderboard := make([]models.LeaderboardEntry, 0, len(counts))
	for i, c := range counts {
		leaderboard = append(leaderboard, models.LeaderboardEntry{
			Rank:       i + 1,
			AuthorName: c.AuthorName,
			Count:      c.Count,
		})
	}

	return leaderboard
}
