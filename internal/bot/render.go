package bot

import (
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/chat-history-bot/internal/models"
	"github.com/chat-history-bot/internal/pipeline"
	"github.com/dustin/go-humanize"
)

// Embed colors
const (
	colorBlue   = 0x3498db
	colorGold   = 0xf1c40f
	colorGreen  = 0x2ecc71
	colorPurple = 0x9b59b6
)

const (
	// maxDescriptionLength keeps embed descriptions under Discord's 4096 limit
	maxDescriptionLength = 4000

	// truncatedLeaderboardRows is how many rows remain when a leaderboard is too long
	truncatedLeaderboardRows = 50

	// maxFieldLength is Discord's limit for an embed field value
	maxFieldLength = 1024

	// maxSummaryItems caps the topics and key points shown
	maxSummaryItems = 5
)

func medal(rank int) string {
	switch rank {
	case 1:
		return "[1st] "
	case 2:
		return "[2nd] "
	case 3:
		return "[3rd] "
	default:
		return ""
	}
}

// leaderboardDescription renders one line per entry, cut back to 50 rows with
// a marker when the full text would not fit in an embed
func leaderboardDescription(entries []models.LeaderboardEntry) string {
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("%s**%d.** %s - **%s** messages",
			medal(e.Rank), e.Rank, e.AuthorName, humanize.Comma(int64(e.Count))))
	}

	description := strings.Join(lines, "\n")
	if len(description) > maxDescriptionLength {
		if len(lines) > truncatedLeaderboardRows {
			lines = lines[:truncatedLeaderboardRows]
		}
		description = strings.Join(lines, "\n") + "\n\n*... and more*"
	}

	return description
}

func leaderboardEmbed(title string, report *pipeline.CountReport, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: leaderboardDescription(report.Leaderboard),
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total: %s messages from %d users",
				humanize.Comma(int64(report.Stats.TotalMessages)), report.Stats.UniqueUsers),
		},
	}
}

func channelLeaderboardEmbed(report *pipeline.CountReport) *discordgo.MessageEmbed {
	return leaderboardEmbed(fmt.Sprintf("Message Counts in #%s", report.Scope), report, colorGold)
}

func dailyLeaderboardEmbed(report *pipeline.CountReport) *discordgo.MessageEmbed {
	return leaderboardEmbed(fmt.Sprintf("Today's Messages in #%s", report.Scope), report, colorGreen)
}

func globalLeaderboardEmbed(report *pipeline.CountReport) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Today's Messages Across %s", report.Scope),
		Description: leaderboardDescription(report.Leaderboard),
		Color:       colorPurple,
		Timestamp:   report.GeneratedAt.Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total today: %s messages from %d users across %d channels",
				humanize.Comma(int64(report.Stats.TotalMessages)),
				report.Stats.UniqueUsers,
				report.Stats.ChannelsChecked),
		},
	}
}

func userCountEmbed(name, avatarURL string, user *pipeline.UserReport) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Message Count for %s", name),
		Color: colorBlue,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Messages", Value: humanize.Comma(int64(user.Count)), Inline: true},
			{Name: "Percentage", Value: fmt.Sprintf("%.1f%%", user.Percentage), Inline: true},
		},
	}
	if avatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: avatarURL}
	}
	return embed
}

func summaryTitle(report *pipeline.SummaryReport) string {
	return fmt.Sprintf("AI Summary - #%s (%s)", report.ChannelName, capitalize(report.Window.Description))
}

// summaryEmbed renders a parsed summary, or the raw fallback text when the
// model did not answer with JSON
func summaryEmbed(report *pipeline.SummaryReport) *discordgo.MessageEmbed {
	outcome := report.Outcome
	if outcome.IsFallback() {
		return fallbackSummaryEmbed(report)
	}

	result := outcome.Result
	overview := result.Overview
	if overview == "" {
		overview = "No overview available"
	}

	embed := &discordgo.MessageEmbed{
		Title:       summaryTitle(report),
		Description: truncate(overview, maxDescriptionLength),
		Color:       colorBlue,
		Timestamp:   report.GeneratedAt.Format(time.RFC3339),
	}

	if len(result.MainTopics) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Main Topics",
			Value: bulletList(result.MainTopics),
		})
	}
	if len(result.KeyPoints) > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Key Points",
			Value: bulletList(result.KeyPoints),
		})
	}

	embed.Fields = append(embed.Fields,
		&discordgo.MessageEmbedField{Name: "Sentiment", Value: result.Sentiment.Title(), Inline: true},
		&discordgo.MessageEmbedField{Name: "Messages", Value: humanize.Comma(int64(outcome.MessagesAnalyzed)), Inline: true},
		&discordgo.MessageEmbedField{Name: "Users", Value: fmt.Sprintf("%d", outcome.UniqueUsers), Inline: true},
	)

	if result.NotableMoments != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Notable Moments",
			Value: truncate(result.NotableMoments, maxFieldLength),
		})
	}

	footer := fmt.Sprintf("Generated by %s", outcome.Model)
	if outcome.ImagesAnalyzed > 0 {
		footer += fmt.Sprintf(" | %d image(s) analyzed", outcome.ImagesAnalyzed)
	}
	embed.Footer = &discordgo.MessageEmbedFooter{Text: footer}

	return embed
}

func fallbackSummaryEmbed(report *pipeline.SummaryReport) *discordgo.MessageEmbed {
	outcome := report.Outcome
	return &discordgo.MessageEmbed{
		Title:       summaryTitle(report),
		Description: truncate(outcome.FallbackText, maxDescriptionLength),
		Color:       colorBlue,
		Timestamp:   report.GeneratedAt.Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Messages Analyzed", Value: humanize.Comma(int64(outcome.MessagesAnalyzed)), Inline: true},
			{Name: "Unique Users", Value: fmt.Sprintf("%d", outcome.UniqueUsers), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Generated by %s (fallback format)", outcome.Model),
		},
	}
}

func firstMessageEmbed(report *pipeline.FirstMessageReport, channelID string) *discordgo.MessageEmbed {
	msg := report.Message

	content := msg.Content
	if content == "" {
		content = "*No text content*"
	}

	return &discordgo.MessageEmbed{
		Description: truncate(content, maxDescriptionLength),
		Color:       colorBlue,
		Timestamp:   msg.Timestamp.Format(time.RFC3339),
		Author: &discordgo.MessageEmbedAuthor{
			Name:    msg.AuthorName,
			IconURL: msg.AuthorAvatarURL,
		},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Channel", Value: fmt.Sprintf("<#%s>", channelID), Inline: true},
			{Name: "Total Messages", Value: humanize.Comma(int64(report.TotalMessages)), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Message ID: %s", msg.ID),
		},
	}
}

func summaryStatusText(imageCount int) string {
	note := ""
	if imageCount > 0 {
		note = fmt.Sprintf(" (including %d image(s))", imageCount)
	}
	return fmt.Sprintf("Generating AI summary%s... This may take a moment.", note)
}

func bulletList(items []string) string {
	if len(items) > maxSummaryItems {
		items = items[:maxSummaryItems]
	}

	lines := make([]string, 0, len(items))
	for _, item := range items {
		lines = append(lines, "- "+item)
	}
	return truncate(strings.Join(lines, "\n"), maxFieldLength)
}

// capitalize upper-cases the first letter only: "past 2 days" -> "Past 2 days"
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
