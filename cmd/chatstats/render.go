package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/chat-history-bot/internal/pipeline"
	"github.com/dustin/go-humanize"
)

var medals = map[int]string{1: "[1st]", 2: "[2nd]", 3: "[3rd]"}

// renderLeaderboard prints the ranked entries. Users cut from the leaderboard
// are reported as a count.
func renderLeaderboard(w io.Writer, report *pipeline.CountReport) {
	fmt.Fprintf(w, "Message counts in %s (%s)\n", report.Scope, report.Period)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	entries := report.Leaderboard
	for _, e := range entries {
		fmt.Fprintf(w, "%-5s %3d. %-24s %s\n", medals[e.Rank], e.Rank, e.AuthorName, humanize.Comma(int64(e.Count)))
	}

	if hidden := report.Stats.UniqueUsers - len(entries); hidden > 0 {
		fmt.Fprintf(w, "      ... and %d more\n", hidden)
	}

	fmt.Fprintf(w, "\nTotal: %s messages from %s users\n",
		humanize.Comma(int64(report.Stats.TotalMessages)),
		humanize.Comma(int64(report.Stats.UniqueUsers)))
}

func renderSummary(w io.Writer, report *pipeline.SummaryReport) {
	outcome := report.Outcome

	fmt.Fprintf(w, "AI Summary - %s (%s)\n", report.ChannelName, report.Window.Description)
	fmt.Fprintln(w, strings.Repeat("=", 40))

	if outcome.IsFallback() {
		fmt.Fprintln(w, outcome.FallbackText)
	} else {
		result := outcome.Result
		overview := result.Overview
		if overview == "" {
			overview = "No overview available"
		}
		fmt.Fprintln(w, overview)

		writeSection(w, "Main Topics", result.MainTopics)
		writeSection(w, "Key Points", result.KeyPoints)

		fmt.Fprintf(w, "\nSentiment: %s\n", result.Sentiment.Title())
		if result.NotableMoments != "" {
			fmt.Fprintf(w, "Notable moments: %s\n", result.NotableMoments)
		}
	}

	fmt.Fprintf(w, "\n%s messages from %d users", humanize.Comma(int64(outcome.MessagesAnalyzed)), outcome.UniqueUsers)
	if outcome.ImagesAnalyzed > 0 {
		fmt.Fprintf(w, ", %d image(s) analyzed", outcome.ImagesAnalyzed)
	}
	fmt.Fprintf(w, "\nGenerated by %s", outcome.Model)
	if outcome.IsFallback() {
		fmt.Fprint(w, " (fallback format)")
	}
	fmt.Fprintln(w)
}

func writeSection(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func summaryStatusText(imageCount int) string {
	if imageCount > 0 {
		return fmt.Sprintf("Generating AI summary (including %d image(s))...", imageCount)
	}
	return "Generating AI summary..."
}
