package summary

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/chat-history-bot/internal/models"
)

const imageInstruction = `
IMPORTANT: The conversation includes images that have been analyzed by a vision AI.
The IMAGE CONTEXT section contains descriptions of these images.
When generating the summary, integrate the image information naturally throughout:
- Include image-related topics in "main_topics"
- Mention visual content in "key_points" where relevant
- Reference images in "notable_moments" if they're significant
- Let the images inform your understanding of the conversation's "overview"
`

const promptTemplate = `Analyze the following chat channel conversation from the %s and provide a structured summary.
%s
Please respond ONLY with valid JSON in the following format:
{
  "overview": "A 2-3 sentence overview of the conversation (incorporate image context if present)",
  "main_topics": ["topic1", "topic2", "topic3"],
  "key_points": ["point1", "point2", "point3"],
  "sentiment": "positive/neutral/negative",
  "notable_moments": "Any interesting or important moments (optional)"
}

Messages:
%s

Remember to respond ONLY with valid JSON, no other text.`

var separator = strings.Repeat("=", 50)

// FormatMessagesForAI renders records as "author: content" lines, skipping empty
// content. Only the last maxMessages lines are kept when maxMessages is positive.
func FormatMessagesForAI(records []models.NormalizedMessage, maxMessages int) string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		if r.Content != "" {
			lines = append(lines, fmt.Sprintf("%s: %s", r.AuthorName, r.Content))
		}
	}

	if maxMessages > 0 && len(lines) > maxMessages {
		lines = lines[len(lines)-maxMessages:]
		return fmt.Sprintf("[Showing last %d messages]\n\n", maxMessages) + strings.Join(lines, "\n")
	}

	return strings.Join(lines, "\n")
}

// CollectImageURLs returns every image URL in record order
func CollectImageURLs(records []models.NormalizedMessage) []string {
	var urls []string
	for _, r := range records {
		if r.HasImages() {
			urls = append(urls, r.ImageURLs...)
		}
	}
	return urls
}

// BuildPrompt builds the summary prompt. A non-empty imageContext adds the
// image instructions and an IMAGE CONTEXT block after the transcript.
func BuildPrompt(transcript, timeDesc, imageContext string) string {
	instruction := ""
	if imageContext != "" {
		instruction = imageInstruction
		transcript += fmt.Sprintf("\n\n%s\nIMAGE CONTEXT (analyzed by vision AI):\n%s\n%s\n%s",
			separator, separator, imageContext, separator)
	}

	return fmt.Sprintf(promptTemplate, timeDesc, instruction, transcript)
}

// CleanJSONResponse strips one leading and one trailing Markdown code fence
func CleanJSONResponse(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}

	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")

	return strings.TrimSpace(text)
}

type rawSummary struct {
	Overview       string          `json:"overview"`
	MainTopics     []string        `json:"main_topics"`
	KeyPoints      []string        `json:"key_points"`
	Sentiment      string          `json:"sentiment"`
	NotableMoments json.RawMessage `json:"notable_moments"`
}

// ParseSummary parses a model response into a SummaryResult
func ParseSummary(text string) (*models.SummaryResult, error) {
	cleaned := CleanJSONResponse(text)
	if !strings.HasPrefix(cleaned, "{") {
		return nil, errors.New("response is not a JSON object")
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}

	return &models.SummaryResult{
		Overview:       strings.TrimSpace(raw.Overview),
		MainTopics:     raw.MainTopics,
		KeyPoints:      raw.KeyPoints,
		Sentiment:      models.ParseSentiment(raw.Sentiment),
		NotableMoments: notableMoments(raw.NotableMoments),
	}, nil
}

// notableMoments accepts a string or a list of strings
func notableMoments(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "\n")
	}

	return ""
}
