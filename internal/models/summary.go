package models

import "strings"

// SummaryResult is the structured summary returned by the completion service
type SummaryResult struct {
	Overview       string    `json:"overview"`
	MainTopics     []string  `json:"main_topics"`
	KeyPoints      []string  `json:"key_points"`
	Sentiment      Sentiment `json:"sentiment"`
	NotableMoments string    `json:"notable_moments,omitempty"`
}

// SummaryOutcome is the result of one summarization request.
// Exactly one of Result and FallbackText is set: FallbackText carries the raw
// model output when it could not be parsed as a SummaryResult.
type SummaryOutcome struct {
	Result           *SummaryResult
	FallbackText     string
	MessagesAnalyzed int
	UniqueUsers      int
	ImagesAnalyzed   int
	Model            string
}

// IsFallback reports whether the model response could not be parsed
func (o *SummaryOutcome) IsFallback() bool {
	return o.Result == nil
}

func normalizeToken(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
