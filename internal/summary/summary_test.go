package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chat-history-bot/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu          sync.Mutex
	response    string
	err         error
	prompts     []string
	describeErr map[string]error // keyed by image payload
	described   []string
}

func (f *fakeCompleter) Complete(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeCompleter) DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.described = append(f.described, string(image))
	if err := f.describeErr[string(image)]; err != nil {
		return "", err
	}
	return "a picture of " + string(image), nil
}

type fakeFetcher struct {
	failing map[string]bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if f.failing[url] {
		return nil, "", fmt.Errorf("failed to download image: 404")
	}
	return []byte(strings.TrimPrefix(url, "https://cdn/")), "image/png", nil
}

func testConfig() *models.BotConfig {
	return &models.BotConfig{
		TextModel:        "text-model",
		VisionModel:      "vision-model",
		MaxMessagesForAI: 200,
		MaxImagesForAI:   5,
	}
}

func msg(author string, id int64, content string, images ...string) models.NormalizedMessage {
	return models.NormalizedMessage{
		AuthorID:   id,
		AuthorName: author,
		Content:    content,
		Timestamp:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ImageURLs:  images,
	}
}

const validJSON = `{
  "overview": "People planned a trip.",
  "main_topics": ["travel", "food"],
  "key_points": ["leave friday"],
  "sentiment": "Positive",
  "notable_moments": "Someone booked the hotel"
}`

func TestFormatMessagesForAITruncates(t *testing.T) {
	records := []models.NormalizedMessage{
		msg("alice", 1, "one"),
		msg("bob", 2, "two"),
		msg("carol", 3, "three"),
	}

	got := FormatMessagesForAI(records, 2)
	assert.Equal(t, "[Showing last 2 messages]\n\nbob: two\ncarol: three", got)

	assert.Equal(t, "alice: one\nbob: two\ncarol: three", FormatMessagesForAI(records, 0))
	assert.Equal(t, "alice: one\nbob: two\ncarol: three", FormatMessagesForAI(records, 3))
}

func TestFormatMessagesForAISkipsEmptyContent(t *testing.T) {
	records := []models.NormalizedMessage{
		msg("alice", 1, ""),
		msg("bob", 2, "hi"),
	}
	assert.Equal(t, "bob: hi", FormatMessagesForAI(records, 10))
	assert.Equal(t, "", FormatMessagesForAI([]models.NormalizedMessage{msg("a", 1, "")}, 10))
}

func TestCollectImageURLs(t *testing.T) {
	records := []models.NormalizedMessage{
		msg("alice", 1, "look", "https://cdn/a.png", "https://cdn/b.png"),
		msg("bob", 2, "nice"),
		msg("carol", 3, "", "https://cdn/c.png"),
	}

	assert.False(t, records[1].HasImages())
	assert.Equal(t, []string{"https://cdn/a.png", "https://cdn/b.png", "https://cdn/c.png"}, CollectImageURLs(records))
	assert.Empty(t, CollectImageURLs([]models.NormalizedMessage{msg("bob", 2, "text only")}))
}

func TestCleanJSONResponse(t *testing.T) {
	plain := `{"overview":"x"}`
	cases := []string{
		plain,
		"```json\n" + plain + "\n```",
		"```\n" + plain + "\n```",
		"  ```json\n" + plain + "\n```  \n",
		plain + "\n```",
	}

	for _, input := range cases {
		assert.Equal(t, plain, CleanJSONResponse(input), "input %q", input)
	}
}

func TestParseSummaryFencedAndPlainMatch(t *testing.T) {
	fenced, err := ParseSummary("```json\n" + validJSON + "\n```")
	require.NoError(t, err)

	plain, err := ParseSummary(validJSON)
	require.NoError(t, err)

	assert.Equal(t, plain, fenced)
	assert.Equal(t, models.SentimentPositive, plain.Sentiment)
	assert.Equal(t, []string{"travel", "food"}, plain.MainTopics)
	assert.Equal(t, "Someone booked the hotel", plain.NotableMoments)
}

func TestParseSummaryDefaults(t *testing.T) {
	result, err := ParseSummary(`{"overview":"quiet day","sentiment":"mixed","notable_moments":["a","b"]}`)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	assert.Equal(t, "a\nb", result.NotableMoments)

	result, err = ParseSummary(`{"overview":"quiet day"}`)
	require.NoError(t, err)
	assert.Equal(t, models.SentimentNeutral, result.Sentiment)
	assert.Empty(t, result.NotableMoments)
}

func TestParseSummaryRejectsNonJSON(t *testing.T) {
	for _, input := range []string{"Sure! Here is the summary...", "null", "[1,2]", `{"overview": `} {
		_, err := ParseSummary(input)
		assert.Error(t, err, "input %q", input)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt("alice: hi", "past 1 day", "")
	assert.Contains(t, prompt, "from the past 1 day")
	assert.Contains(t, prompt, "Messages:\nalice: hi\n")
	assert.NotContains(t, prompt, "IMAGE CONTEXT")
	for _, key := range []string{"overview", "main_topics", "key_points", "sentiment", "notable_moments"} {
		assert.Contains(t, prompt, `"`+key+`"`)
	}

	withImages := BuildPrompt("alice: hi", "past 2 hours", "Image 1: a cat")
	assert.Contains(t, withImages, "integrate the image information")
	assert.Contains(t, withImages, "IMAGE CONTEXT (analyzed by vision AI):")
	assert.Less(t, strings.Index(withImages, "alice: hi"), strings.Index(withImages, "Image 1: a cat"))
}

func TestGenerateSuccess(t *testing.T) {
	completer := &fakeCompleter{response: "```json\n" + validJSON + "\n```"}
	gen := NewGenerator(completer, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())

	records := []models.NormalizedMessage{msg("alice", 1, "hi"), msg("bob", 2, "hello"), msg("alice", 1, "bye")}
	outcome, err := gen.Generate(context.Background(), records, "past 1 day")
	require.NoError(t, err)

	require.False(t, outcome.IsFallback())
	assert.Equal(t, "People planned a trip.", outcome.Result.Overview)
	assert.Equal(t, 3, outcome.MessagesAnalyzed)
	assert.Equal(t, 2, outcome.UniqueUsers)
	assert.Equal(t, 0, outcome.ImagesAnalyzed)
	assert.Equal(t, "text-model", outcome.Model)

	require.Len(t, completer.prompts, 1)
	assert.NotContains(t, completer.prompts[0], "IMAGE CONTEXT")
}

func TestGenerateMalformedJSONFallsBack(t *testing.T) {
	long := strings.Repeat("é", FallbackMaxLength+50)
	completer := &fakeCompleter{response: long}
	gen := NewGenerator(completer, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())

	outcome, err := gen.Generate(context.Background(), []models.NormalizedMessage{msg("a", 1, "x")}, "past 1 day")
	require.NoError(t, err)
	assert.True(t, outcome.IsFallback())
	assert.Equal(t, FallbackMaxLength, len([]rune(outcome.FallbackText)))
}

func TestGenerateCompletionFailure(t *testing.T) {
	cause := errors.New("connection refused")
	gen := NewGenerator(&fakeCompleter{err: cause}, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())

	outcome, err := gen.Generate(context.Background(), []models.NormalizedMessage{msg("a", 1, "x")}, "past 1 day")
	require.Error(t, err)
	assert.Nil(t, outcome)

	var completionErr *CompletionError
	require.True(t, errors.As(err, &completionErr))
	assert.Equal(t, "text-model", completionErr.Model)
	assert.ErrorIs(t, err, cause)
}

func TestGenerateNoText(t *testing.T) {
	gen := NewGenerator(&fakeCompleter{}, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())

	_, err := gen.Generate(context.Background(), []models.NormalizedMessage{msg("a", 1, "", "https://cdn/x")}, "past 1 day")
	assert.ErrorIs(t, err, ErrNoText)
}

func TestGenerateWithImages(t *testing.T) {
	completer := &fakeCompleter{response: validJSON}
	fetcher := &fakeFetcher{failing: map[string]bool{"https://cdn/img2": true}}
	gen := NewGenerator(completer, fetcher, testConfig(), nil, zerolog.Nop())

	var images []string
	for i := 1; i <= 7; i++ {
		images = append(images, fmt.Sprintf("https://cdn/img%d", i))
	}
	records := []models.NormalizedMessage{
		msg("alice", 1, "look at these", images[:4]...),
		msg("bob", 2, "and these", images[4:]...),
	}

	outcome, err := gen.Generate(context.Background(), records, "past 3 hours")
	require.NoError(t, err)
	assert.Equal(t, 5, outcome.ImagesAnalyzed)
	assert.Len(t, completer.described, 4)

	require.Len(t, completer.prompts, 1)
	prompt := completer.prompts[0]
	assert.Contains(t, prompt, "IMAGE CONTEXT")
	assert.Contains(t, prompt, "Image 1: a picture of img1\nImage 2: [Could not analyze]\nImage 3: a picture of img3\nImage 4: a picture of img4\nImage 5: a picture of img5")
	assert.NotContains(t, prompt, "img6")
}

func TestAnalyzeImagesVisionFailureUsesPlaceholder(t *testing.T) {
	completer := &fakeCompleter{describeErr: map[string]error{"b": errors.New("model llava not found")}}
	gen := NewGenerator(completer, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())

	desc, analyzed, err := gen.AnalyzeImages(context.Background(), []string{"https://cdn/a", "https://cdn/b"})
	require.NoError(t, err)
	assert.Equal(t, 2, analyzed)
	assert.Equal(t, "Image 1: a picture of a\nImage 2: [Could not analyze]", desc)
}

func TestAnalyzeImagesCancelledContextDegrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	gen := NewGenerator(&fakeCompleter{}, &fakeFetcher{}, testConfig(), nil, zerolog.Nop())
	_, _, err := gen.AnalyzeImages(ctx, []string{"https://cdn/a"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeImagesDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.MaxImagesForAI = 0
	completer := &fakeCompleter{}
	gen := NewGenerator(completer, &fakeFetcher{}, cfg, nil, zerolog.Nop())

	desc, analyzed, err := gen.AnalyzeImages(context.Background(), []string{"https://cdn/a"})
	require.NoError(t, err)
	assert.Empty(t, desc)
	assert.Zero(t, analyzed)
	assert.Empty(t, completer.described)
}
