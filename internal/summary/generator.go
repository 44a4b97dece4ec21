package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/chat-history-bot/internal/analytics"
	"github.com/chat-history-bot/internal/llm"
	"github.com/chat-history-bot/internal/metrics"
	"github.com/chat-history-bot/internal/models"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	// visionInstruction is sent with every image
	visionInstruction = "Describe this image briefly in one sentence."

	// couldNotAnalyze replaces the description of an image that failed
	couldNotAnalyze = "[Could not analyze]"

	// maxParallelImages bounds concurrent image downloads and vision calls
	maxParallelImages = 5

	// FallbackMaxLength caps the raw model text kept when the response is not valid JSON
	FallbackMaxLength = 4000
)

// ErrNoText is returned when none of the records has text content
var ErrNoText = errors.New("no text messages to summarize")

// CompletionError reports a failed call to the text completion service
type CompletionError struct {
	Model string
	Err   error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion with model %s failed: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// ImageFetcher downloads an image and reports its MIME type
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// Generator produces AI summaries of conversations
type Generator struct {
	completer   llm.Completer
	images      ImageFetcher
	textModel   string
	visionModel string
	maxMessages int
	maxImages   int
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewGenerator creates a new summary generator
func NewGenerator(
	completer llm.Completer,
	images ImageFetcher,
	config *models.BotConfig,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Generator {
	return &Generator{
		completer:   completer,
		images:      images,
		textModel:   config.TextModel,
		visionModel: config.VisionModel,
		maxMessages: config.MaxMessagesForAI,
		maxImages:   config.MaxImagesForAI,
		metrics:     m,
		logger:      logger.With().Str("component", "summary_generator").Logger(),
	}
}

// TextModel returns the model used for summaries
func (g *Generator) TextModel() string {
	return g.textModel
}

// Generate summarizes human messages, oldest first.
// A completion failure is returned as *CompletionError. A response that is not
// valid JSON is not an error: the outcome then carries FallbackText.
func (g *Generator) Generate(ctx context.Context, records []models.NormalizedMessage, timeDesc string) (*models.SummaryOutcome, error) {
	transcript := FormatMessagesForAI(records, g.maxMessages)
	if strings.TrimSpace(transcript) == "" {
		return nil, ErrNoText
	}

	stats := analytics.Stats(records)
	outcome := &models.SummaryOutcome{
		MessagesAnalyzed: stats.TotalMessages,
		UniqueUsers:      stats.UniqueUsers,
		Model:            g.textModel,
	}

	g.logger.Info().
		Str("time_desc", timeDesc).
		Int("message_count", len(records)).
		Msg("Starting summary generation")

	// Analyze images if present and add as context
	imageContext := ""
	if urls := CollectImageURLs(records); len(urls) > 0 {
		g.logger.Info().
			Int("image_count", len(urls)).
			Msg("Analyzing images to provide context for summary")

		descriptions, analyzed, err := g.AnalyzeImages(ctx, urls)
		switch {
		case err != nil:
			g.logger.Warn().Err(err).Msg("Image analysis failed, continuing with text-only summary")
		case descriptions == "":
			g.logger.Warn().Msg("Image analysis returned no descriptions")
		default:
			imageContext = descriptions
			outcome.ImagesAnalyzed = analyzed
		}
	}

	prompt := BuildPrompt(transcript, timeDesc, imageContext)

	g.logger.Debug().
		Str("model", g.textModel).
		Int("prompt_length", len(prompt)).
		Bool("with_images", imageContext != "").
		Msg("Sending request to LLM for summary")

	text, err := g.completer.Complete(ctx, g.textModel, prompt)
	if err != nil {
		return nil, &CompletionError{Model: g.textModel, Err: err}
	}

	result, err := ParseSummary(text)
	if err != nil {
		g.logger.Warn().
			Err(err).
			Int("response_length", len(text)).
			Msg("Failed to parse summary JSON, using fallback")
		outcome.FallbackText = truncateRunes(text, FallbackMaxLength)
		return outcome, nil
	}

	outcome.Result = result

	g.logger.Info().
		Str("time_desc", timeDesc).
		Int("topic_count", len(result.MainTopics)).
		Str("sentiment", result.Sentiment.String()).
		Msg("Summary generation completed")

	return outcome, nil
}

// AnalyzeImages describes up to maxImages images with the vision model.
// Per-image failures become placeholders; descriptions stay in URL order.
// It returns the joined descriptions and how many images were attempted.
func (g *Generator) AnalyzeImages(ctx context.Context, urls []string) (string, int, error) {
	if g.maxImages <= 0 || len(urls) == 0 {
		return "", 0, nil
	}
	if len(urls) > g.maxImages {
		urls = urls[:g.maxImages]
	}

	descriptions := make([]string, len(urls))

	var eg errgroup.Group
	eg.SetLimit(maxParallelImages)

	for i, url := range urls {
		i, url := i, url
		eg.Go(func() error {
			desc, err := g.describeImage(ctx, url)
			g.metrics.ImageAnalyzed(err == nil)
			if err != nil {
				g.logger.Error().
					Err(err).
					Int("image", i+1).
					Msg("Error analyzing image")
				desc = couldNotAnalyze
			}
			descriptions[i] = fmt.Sprintf("Image %d: %s", i+1, desc)
			return nil
		})
	}
	_ = eg.Wait()

	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	return strings.Join(descriptions, "\n"), len(urls), nil
}

func (g *Generator) describeImage(ctx context.Context, url string) (string, error) {
	data, mimeType, err := g.images.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	desc, err := g.completer.DescribeImage(ctx, g.visionModel, data, mimeType, visionInstruction)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(desc), nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
