package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/chat-history-bot/internal/metrics"
	"github.com/chat-history-bot/internal/models"
	"github.com/rs/zerolog"
)

// Completer is a text and vision completion service
type Completer interface {
	// Complete sends a single user prompt and returns the model's text
	Complete(ctx context.Context, model, prompt string) (string, error)

	// DescribeImage asks a vision model about one image
	DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error)
}

// Client wraps a completion backend with the configured timeout, logging and metrics
type Client struct {
	backend Completer
	timeout time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewClient creates the completion client for the configured provider
func NewClient(config *models.BotConfig, m *metrics.Metrics, logger zerolog.Logger) (*Client, error) {
	var backend Completer

	switch config.LLMProvider {
	case models.ProviderGemini:
		backend = NewGeminiBackend(config.GeminiAPIKey, logger)
	case models.ProviderOpenAI:
		backend = NewOpenAIBackend(config.OpenAIBaseURL, config.OpenAIAPIKey)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", config.LLMProvider)
	}

	return Wrap(backend, time.Duration(config.LLMTimeout)*time.Second, m, logger), nil
}

// Wrap decorates an existing backend. A zero timeout leaves calls unbounded.
func Wrap(backend Completer, timeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Client {
	return &Client{
		backend: backend,
		timeout: timeout,
		metrics: m,
		logger:  logger.With().Str("component", "llm").Logger(),
	}
}

// Close releases backend resources
func (c *Client) Close() error {
	if closer, ok := c.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Complete generates a text response from the model
func (c *Client) Complete(ctx context.Context, model, prompt string) (string, error) {
	startTime := time.Now()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	c.logger.Debug().
		Str("model", model).
		Int("prompt_length", len(prompt)).
		Msg("Sending request to LLM")

	text, err := c.backend.Complete(ctx, model, prompt)
	c.metrics.CompletionObserved("text", time.Since(startTime), err)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("model", model).
			Dur("duration", time.Since(startTime)).
			Msg("LLM request failed")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text = strings.TrimSpace(text)

	c.logger.Info().
		Str("model", model).
		Int("response_length", len([]rune(text))).
		Dur("duration", time.Since(startTime)).
		Msg("LLM response generated successfully")

	return text, nil
}

// DescribeImage asks the vision model about one image
func (c *Client) DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error) {
	startTime := time.Now()

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	text, err := c.backend.DescribeImage(ctx, model, image, mimeType, instruction)
	c.metrics.CompletionObserved("vision", time.Since(startTime), err)
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}

	c.logger.Debug().
		Str("model", model).
		Int("image_size", len(image)).
		Str("mime_type", mimeType).
		Dur("duration", time.Since(startTime)).
		Msg("Image described")

	return strings.TrimSpace(text), nil
}
