package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// GeminiBackend talks to Google Gemini
type GeminiBackend struct {
	apiKey      string
	logger      zerolog.Logger
	genaiClient *genai.Client
	mu          sync.Mutex
}

// NewGeminiBackend creates a new Gemini backend. The API client is created on first use.
func NewGeminiBackend(apiKey string, logger zerolog.Logger) *GeminiBackend {
	return &GeminiBackend{
		apiKey: apiKey,
		logger: logger.With().Str("component", "gemini").Logger(),
	}
}

// getClient returns or creates a genai client (thread-safe)
func (g *GeminiBackend) getClient(ctx context.Context) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.genaiClient != nil {
		return g.genaiClient, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	g.genaiClient = client
	g.logger.Info().Msg("Gemini client created and cached")
	return g.genaiClient, nil
}

// Close closes the Gemini client and releases resources
func (g *GeminiBackend) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.genaiClient != nil {
		err := g.genaiClient.Close()
		g.genaiClient = nil
		if err != nil {
			g.logger.Error().Err(err).Msg("Failed to close Gemini client")
			return err
		}
		g.logger.Info().Msg("Gemini client closed")
	}
	return nil
}

// Complete implements Completer
func (g *GeminiBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	return g.generate(ctx, model, genai.Text(prompt))
}

// DescribeImage implements Completer
func (g *GeminiBackend) DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" || format == mimeType {
		format = "jpeg"
	}
	return g.generate(ctx, model, genai.ImageData(format, image), genai.Text(instruction))
}

func (g *GeminiBackend) generate(ctx context.Context, modelName string, parts ...genai.Part) (string, error) {
	client, err := g.getClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(modelName)

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", err
	}

	// Extract text from response
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates from LLM")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content parts in response")
	}

	// Extract text from all parts
	var responseText strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	return responseText.String(), nil
}
