package llm

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to an OpenAI-compatible chat completion API.
// Ollama serves this API under /v1, which is the default endpoint.
type OpenAIBackend struct {
	client *openai.Client
}

// NewOpenAIBackend creates a backend for the given base URL
func NewOpenAIBackend(baseURL, apiKey string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
	}
}

// Complete implements Completer
func (o *OpenAIBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	return o.chat(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
}

// DescribeImage implements Completer. The image is sent inline as a data URL.
func (o *OpenAIBackend) DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image))

	return o.chat(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: instruction},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailLow,
						},
					},
				},
			},
		},
	})
}

func (o *OpenAIBackend) chat(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}

	return resp.Choices[0].Message.Content, nil
}
