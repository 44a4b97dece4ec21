package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	text        string
	err         error
	hasDeadline bool
}

func (f *fakeBackend) Complete(ctx context.Context, model, prompt string) (string, error) {
	_, f.hasDeadline = ctx.Deadline()
	return f.text, f.err
}

func (f *fakeBackend) DescribeImage(ctx context.Context, model string, image []byte, mimeType, instruction string) (string, error) {
	_, f.hasDeadline = ctx.Deadline()
	return f.text, f.err
}

func TestClientTimeoutIsOptional(t *testing.T) {
	backend := &fakeBackend{text: "  hello \n"}

	unbounded := Wrap(backend, 0, nil, zerolog.Nop())
	text, err := unbounded.Complete(context.Background(), "m", "p")
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.False(t, backend.hasDeadline)

	bounded := Wrap(backend, time.Minute, nil, zerolog.Nop())
	_, err = bounded.DescribeImage(context.Background(), "m", []byte{1}, "image/png", "describe")
	require.NoError(t, err)
	assert.True(t, backend.hasDeadline)
}

func TestClientWrapsErrors(t *testing.T) {
	cause := errors.New("model not found")
	client := Wrap(&fakeBackend{err: cause}, 0, nil, zerolog.Nop())

	_, err := client.Complete(context.Background(), "m", "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestOpenAIBackendComplete(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"overview\":\"ok\"}"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	backend := NewOpenAIBackend(server.URL+"/v1", "ollama")
	text, err := backend.Complete(context.Background(), "gpt-oss:20b-cloud", "summarize this")
	require.NoError(t, err)
	assert.Equal(t, `{"overview":"ok"}`, text)

	assert.Equal(t, "gpt-oss:20b-cloud", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.JSONEq(t, `"summarize this"`, string(got.Messages[0].Content))
}

func TestOpenAIBackendDescribeImageSendsDataURL(t *testing.T) {
	var body string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"A cat on a sofa."}}]}`))
	}))
	defer server.Close()

	backend := NewOpenAIBackend(server.URL, "key")
	text, err := backend.DescribeImage(context.Background(), "llava", []byte("png-bytes"), "image/png", "Describe this image briefly in one sentence.")
	require.NoError(t, err)
	assert.Equal(t, "A cat on a sofa.", text)
	assert.Contains(t, body, "data:image/png;base64,")
	assert.Contains(t, body, "Describe this image briefly in one sentence.")
}

func TestOpenAIBackendNoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := NewOpenAIBackend(server.URL, "key").Complete(context.Background(), "m", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no response choices")
}

func TestHTTPImageFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\nrest"))
		case "/untyped":
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write([]byte("GIF89a..."))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcher(server.Client())

	data, mimeType, err := fetcher.Fetch(context.Background(), server.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.True(t, strings.HasPrefix(string(data), "\x89PNG"))

	_, mimeType, err = fetcher.Fetch(context.Background(), server.URL+"/untyped")
	require.NoError(t, err)
	assert.Equal(t, "image/gif", mimeType)

	_, _, err = fetcher.Fetch(context.Background(), server.URL+"/missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}
