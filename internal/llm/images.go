package llm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxImageSize caps a single downloaded image
const maxImageSize = 20 << 20

// HTTPImageFetcher downloads images over HTTP
type HTTPImageFetcher struct {
	client *http.Client
}

// NewHTTPImageFetcher creates an image fetcher. A nil client means http.DefaultClient.
func NewHTTPImageFetcher(client *http.Client) *HTTPImageFetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPImageFetcher{client: client}
}

// Fetch downloads an image and returns its bytes and MIME type.
// Any status other than 200 is an error.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}

	return data, mimeType, nil
}
