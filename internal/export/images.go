package export

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// RemoteFetcher downloads images by URL
type RemoteFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, string, error)
}

// ImageFetcher reads exported photos from disk and hands http(s) URLs to remote
type ImageFetcher struct {
	remote RemoteFetcher
}

// NewImageFetcher creates an image fetcher for exports
func NewImageFetcher(remote RemoteFetcher) *ImageFetcher {
	return &ImageFetcher{remote: remote}
}

// Fetch returns the image bytes and MIME type
func (f *ImageFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		if f.remote == nil {
			return nil, "", fmt.Errorf("no remote fetcher for %s", url)
		}
		return f.remote.Fetch(ctx, url)
	}

	data, err := os.ReadFile(url)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}

	return data, http.DetectContentType(data), nil
}
