package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Fetcher resolves URL-sourced asset payloads into bytes. maxBytes caps
// the download size; zero means no cap.
type Fetcher interface {
	Fetch(ctx context.Context, url string, maxBytes int64) (data []byte, mediaType string, err error)
}

// HTTPFetcher fetches asset payloads over plain HTTP GET.
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with a dedicated HTTP client.
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Fetch downloads the payload at url, enforcing the size cap while reading.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string, maxBytes int64) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	reader := io.Reader(resp.Body)
	if maxBytes > 0 {
		// Read one extra byte so an at-cap payload is distinguishable
		// from an over-cap one.
		reader = io.LimitReader(resp.Body, maxBytes+1)
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", err
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("fetch %s: %w (cap %d bytes)", url, ErrPayloadTooLarge, maxBytes)
	}

	return data, resp.Header.Get("Content-Type"), nil
}
