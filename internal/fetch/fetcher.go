// Package fetch retrieves web pages for link sources.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"docsage/internal/contextutil"
	"docsage/internal/loader"
)

// ErrFetchFailed is returned when a link cannot be retrieved or yields no text.
// It is distinct from the loader's format errors: a failed fetch never
// produces a record.
var ErrFetchFailed = errors.New("failed to fetch link")

// userAgent is sent with every request; some sites reject requests
// without a browser-like User-Agent.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/86.0.4240.111 Safari/537.36"

// maxBodySize caps how much of a response body is read (8 MiB).
const maxBodySize = 8 << 20

// Fetcher retrieves a URL and extracts its readable text.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a new Fetcher with a default timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch retrieves the page at url and returns a single record whose metadata
// source is the URL. Network errors, non-2xx statuses and pages with no
// extractable text all fail with ErrFetchFailed.
func (f *Fetcher) Fetch(ctx context.Context, url string) (loader.Record, error) {
	logger := contextutil.LoggerFromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return loader.Record{}, fmt.Errorf("%w: invalid URL %s: %s", ErrFetchFailed, url, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		logger.WarnContext(ctx, "link fetch failed", "url", url, "error", err)
		return loader.Record{}, fmt.Errorf("%w: %s: %s", ErrFetchFailed, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.WarnContext(ctx, "link fetch returned bad status", "url", url, "status", resp.StatusCode)
		return loader.Record{}, fmt.Errorf("%w: %s: status %d", ErrFetchFailed, url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return loader.Record{}, fmt.Errorf("%w: %s: %s", ErrFetchFailed, url, err)
	}

	text := loader.HTMLText(string(body))
	if text == "" {
		logger.WarnContext(ctx, "link yielded no text", "url", url)
		return loader.Record{}, fmt.Errorf("%w: %s: page has no extractable text", ErrFetchFailed, url)
	}

	logger.InfoContext(ctx, "fetched link", "url", url, "text_length", len(text))
	return loader.Record{
		Content:  text,
		Metadata: map[string]string{"source": url},
	}, nil
}
