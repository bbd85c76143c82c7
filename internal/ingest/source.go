package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves the raw catalog export from its configured source, either
// a local file path or an HTTP(S) URL.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with a bounded request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Fetch opens the catalog source for reading. The caller closes the reader.
func (f *Fetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return f.fetchHTTP(ctx, source)
	}

	file, err := os.Open(source)
	if err != nil {
		return nil, fmt.Errorf("open catalog file: %w", err)
	}
	return file, nil
}

func (f *Fetcher) fetchHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch catalog: unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// IsLocalFile reports whether the source refers to a path on disk rather
// than a URL. Local sources can additionally be watched for changes.
func IsLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}
