package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxCatalogBytes bounds a single catalog download.
const maxCatalogBytes = 32 << 20

// HTTPSource fetches the catalog CSV from a URL.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates an HTTPSource. A timeout of 0 means no client timeout;
// the caller's context still applies.
func NewHTTPSource(url string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{url: url, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSource) Name() string { return s.url }

// Fetch downloads the whole file. Any non-200 status is an error.
func (s *HTTPSource) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d for %s", resp.StatusCode, s.url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCatalogBytes+1))
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxCatalogBytes {
		return "", fmt.Errorf("catalog larger than %d bytes", maxCatalogBytes)
	}
	return string(body), nil
}
