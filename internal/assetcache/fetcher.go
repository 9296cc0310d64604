package assetcache

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OriginFetcher retrieves resources from an upstream HTTP origin.
type OriginFetcher struct {
	base   string
	client *http.Client
}

// NewOriginFetcher fetches from baseURL (no trailing slash required).
func NewOriginFetcher(baseURL string) *OriginFetcher {
	return &OriginFetcher{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

func (f *OriginFetcher) Fetch(ctx context.Context, path string) (*Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &Resource{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		Status:      resp.StatusCode,
	}, nil
}
