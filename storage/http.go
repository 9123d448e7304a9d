package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxBlobSize caps a single remote object
const DefaultMaxBlobSize = 16 << 20

// HTTPTier reads objects from an object store exposed over plain HTTP
// (a public S3 bucket endpoint, a CDN or a static file server): key k is GET {base}/k.
type HTTPTier struct {
	base    string
	client  *http.Client
	maxSize int64
}

func NewHTTPTier(baseURL string, timeout time.Duration) *HTTPTier {
	return &HTTPTier{
		base:    strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		maxSize: DefaultMaxBlobSize,
	}
}

// SetMaxSize changes the body size limit. n <= 0 restores the default.
func (t *HTTPTier) SetMaxSize(n int64) {
	if n <= 0 {
		n = DefaultMaxBlobSize
	}
	t.maxSize = n
}

func (t *HTTPTier) Name() string { return "object-store" }

func (t *HTTPTier) Get(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	target := t.base + "/" + strings.Join(parts, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", key, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", key, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching %s: unexpected status %d", key, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, t.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if int64(len(data)) > t.maxSize {
		return nil, fmt.Errorf("object %s exceeds %d bytes", key, t.maxSize)
	}
	return data, nil
}
