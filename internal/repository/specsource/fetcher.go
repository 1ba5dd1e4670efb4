// Package specsource retrieves raw specification text from HTTP(S) URLs
// or local filesystem paths.
package specsource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/harbormind/specdex/internal/domain"
)

// DefaultTimeout bounds a single remote fetch.
const DefaultTimeout = 30 * time.Second

// Fetcher loads raw spec documents. Network and filesystem failures come
// back as typed errors wrapping domain.ErrSpecUnavailable.
type Fetcher struct {
	client *http.Client
}

// New creates a fetcher; timeout <= 0 falls back to DefaultTimeout.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves source, treating http/https URLs as remote documents
// and everything else as a local file path.
func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if u, err := url.Parse(source); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.fetchURL(ctx, source)
	}
	return f.fetchFile(source)
}

func (f *Fetcher) fetchURL(ctx context.Context, specURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, specURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %s", domain.ErrSpecUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %s", domain.ErrSpecUnavailable, specURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: fetch %s: HTTP %d", domain.ErrSpecUnavailable, specURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %s", domain.ErrSpecUnavailable, specURL, err)
	}
	return body, nil
}

func (f *Fetcher) fetchFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %s", domain.ErrSpecUnavailable, path, err)
	}
	return data, nil
}
