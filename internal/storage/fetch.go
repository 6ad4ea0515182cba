// Package storage wires the blob-store client and the source fetcher.
package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/alexkarev/imagevault/internal/model"
)

// HTTPFetcher downloads stored bytes by their retrieval URL. The timeout
// bounds the whole request so a slow store cannot pin a transform forever.
type HTTPFetcher struct {
	client *http.Client
}

func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFetchSource, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFetchSource, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Println("Fetcher failed to close response body:", err)
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %d for %q", model.ErrFetchSource, resp.StatusCode, url)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrFetchSource, err)
	}
	return data, nil
}
