package tollmatrix

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fetcher retrieves the raw bytes of a matrix source by locator
type Fetcher interface {
	Fetch(ctx context.Context, locator string) (io.ReadCloser, error)
}

// defaultFetcher resolves http(s) URLs over the network and anything else
// as a local file path
type defaultFetcher struct {
	httpClient *http.Client
}

func newDefaultFetcher() *defaultFetcher {
	return &defaultFetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (f *defaultFetcher) Fetch(ctx context.Context, locator string) (io.ReadCloser, error) {
	if strings.HasPrefix(locator, "http://") || strings.HasPrefix(locator, "https://") {
		return f.fetchHTTP(ctx, locator)
	}

	file, err := os.Open(locator)
	if err != nil {
		return nil, err
	}
	return file, nil
}

func (f *defaultFetcher) fetchHTTP(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP error %d fetching %s", resp.StatusCode, url)
	}

	return resp.Body, nil
}
