package webhook

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const fetchRetries = 3

// HTTPMediaFetcher downloads slip images from the gateway's media store into
// temp files. Downloads are idempotent GETs, so transient failures get a
// bounded retry (unlike the OCR call, which is attempted once).
type HTTPMediaFetcher struct {
	client     *http.Client
	retryDelay time.Duration
}

func NewHTTPMediaFetcher() *HTTPMediaFetcher {
	return &HTTPMediaFetcher{
		client:     &http.Client{Timeout: 20 * time.Second},
		retryDelay: time.Second,
	}
}

func (f *HTTPMediaFetcher) Fetch(ctx context.Context, url string) (string, error) {
	var err error
	for attempt := 1; attempt <= fetchRetries; attempt++ {
		var path string
		path, err = f.fetch(ctx, url)
		if err == nil {
			return path, nil
		}
		log.Printf("Attempt %d to download %s failed: %v", attempt, url, err)
		if attempt < fetchRetries {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", err
}

func (f *HTTPMediaFetcher) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("media store returned status %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp("", "slip-*.jpg")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
