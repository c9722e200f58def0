// Package imagestore handles item icon binaries: downloading them from the
// Hi-Rez CDN, compressing them to small JPEGs, and archiving originals.
// Row-level content-addressed deduplication lives in the repository layer;
// everything here is either pure or talks to the outside world.
package imagestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Hi-Rez item icon CDN.
const DefaultBaseURL = "https://webcdn.hirezstudios.com/smite/item-icons"

// fetchDelay spaces consecutive CDN requests. The CDN is a third party we
// scrape politely.
const fetchDelay = 250 * time.Millisecond

type Fetcher struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger

	mu        sync.Mutex
	lastFetch time.Time
}

func NewFetcher(baseURL string, log *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}
}

// FetchOrNone downloads the icon bytes for filename. Any failure (network,
// 4xx, 5xx) is logged and reported as nil: a missing icon is expected and
// never fatal to ingestion.
func (f *Fetcher) FetchOrNone(ctx context.Context, filename string) []byte {
	f.throttle()

	data, err := f.fetch(ctx, filename)
	if err != nil {
		f.log.Warn("icon download failed", zap.String("image", filename), zap.Error(err))
		return nil
	}
	f.log.Debug("icon downloaded", zap.String("image", filename), zap.Int("bytes", len(data)))
	return data
}

func (f *Fetcher) fetch(ctx context.Context, filename string) ([]byte, error) {
	url := f.baseURL + "/" + filename
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

func (f *Fetcher) throttle() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if wait := fetchDelay - time.Since(f.lastFetch); wait > 0 {
		time.Sleep(wait)
	}
	f.lastFetch = time.Now()
}
