package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	appLog "famcal/internal/log"
)

const (
	defaultCacheDir = "./var/ics-cache"
	defaultTimeout  = 15 * time.Second
	// maxBodyBytes bounds a single feed download.
	maxBodyBytes = 8 << 20
)

// Subscription is one ICS feed the household follows, such as the school
// calendar or the daycare closure calendar.
type Subscription struct {
	ID  string `yaml:"id" json:"id"`
	URL string `yaml:"url" json:"url"`
	// ForChild marks every event of the feed as concerning the child.
	ForChild bool `yaml:"for_child" json:"for_child"`
	// Type is used as the item type when an event has no category.
	Type string `yaml:"type" json:"type"`
}

// FetchResult is the body of one subscription, fresh or cached.
type FetchResult struct {
	Subscription Subscription
	Body         []byte
	FromCache    bool
}

// cacheMeta is the HTTP validator state stored next to a cached body.
type cacheMeta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher downloads feeds with conditional requests and keeps the last
// good body on disk, so a flaky feed does not empty the calendar.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

type FetcherOption func(*Fetcher)

func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// NewFetcher stores per-URL caches under cacheDir.
func NewFetcher(cacheDir string, opts ...FetcherOption) *Fetcher {
	if cacheDir == "" {
		cacheDir = defaultCacheDir
	}
	f := &Fetcher{
		client:   &http.Client{Timeout: defaultTimeout},
		cacheDir: cacheDir,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchAll fetches every subscription. Failures are logged and returned;
// results only hold subscriptions that produced a body.
func (f *Fetcher) FetchAll(ctx context.Context, subs []Subscription) ([]FetchResult, []error) {
	results := make([]FetchResult, 0, len(subs))
	var errs []error
	for _, sub := range subs {
		res, err := f.Fetch(ctx, sub)
		if err != nil {
			errs = append(errs, fmt.Errorf("feed %s: %w", sub.ID, err))
			appLog.Error("ics: fetch failed", err, "feed", sub.ID, "url", redactURL(sub.URL))
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

// Fetch downloads one subscription, honoring ETag and Last-Modified. It
// falls back to the cached body on network errors and non-OK statuses.
func (f *Fetcher) Fetch(ctx context.Context, sub Subscription) (FetchResult, error) {
	if sub.URL == "" {
		return FetchResult{}, errors.New("subscription URL is empty")
	}
	dir := f.cachePath(sub.URL)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return FetchResult{}, fmt.Errorf("create cache dir: %w", err)
	}
	meta, _ := loadMeta(dir)
	cached, _ := os.ReadFile(filepath.Join(dir, "body.ics"))

	fallback := func(reason error) (FetchResult, error) {
		if len(cached) == 0 {
			return FetchResult{}, reason
		}
		appLog.Warn("ics: using cached body", "feed", sub.ID, "url", redactURL(sub.URL), "reason", reason.Error())
		return FetchResult{Subscription: sub, Body: cached, FromCache: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sub.URL, nil)
	if err != nil {
		return FetchResult{}, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	appLog.Debug("ics: fetch start", "feed", sub.ID, "url", redactURL(sub.URL))
	resp, err := f.client.Do(req)
	if err != nil {
		return fallback(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return fallback(err)
		}
		meta = cacheMeta{
			URL:          sub.URL,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		if err := saveCache(dir, meta, body); err != nil {
			appLog.Error("ics: cache save failed", err, "feed", sub.ID)
		}
		appLog.Info("ics: fetched", "feed", sub.ID, "bytes", len(body))
		return FetchResult{Subscription: sub, Body: body}, nil

	case http.StatusNotModified:
		if len(cached) == 0 {
			return FetchResult{}, errors.New("304 Not Modified without a cached body")
		}
		appLog.Debug("ics: not modified", "feed", sub.ID)
		return FetchResult{Subscription: sub, Body: cached, FromCache: true}, nil

	default:
		return fallback(fmt.Errorf("unexpected status %s", resp.Status))
	}
}

// cachePath keys the cache directory on a hash of the URL, which may carry
// a private token.
func (f *Fetcher) cachePath(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func loadMeta(dir string) (cacheMeta, error) {
	var meta cacheMeta
	data, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return meta, err
	}
	err = json.Unmarshal(data, &meta)
	return meta, err
}

func saveCache(dir string, meta cacheMeta, body []byte) error {
	// Body first so the metadata never points at a missing body.
	if err := os.WriteFile(filepath.Join(dir, "body.ics"), body, 0o600); err != nil {
		return err
	}
	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), data, 0o600)
}

// redactURL keeps scheme and host only; feed paths and queries often hold
// private tokens.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
