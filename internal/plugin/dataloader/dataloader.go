// Package dataloader implements the built-in Loader plugin. It resolves
// front-matter `input` references into inline data: URLs are fetched with a
// bounded wait and cached per revalidate interval, paths are read as JSON
// files relative to the collection root.
package dataloader

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/sitetree/internal/cache"
	"git.home.luguber.info/inful/sitetree/internal/metrics"
	"git.home.luguber.info/inful/sitetree/internal/plugin"
)

const maxResponseBytes = 10 * 1024 * 1024

// Options configures the loader. The zero value uses the defaults below.
type Options struct {
	// DefaultRevalidate is the cache lifetime for fetched URLs when the
	// input does not carry its own revalidate value. Default 1h.
	DefaultRevalidate time.Duration

	// FetchTimeout bounds a single network fetch; the in-flight request is
	// cancelled when it elapses. Default 5s.
	FetchTimeout time.Duration

	// HTTPClient overrides the client used for fetches (tests).
	HTTPClient *http.Client

	// PersistPath, when set, backs the URL cache with a SQLite store that
	// survives across runs.
	PersistPath string

	// Metrics counts fetch outcomes; defaults to the no-op recorder.
	Metrics metrics.Recorder
}

// Loader is the built-in data loader plugin.
type Loader struct {
	plugin.Base

	opts    Options
	client  *http.Client
	cache   *cache.Cache[string, any]
	persist *cache.SQLiteStore
}

// New creates the loader with the given options.
func New(opts Options) *Loader {
	if opts.DefaultRevalidate <= 0 {
		opts.DefaultRevalidate = time.Hour
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Loader{
		opts:   opts,
		client: client,
		cache:  cache.New[string, any](),
	}
}

// Name implements plugin.Plugin.
func (l *Loader) Name() string { return "data-loader" }

// BeforeCollect clears the run-scoped cache and, when persistence is
// configured, opens the store and drops expired rows. The persistent store
// keeps fetched payloads across runs independent of the in-memory cache.
func (l *Loader) BeforeCollect(ctx *plugin.Context) error {
	l.cache.Clear()

	if l.opts.PersistPath == "" || l.persist != nil {
		return nil
	}
	store, err := cache.OpenSQLiteStore(l.opts.PersistPath)
	if err != nil {
		return fmt.Errorf("data-loader: open persistent cache: %w", err)
	}
	if err := store.Purge(context.Background()); err != nil {
		_ = store.Close()
		return fmt.Errorf("data-loader: purge persistent cache: %w", err)
	}
	l.persist = store
	return nil
}

// AfterCollect is a no-op; the persistent store stays open for reuse by
// subsequent runs of the same process.
func (l *Loader) AfterCollect(*plugin.Context) error { return nil }

// LoadData implements plugin.Loader. It dispatches on the shape of source
// and declines anything it does not understand. Failures are reported to
// the run's error log and resolve to nil (or the configured fallback)
// instead of propagating.
func (l *Loader) LoadData(source any, ctx *plugin.Context) (any, error) {
	switch src := source.(type) {
	case string:
		if isAbsoluteURL(src) {
			return l.loadURL(ctx, src, l.opts.DefaultRevalidate), nil
		}
		return l.loadFile(ctx, src), nil
	case map[string]any:
		return l.loadStructured(ctx, src), nil
	default:
		return nil, nil
	}
}

func (l *Loader) loadStructured(ctx *plugin.Context, src map[string]any) any {
	revalidate := l.opts.DefaultRevalidate
	if secs, ok := asInt(src["revalidate"]); ok && secs > 0 {
		revalidate = time.Duration(secs) * time.Second
	}

	if u, ok := src["url"].(string); ok && u != "" {
		if data := l.loadURL(ctx, u, revalidate); data != nil {
			return data
		}
		if fb, ok := src["fallback"].(string); ok && fb != "" {
			return l.loadFile(ctx, fb)
		}
		return nil
	}

	if p, ok := src["path"].(string); ok && p != "" {
		return l.loadFile(ctx, p)
	}
	return nil
}

func (l *Loader) loadURL(ctx *plugin.Context, rawURL string, revalidate time.Duration) any {
	key := "url:" + rawURL
	if cached, ok := l.cache.Get(key); ok {
		return cached
	}
	if data, ok := l.persistentGet(key); ok {
		l.cache.SetTTL(key, data, revalidate)
		return data
	}

	body, err := l.fetch(rawURL)
	if err != nil {
		l.opts.Metrics.IncLoaderFetch(false)
		l.ReportError(ctx, l.Name(), fmt.Errorf("fetch %s: %w", rawURL, err))
		return nil
	}
	l.opts.Metrics.IncLoaderFetch(true)

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		l.ReportError(ctx, l.Name(), fmt.Errorf("decode %s: %w", rawURL, err))
		return nil
	}

	l.cache.SetTTL(key, data, revalidate)
	l.persistentPut(ctx, key, body, revalidate)
	return data
}

func (l *Loader) loadFile(ctx *plugin.Context, path string) any {
	resolved := path
	if !filepath.IsAbs(resolved) && ctx.ResourcePath != "" {
		resolved = filepath.Join(ctx.ResourcePath, resolved)
	}

	raw, err := os.ReadFile(filepath.Clean(resolved))
	if err != nil {
		l.ReportError(ctx, l.Name(), fmt.Errorf("read %s: %w", path, err))
		return nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		l.ReportError(ctx, l.Name(), fmt.Errorf("decode %s: %w", path, err))
		return nil
	}
	return data
}

// fetch performs one bounded HTTP GET. The request is cancelled when
// FetchTimeout elapses.
func (l *Loader) fetch(rawURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.opts.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxResponseBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response larger than %d bytes", maxResponseBytes)
	}
	return body, nil
}

func (l *Loader) persistentGet(key string) (any, bool) {
	if l.persist == nil {
		return nil, false
	}
	payload, ok, err := l.persist.Get(context.Background(), key)
	if err != nil || !ok {
		return nil, false
	}
	var data any
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, false
	}
	return data, true
}

func (l *Loader) persistentPut(ctx *plugin.Context, key string, payload []byte, ttl time.Duration) {
	if l.persist == nil {
		return
	}
	if err := l.persist.Put(context.Background(), key, payload, ttl); err != nil {
		l.ReportError(ctx, l.Name(), fmt.Errorf("persist %s: %w", key, err))
	}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
