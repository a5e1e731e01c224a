package ics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	appLog "icsweek/internal/log"
)

// DefaultProxyURL is the CORS relay used when a direct download fails.
// %s receives the query-escaped feed URL.
const DefaultProxyURL = "https://api.allorigins.win/raw?url=%s"

const defaultTimeout = 15 * time.Second

// FetchResult contains the outcome of fetching a single ICS feed.
type FetchResult struct {
	URL       string
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused a cached body
	ViaProxy  bool   // true if the relay proxy served the body
}

// FetcherOptions configures a Fetcher.
type FetcherOptions struct {
	// ProxyURL is a fmt template with a single %s for the escaped feed URL.
	// Empty disables the fallback.
	ProxyURL string

	// CacheDir enables the ETag / Last-Modified disk cache when non-empty.
	CacheDir string

	// Timeout bounds each HTTP request. Zero means 15s.
	Timeout time.Duration

	// Client overrides the HTTP client (tests).
	Client *http.Client
}

// Fetcher downloads ICS feeds, retrying once through a relay proxy and
// optionally keeping a disk-backed conditional-request cache.
type Fetcher struct {
	client   *http.Client
	proxyURL string
	cache    *feedCache // nil when caching is off
}

// NewFetcher creates a new ICS Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	f := &Fetcher{client: client, proxyURL: opts.ProxyURL}
	if opts.CacheDir != "" {
		f.cache = &feedCache{dir: opts.CacheDir}
	}
	return f
}

// Fetch downloads rawURL. A transport error or non-2xx status on the direct
// request is retried exactly once through the proxy; if that fails too a
// *FetchError is returned (or the cached body, when the cache has one).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (FetchResult, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return FetchResult{}, errors.New("feed URL is empty")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return FetchResult{}, fmt.Errorf("invalid feed URL: %w", err)
	}

	meta, cachedBody := f.cache.lookup(rawURL)

	appLog.Info("ics fetch start", "url", redactURL(rawURL))

	res, directErr := f.get(ctx, rawURL, rawURL, meta, cachedBody)
	if directErr == nil {
		f.storeIfFresh(res)
		return res.FetchResult, nil
	}

	fetchErr := &FetchError{URL: redactURL(rawURL), Direct: directErr}
	if f.proxyURL != "" && ctx.Err() == nil {
		appLog.Warn("ics direct fetch failed, retrying via proxy", "url", redactURL(rawURL), "err", directErr)
		proxied := fmt.Sprintf(f.proxyURL, url.QueryEscape(rawURL))
		// No conditional headers through the relay; it does not forward them reliably.
		res, proxyErr := f.get(ctx, proxied, rawURL, cacheEntry{}, nil)
		if proxyErr == nil {
			res.ViaProxy = true
			f.storeIfFresh(res)
			return res.FetchResult, nil
		}
		fetchErr.Fallback = proxyErr
	}

	if len(cachedBody) > 0 {
		appLog.Error("ics fetch failed, using cached body", fetchErr, "url", redactURL(rawURL))
		return FetchResult{URL: rawURL, Body: cachedBody, FromCache: true}, nil
	}
	return FetchResult{}, fetchErr
}

type response struct {
	FetchResult
	meta  cacheEntry
	fresh bool
}

func (f *Fetcher) get(ctx context.Context, target, feedURL string, meta cacheEntry, cachedBody []byte) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return response{}, err
	}
	req.Header.Set("Accept", "text/calendar, text/plain, */*")

	// Conditional headers from cache metadata.
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified && len(cachedBody) > 0:
		appLog.Info("ics fetch not modified; using cache", "url", redactURL(feedURL))
		return response{FetchResult: FetchResult{URL: feedURL, Body: cachedBody, FromCache: true}}, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return response{}, err
		}
		appLog.Info("ics fetch success", "url", redactURL(feedURL), "status", resp.StatusCode, "bytes", len(body))
		return response{
			FetchResult: FetchResult{URL: feedURL, Body: body},
			meta: cacheEntry{
				URL:          feedURL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			},
			fresh: true,
		}, nil

	default:
		return response{}, fmt.Errorf("HTTP %s", resp.Status)
	}
}

func (f *Fetcher) storeIfFresh(res response) {
	if f.cache == nil || !res.fresh || len(res.Body) == 0 {
		return
	}
	if err := f.cache.store(res.URL, res.meta, res.Body); err != nil {
		appLog.Error("ics cache save failed", err, "url", redactURL(res.URL))
	}
}

// redactURL hides sensitive parts of an ICS URL for logging purposes.
// Private calendar links usually embed a token in the path or query.
//
//	https://example.com/path/to/private.ics?token=abcd
//	-> https://example.com/...(redacted)
//
// Values without a scheme (file paths, "-") are returned unchanged.
func redactURL(u string) string {
	const redactedSuffix = "/...(redacted)"

	i := strings.Index(u, "://")
	if i == -1 {
		return u
	}
	i += 3

	// Find next slash after host.
	j := i
	for j < len(u) && u[j] != '/' && u[j] != '?' {
		j++
	}
	if j == len(u) {
		return u
	}
	return u[:j] + redactedSuffix
}
