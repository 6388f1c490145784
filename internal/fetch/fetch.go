// Package fetch retrieves remote calendar-feed text. It is the only
// networked collaborator of the engine: bounded timeout, conditional
// requests, and a guard against probing internal hosts. Parsing is
// elsewhere; this package returns raw bytes.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	applog "weekplan/internal/log"
)

const (
	defaultTimeout = 15 * time.Second
	userAgent      = "weekplan/1.0 (calendar-sync)"

	// maxBodyBytes bounds a hostile feed's payload.
	maxBodyBytes = 8 << 20
)

// cacheEntry keeps conditional-request state plus the last good body,
// so a 304 (or a transient network error) can reuse it.
type cacheEntry struct {
	etag         string
	lastModified string
	body         []byte
}

// Fetcher downloads feed payloads with per-URL conditional caching.
type Fetcher struct {
	client *http.Client

	// AllowLocal disables the internal-host guard. Loopback feeds are
	// only legitimate when pointing the daemon at a calendar served on
	// the same machine.
	AllowLocal bool

	mu    sync.Mutex
	cache map[string]*cacheEntry
}

// New creates a Fetcher. A non-positive timeout selects the default.
func New(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		cache:  make(map[string]*cacheEntry),
	}
}

// ValidateURL rejects subscription URLs the sync loop must never
// touch: non-HTTP schemes and loopback or private-network hosts.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid feed URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("feed URL must use http or https, got %q", u.Scheme)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return errors.New("feed URL has no host")
	}
	if host == "localhost" || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("feed host %q is not allowed", host)
	}
	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			return fmt.Errorf("feed host %q is not allowed", host)
		}
	}
	return nil
}

// Fetch downloads one feed. A 304 answers from cache; any other
// non-2xx status or transport failure is an error for this cycle (the
// caller decides whether to surface or swallow it).
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if !f.AllowLocal {
		if err := ValidateURL(rawURL); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	f.mu.Lock()
	entry := f.cache[rawURL]
	if entry != nil {
		if entry.etag != "" {
			req.Header.Set("If-None-Match", entry.etag)
		}
		if entry.lastModified != "" {
			req.Header.Set("If-Modified-Since", entry.lastModified)
		}
	}
	f.mu.Unlock()

	applog.Debug("feed fetch start", "url", RedactURL(rawURL))

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", RedactURL(rawURL), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		if entry == nil || len(entry.body) == 0 {
			return nil, errors.New("got 304 with no cached body")
		}
		applog.Debug("feed not modified, using cached body", "url", RedactURL(rawURL))
		return entry.body, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", RedactURL(rawURL), err)
		}
		f.mu.Lock()
		f.cache[rawURL] = &cacheEntry{
			etag:         resp.Header.Get("ETag"),
			lastModified: resp.Header.Get("Last-Modified"),
			body:         body,
		}
		f.mu.Unlock()
		return body, nil

	default:
		return nil, fmt.Errorf("fetch %s: unexpected status %s", RedactURL(rawURL), resp.Status)
	}
}

// RedactURL trims a feed URL to its host for logging; subscription
// paths often embed private tokens.
func RedactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "(unparseable url)"
	}
	return u.Scheme + "://" + u.Host + "/..."
}
