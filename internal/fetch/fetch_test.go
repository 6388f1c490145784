package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	valid := []string{
		"https://calendar.google.com/calendar/ical/abc/basic.ics",
		"http://feeds.example.edu/term.ics",
	}
	for _, u := range valid {
		assert.NoError(t, ValidateURL(u), u)
	}

	invalid := []string{
		"webcal://example.com/feed.ics",
		"ftp://example.com/feed.ics",
		"file:///etc/passwd",
		"https://localhost/feed.ics",
		"https://LOCALHOST:8443/feed.ics",
		"https://printer.local/feed.ics",
		"http://127.0.0.1/feed.ics",
		"http://10.0.0.5/feed.ics",
		"http://192.168.1.1/feed.ics",
		"http://169.254.1.1/feed.ics",
		"http://0.0.0.0/feed.ics",
		"http://[::1]/feed.ics",
		"https:///feed.ics",
	}
	for _, u := range invalid {
		assert.Error(t, ValidateURL(u), u)
	}
}

func TestFetch_SuccessAndConditionalReuse(t *testing.T) {
	const body = "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		w.Write([]byte(body))
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	f.AllowLocal = true

	got, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))

	// Second fetch goes conditional and answers from cache.
	got, err = f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	assert.Equal(t, 2, hits)
}

func TestFetch_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	f.AllowLocal = true

	_, err := f.Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetch_304WithoutCacheIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	f := New(5 * time.Second)
	f.AllowLocal = true

	_, err := f.Fetch(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetch_GuardBlocksLocalByDefault(t *testing.T) {
	f := New(time.Second)
	_, err := f.Fetch(context.Background(), "http://127.0.0.1:9/feed.ics")
	assert.Error(t, err, "loopback target rejected before any dial")
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	f := New(30 * time.Second)
	f.AllowLocal = true

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.google.com/...",
		RedactURL("https://calendar.google.com/calendar/ical/secret-token/basic.ics"))
	assert.Equal(t, "(unparseable url)", RedactURL("::not a url::"))
}
