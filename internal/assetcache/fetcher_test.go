package assetcache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginFetcher(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/app.js":
			w.Header().Set("Content-Type", "text/javascript")
			w.Write([]byte("console.log('hi')"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer origin.Close()

	f := NewOriginFetcher(origin.URL + "/")

	res, err := f.Fetch(context.Background(), "/app.js")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if res.Status != 200 {
		t.Errorf("status = %d, want 200", res.Status)
	}
	if res.ContentType != "text/javascript" {
		t.Errorf("content type = %q", res.ContentType)
	}
	if string(res.Body) != "console.log('hi')" {
		t.Errorf("body = %q", res.Body)
	}

	// Non-200 responses come back as resources, not errors; the caller
	// decides what to do with them.
	res, err = f.Fetch(context.Background(), "/missing.css")
	if err != nil {
		t.Fatalf("fetch missing: %v", err)
	}
	if res.Status != 404 {
		t.Errorf("status = %d, want 404", res.Status)
	}
}

func TestOriginFetcherDeadOrigin(t *testing.T) {
	origin := httptest.NewServer(http.NotFoundHandler())
	origin.Close() // dead immediately

	f := NewOriginFetcher(origin.URL)
	if _, err := f.Fetch(context.Background(), "/app.js"); err == nil {
		t.Fatal("expected error fetching from a closed origin")
	}
}
