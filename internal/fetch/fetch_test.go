package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"
)

func TestRetrieveReusesFreshFile(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("%PDF-1.4\nHello"))
	}))
	t.Cleanup(server.Close)

	retriever, err := New(server.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	path, err := retriever.Retrieve(ctx, server.URL+"/papers/report.pdf")
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("cached file missing: %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected single download, got %d hits", hits)
	}

	path2, err := retriever.Retrieve(ctx, server.URL+"/papers/report.pdf")
	if err != nil {
		t.Fatalf("second retrieve: %v", err)
	}
	if path != path2 {
		t.Fatalf("paths differ: %s vs %s", path, path2)
	}
	if hits != 1 {
		t.Fatalf("cache miss triggered download, total hits %d", hits)
	}
}

func TestRetrieveRevalidatesStaleFile(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	var conditional int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional++
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Etag", `"v1"`)
		_, _ = w.Write([]byte("%PDF-1.4\nHello"))
	}))
	t.Cleanup(server.Close)

	retriever, err := New(server.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	path, err := retriever.Retrieve(ctx, server.URL+"/report.pdf")
	if err != nil {
		t.Fatalf("initial retrieve: %v", err)
	}

	// Age the cached copy past the TTL so the next call revalidates.
	old := time.Now().Add(-2 * cacheTTL)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("age cached file: %v", err)
	}

	if _, err := retriever.Retrieve(ctx, server.URL+"/report.pdf"); err != nil {
		t.Fatalf("revalidating retrieve: %v", err)
	}
	if conditional != 1 {
		t.Fatalf("expected one conditional request, got %d", conditional)
	}
}

func TestRetrieveSurfacesServerError(t *testing.T) {
	t.Setenv(cacheEnvVar, t.TempDir())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	t.Cleanup(server.Close)

	retriever, err := New(server.Client())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := retriever.Retrieve(context.Background(), server.URL+"/missing.pdf"); err == nil {
		t.Fatal("expected download error")
	} else if !strings.Contains(err.Error(), "410") {
		t.Fatalf("error should carry the status: %v", err)
	}
}

func TestIsURL(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"https://example.com/a.pdf", true},
		{"http://example.com/a.pdf", true},
		{"/home/user/a.pdf", false},
		{"a.pdf", false},
	}
	for _, tc := range cases {
		if got := IsURL(tc.in); got != tc.want {
			t.Fatalf("IsURL(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCacheKeyStaysReadable(t *testing.T) {
	key := cacheKey("https://example.com/papers/attention.pdf")
	if !strings.HasPrefix(key, "attention-") {
		t.Fatalf("key should keep the document stem: %s", key)
	}
	if cacheKey("https://example.com/") == "" {
		t.Fatal("bare URL should still produce a key")
	}
}
