package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Stdin(t *testing.T) {
	t.Parallel()

	f := New(http.DefaultClient, time.Second)
	html, err := f.Load(context.Background(), Input{Stdin: bytes.NewBufferString("<p>x</p>")}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if html != "<p>x</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoad_FileBeatsStdin verifies source precedence when both are given.
func TestLoad_FileBeatsStdin(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(path, []byte("<p>file</p>"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	html, err := New(nil, time.Second).Load(context.Background(), Input{File: path, Stdin: strings.NewReader("<p>stdin</p>")}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if html != "<p>file</p>" {
		t.Fatalf("unexpected html: %q", html)
	}
}

// TestLoad_URL_Non2xx verifies URL loads keep the status code and body snippet.
func TestLoad_URL_Non2xx(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	_, err := New(srv.Client(), 2*time.Second).Load(context.Background(), Input{URL: srv.URL}, nil)
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	msg := err.Error()
	if !strings.Contains(msg, "http status 403") || !strings.Contains(msg, "nope") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoad_Empty(t *testing.T) {
	t.Parallel()

	html, err := New(nil, time.Second).Load(context.Background(), Input{}, nil)
	if err != nil || html != "" {
		t.Fatalf("got %q err=%v", html, err)
	}
}
