// WasteVision - Waste Detection and Classification History
// Copyright 2026 WasteVision Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wastevision/wastevision

package detection

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/wastevision/wastevision/internal/config"
)

func newTestClient(url string) *Client {
	return NewClient(&config.ClassifierConfig{URL: url})
}

func TestIdentify(t *testing.T) {
	const response = `{"default_model": {"detections": [{"item": "bottle", "type": "recyclable"}]}}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/identify" {
			t.Errorf("path = %s, want /identify", r.URL.Path)
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("FormFile(file) error: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Filename != "trash.jpg" {
			t.Errorf("filename = %q, want trash.jpg", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "fake image bytes" {
			t.Errorf("file content = %q", content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(response))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	raw, err := client.Identify(context.Background(), "trash.jpg", strings.NewReader("fake image bytes"))
	if err != nil {
		t.Fatalf("Identify() error: %v", err)
	}
	if string(raw) != response {
		t.Errorf("raw = %q, want server response", raw)
	}
}

func TestIdentifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	_, err := client.Identify(context.Background(), "trash.jpg", strings.NewReader("x"))
	if err == nil {
		t.Fatal("Identify() expected error for 500 response")
	}
	if errors.Is(err, ErrClassifierUnavailable) {
		t.Error("a reachable classifier answering 500 must not map to ErrClassifierUnavailable")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestIdentifyUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // deliberately closed

	client := newTestClient(srv.URL)
	_, err := client.Identify(context.Background(), "trash.jpg", strings.NewReader("x"))
	if !errors.Is(err, ErrClassifierUnavailable) {
		t.Errorf("Identify() error = %v, want ErrClassifierUnavailable", err)
	}
	if !strings.Contains(err.Error(), "cannot reach the detection service") {
		t.Errorf("error %q missing the unreachable message", err)
	}
}

// failingIdentifier always fails, for driving the breaker open.
type failingIdentifier struct {
	calls int
}

func (f *failingIdentifier) Identify(context.Context, string, io.Reader) (json.RawMessage, error) {
	f.calls++
	return nil, ErrClassifierUnavailable
}

func TestBreakerOpensAfterRepeatedFailures(t *testing.T) {
	fake := &failingIdentifier{}
	bc := NewBreakerClient(fake)
	ctx := context.Background()

	// The breaker trips at a 60% failure rate once it has seen 10 requests.
	for i := 0; i < 10; i++ {
		if _, err := bc.Identify(ctx, "x.jpg", strings.NewReader("x")); err == nil {
			t.Fatal("expected failure from fake classifier")
		}
	}

	_, err := bc.Identify(ctx, "x.jpg", strings.NewReader("x"))
	if !IsBreakerOpen(err) {
		t.Fatalf("Identify() error = %v, want open-circuit rejection", err)
	}
	if fake.calls != 10 {
		t.Errorf("classifier called %d times, want 10 (rejected call must not reach it)", fake.calls)
	}
}

func TestIsBreakerOpen(t *testing.T) {
	if IsBreakerOpen(ErrClassifierUnavailable) {
		t.Error("IsBreakerOpen() = true for a plain classifier failure")
	}
	if IsBreakerOpen(nil) {
		t.Error("IsBreakerOpen(nil) = true")
	}
}
