package genai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"paden/internal/adapters/genai"
)

func newTestServer(t *testing.T, fn http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(fn)
	t.Cleanup(ts.Close)
	return ts
}

func TestGenerate_ReturnsCandidateText(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(200)
		_, _ = w.Write([]byte("{\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"```json\\n{\\\"intent\\\":\\\"search\\\"}\\n```\"}]}}]}"))
	})

	cl, err := genai.New(ts.URL, "test-key", "gemma-3-27b-it", 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	text, err := cl.Generate(ctx, "hello", 0.1, 200)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	// raw text is passed through untouched, fences included
	if !strings.Contains(text, "```json") {
		t.Fatalf("expected verbatim model text, got %q", text)
	}
	if gotPath != "/models/gemma-3-27b-it:generateContent" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("missing api key header")
	}
	cfg, _ := gotBody["generationConfig"].(map[string]any)
	if maxTok, _ := cfg["maxOutputTokens"].(float64); maxTok != 200 {
		t.Fatalf("generationConfig not sent: %+v", gotBody)
	}
}

func TestGenerate_StatusSentinels(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{401, genai.ErrUnauthorized},
		{403, genai.ErrForbidden},
		{404, genai.ErrNotFound},
		{429, genai.ErrRateLimited},
	}
	for _, tc := range cases {
		ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})
		cl, _ := genai.New(ts.URL, "k", "m", 100)
		_, err := cl.Generate(context.Background(), "p", 0, 10)
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: got %v, want %v", tc.status, err, tc.want)
		}
	}
}

func TestGenerate_NoCandidatesIsError(t *testing.T) {
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	})
	cl, _ := genai.New(ts.URL, "k", "m", 100)
	_, err := cl.Generate(context.Background(), "p", 0, 10)
	if !errors.Is(err, genai.ErrEmpty) {
		t.Fatalf("got %v, want ErrEmpty", err)
	}
}

func TestGenerate_SingleAttempt(t *testing.T) {
	var hits int
	ts := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(500)
	})
	cl, _ := genai.New(ts.URL, "k", "m", 100)
	if _, err := cl.Generate(context.Background(), "p", 0, 10); err == nil {
		t.Fatalf("expected error for 500")
	}
	if hits != 1 {
		t.Fatalf("expected exactly one attempt, got %d", hits)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := genai.New("http://x", "", "m", 5); err == nil {
		t.Fatalf("expected error for empty key")
	}
}
