package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"paden/internal/adapters/observability"
)

// Client talks to a Generative Language style API
// (POST {base}/models/{model}:generateContent). One attempt per call: the
// pipeline's failure policy is degrade-and-continue, not retry, so a failed
// generation surfaces immediately and the caller picks its fallback.
type Client struct {
	base  string
	model string
	hc    *http.Client
	key   string
	rl    *rate.Limiter
}

func New(base, key, model string, rps int) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base:  strings.TrimRight(base, "/"),
		model: model,
		hc:    &http.Client{Timeout: 30 * time.Second},
		key:   key,
		rl:    rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrUnauthorized = errors.New("genai: unauthorized")
	ErrForbidden    = errors.New("genai: forbidden")
	ErrNotFound     = errors.New("genai: model not found")
	ErrRateLimited  = errors.New("genai: rate limited")
	ErrEmpty        = errors.New("genai: empty response")
)

// ---- wire types ----

type genRequest struct {
	Contents []content  `json:"contents"`
	Config   *genConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type genConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type genResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// Generate sends one prompt and returns the model's raw text. The text
// carries no structural guarantee even when JSON was requested; callers own
// fence stripping and parsing.
func (c *Client) Generate(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error) {
	if err := c.rl.Wait(ctx); err != nil {
		return "", err
	}

	body, err := json.Marshal(genRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		Config:   &genConfig{Temperature: temperature, MaxOutputTokens: maxTokens},
	})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.base, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-goog-api-key", c.key)

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("genai", "generateContent", 0, time.Since(start))
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("genai", "generateContent", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusOK:
		// decode below
	case http.StatusUnauthorized:
		return "", ErrUnauthorized
	case http.StatusForbidden:
		return "", ErrForbidden
	case http.StatusNotFound:
		return "", ErrNotFound
	case http.StatusTooManyRequests:
		return "", ErrRateLimited
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("genai: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var out genResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	// A blocked prompt yields zero candidates; treat as failure so the
	// caller's fallback kicks in.
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmpty
	}
	var sb strings.Builder
	for _, p := range out.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}
