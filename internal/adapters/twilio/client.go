package twilio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"paden/internal/adapters/observability"
	"paden/internal/domain"
)

// Client sends out-of-band WhatsApp messages through the Twilio REST API.
// Single attempt per send; delivery is best-effort by design of the webhook
// pipeline's failure policy.
type Client struct {
	base string
	sid  string
	tok  string
	from string
	hc   *http.Client
	rl   *rate.Limiter
}

func New(base, sid, tok, from string, rps int) (*Client, error) {
	if sid == "" || tok == "" {
		return nil, fmt.Errorf("account SID and auth token are required")
	}
	if from == "" {
		return nil, fmt.Errorf("sender number is required")
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		sid:  sid,
		tok:  tok,
		from: from,
		hc:   &http.Client{Timeout: 15 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

var (
	ErrUnauthorized = errors.New("twilio: unauthorized")
	ErrBadRecipient = errors.New("twilio: invalid recipient")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Send delivers one message with at most one media URL.
func (c *Client) Send(ctx context.Context, to string, r domain.Reply) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.from)
	form.Set("Body", r.Text)
	if r.MediaURL != "" {
		form.Set("MediaUrl", r.MediaURL)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.base, c.sid)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.sid, c.tok)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("twilio", "messages.create", 0, time.Since(start))
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("twilio", "messages.create", resp.StatusCode, time.Since(start))

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusBadRequest:
		var ae apiError
		if err := json.NewDecoder(resp.Body).Decode(&ae); err == nil && ae.Code == 21211 {
			return ErrBadRecipient
		}
		return fmt.Errorf("twilio: bad request (code %d): %s", ae.Code, ae.Message)
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("twilio: bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
}
