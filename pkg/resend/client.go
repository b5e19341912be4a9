// Package resend provides a lightweight client for the Resend transactional
// email API. Uses raw HTTP calls (no SDK).
package resend

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
)

// DefaultBaseURL is the public Resend API.
const DefaultBaseURL = "https://api.resend.com"

// ErrNotConfigured is returned when the API key or sender address is missing.
var ErrNotConfigured = errors.New("resend: not configured")

// Email is one transactional message.
type Email struct {
	To      string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Client sends transactional email.
type Client interface {
	Send(ctx context.Context, msg Email) error
	// Configured reports whether Send can succeed at all.
	Configured() bool
}

// RealClient talks to the Resend HTTP API. Sends are paced by a token bucket
// so bursts of inquiries stay under the provider's request rate.
type RealClient struct {
	APIKey     string
	From       string
	BaseURL    string
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient creates a RealClient. perSecond <= 0 disables pacing.
func NewClient(apiKey, from string, perSecond float64) *RealClient {
	lim := rate.NewLimiter(rate.Inf, 0)
	if perSecond > 0 {
		lim = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
	return &RealClient{
		APIKey:     apiKey,
		From:       from,
		BaseURL:    DefaultBaseURL,
		limiter:    lim,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *RealClient) Configured() bool {
	return c.APIKey != "" && c.From != ""
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text,omitempty"`
	HTML    string   `json:"html,omitempty"`
}

// Send posts one email. It waits for a send slot first, so a cancelled ctx
// aborts before any request is made.
func (c *RealClient) Send(ctx context.Context, msg Email) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("resend: recipient is empty")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("resend: wait for send slot: %w", err)
	}

	body, err := json.Marshal(sendRequest{
		From:    c.From,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Text:    msg.Text,
		HTML:    msg.HTML,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(c.BaseURL, "/")+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("resend: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("resend: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
