// Package recaptcha provides a minimal client for reCAPTCHA-compatible
// siteverify endpoints (Google reCAPTCHA v3, Cloudflare Turnstile).
// Uses raw HTTP calls (no SDK).
package recaptcha

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
)

// DefaultVerifyURL is Google's siteverify endpoint.
const DefaultVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("recaptcha: not configured")

// Response is the siteverify response body. Score is only present for
// score-based (v3) keys.
type Response struct {
	Success     bool     `json:"success"`
	Score       *float64 `json:"score,omitempty"`
	Action      string   `json:"action,omitempty"`
	Hostname    string   `json:"hostname,omitempty"`
	ChallengeTS string   `json:"challenge_ts,omitempty"`
	ErrorCodes  []string `json:"error-codes,omitempty"`
}

// Client verifies a client-side token against the verification service.
type Client interface {
	Verify(ctx context.Context, token, remoteIP string) (Response, error)
}

// RealClient posts to the siteverify endpoint with the shared secret.
type RealClient struct {
	Secret     string
	VerifyURL  string
	httpClient *http.Client
}

// NewClient creates a RealClient. timeout bounds each verification call.
func NewClient(secret string, timeout time.Duration) *RealClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RealClient{
		Secret:     secret,
		VerifyURL:  DefaultVerifyURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Verify sends secret + token (and the client IP when known) and decodes the result.
func (c *RealClient) Verify(ctx context.Context, token, remoteIP string) (Response, error) {
	if c.Secret == "" {
		return Response{}, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("secret", c.Secret)
	form.Set("response", token)
	if remoteIP != "" && remoteIP != "unknown" {
		form.Set("remoteip", remoteIP)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.VerifyURL, strings.NewReader(form.Encode()))
	if err != nil {
		return Response{}, fmt.Errorf("recaptcha: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("recaptcha: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return Response{}, fmt.Errorf("recaptcha: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Response{}, fmt.Errorf("recaptcha: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, fmt.Errorf("recaptcha: decode: %w", err)
	}
	return out, nil
}
