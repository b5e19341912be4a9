package notify

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

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/pkg/resend"
)

// Mailer is the transactional email collaborator.
type Mailer interface {
	Send(ctx context.Context, msg resend.Email) error
	Configured() bool
}

// RecordAppender appends an ordered field list to an external record store.
type RecordAppender interface {
	Append(ctx context.Context, row []string) error
}

// ---------------------------------------------------------------------------
// Owner notification
// ---------------------------------------------------------------------------

// OwnerEmail tells the business owner about a new inquiry. Replies go to the submitter.
type OwnerEmail struct {
	Mailer Mailer
	To     string
}

func (c *OwnerEmail) Name() string { return "owner_email" }

func (c *OwnerEmail) Ready() error {
	if c.Mailer == nil || !c.Mailer.Configured() {
		return resend.ErrNotConfigured
	}
	if strings.TrimSpace(c.To) == "" {
		return errors.New("owner address is empty")
	}
	return nil
}

func (c *OwnerEmail) Send(ctx context.Context, inq *model.Inquiry) error {
	text, html, err := renderOwner(inq)
	if err != nil {
		return err
	}
	return c.Mailer.Send(ctx, resend.Email{
		To:      c.To,
		ReplyTo: inq.Email,
		Subject: ownerSubject(inq),
		Text:    text,
		HTML:    html,
	})
}

// ---------------------------------------------------------------------------
// Submitter confirmation
// ---------------------------------------------------------------------------

// SubmitterConfirmation acknowledges receipt to the person who filled in the form.
type SubmitterConfirmation struct {
	Mailer   Mailer
	Business string
	ReplyTo  string
}

func (c *SubmitterConfirmation) Name() string { return "submitter_confirmation" }

func (c *SubmitterConfirmation) Ready() error {
	if c.Mailer == nil || !c.Mailer.Configured() {
		return resend.ErrNotConfigured
	}
	return nil
}

func (c *SubmitterConfirmation) Send(ctx context.Context, inq *model.Inquiry) error {
	text, html, err := renderConfirmation(c.Business, inq)
	if err != nil {
		return err
	}
	return c.Mailer.Send(ctx, resend.Email{
		To:      inq.Email,
		ReplyTo: c.ReplyTo,
		Subject: confirmationSubject(c.Business, inq),
		Text:    text,
		HTML:    html,
	})
}

// ---------------------------------------------------------------------------
// Record log
// ---------------------------------------------------------------------------

// RecordLog appends the inquiry to an external record store (spreadsheet or table).
type RecordLog struct {
	Store RecordAppender
}

func (c *RecordLog) Name() string { return "record_log" }

func (c *RecordLog) Send(ctx context.Context, inq *model.Inquiry) error {
	if c.Store == nil {
		return errors.New("record store is not configured")
	}
	return c.Store.Append(ctx, inq.Record())
}

// ---------------------------------------------------------------------------
// Chat webhook
// ---------------------------------------------------------------------------

// Webhook posts a short summary to a Slack or Discord incoming webhook.
type Webhook struct {
	URL        string
	HTTPClient *http.Client
}

func (c *Webhook) Name() string { return "webhook" }

func (c *Webhook) Send(ctx context.Context, inq *model.Inquiry) error {
	summary := webhookSummary(inq)
	// Slack reads "text", Discord reads "content".
	body, err := json.Marshal(map[string]string{"text": summary, "content": summary})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 5 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		return fmt.Errorf("webhook: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}
