package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/pkg/resend"
)

type fakeMailer struct {
	configured bool
	sent       []resend.Email
	err        error
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) Send(ctx context.Context, msg resend.Email) error {
	m.sent = append(m.sent, msg)
	return m.err
}

type fakeAppender struct {
	rows [][]string
}

func (a *fakeAppender) Append(ctx context.Context, row []string) error {
	a.rows = append(a.rows, row)
	return nil
}

func TestOwnerEmail_Send(t *testing.T) {
	m := &fakeMailer{configured: true}
	ch := &OwnerEmail{Mailer: m, To: "owner@northfield.example"}

	inq := testInquiry()
	inq.Message = "Tom & Jerry"
	if err := ch.Send(context.Background(), inq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(m.sent))
	}
	got := m.sent[0]
	if got.To != "owner@northfield.example" || got.ReplyTo != "ana@x.com" {
		t.Errorf("unexpected addressing: %+v", got)
	}
	if !strings.Contains(got.Subject, "Ana") || !strings.Contains(got.Subject, "Acme") {
		t.Errorf("subject should name submitter and organization: %q", got.Subject)
	}
	if !strings.Contains(got.Text, "Tom & Jerry") {
		t.Errorf("text body should carry the raw message: %q", got.Text)
	}
	if !strings.Contains(got.HTML, "Tom &amp; Jerry") {
		t.Errorf("html body should escape the message: %q", got.HTML)
	}
}

func TestOwnerEmail_Ready(t *testing.T) {
	if err := (&OwnerEmail{Mailer: &fakeMailer{}, To: "o@x.com"}).Ready(); !errors.Is(err, resend.ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
	if err := (&OwnerEmail{Mailer: &fakeMailer{configured: true}}).Ready(); err == nil {
		t.Error("expected error for empty owner address")
	}
	if err := (&OwnerEmail{Mailer: &fakeMailer{configured: true}, To: "o@x.com"}).Ready(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSubmitterConfirmation_Send(t *testing.T) {
	m := &fakeMailer{configured: true}
	ch := &SubmitterConfirmation{Mailer: m, Business: "Northfield Advisory", ReplyTo: "hello@northfield.example"}

	inq := testInquiry()
	inq.Kind = model.KindConsultation
	if err := ch.Send(context.Background(), inq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := m.sent[0]
	if got.To != "ana@x.com" {
		t.Errorf("confirmation should go to the submitter, got %q", got.To)
	}
	if !strings.Contains(got.Subject, "consultation") {
		t.Errorf("unexpected subject %q", got.Subject)
	}
	if !strings.Contains(got.Text, "Hi Ana") {
		t.Errorf("unexpected text %q", got.Text)
	}
}

func TestRecordLog_AppendsOrderedFields(t *testing.T) {
	a := &fakeAppender{}
	ch := &RecordLog{Store: a}

	inq := testInquiry()
	if err := ch.Send(context.Background(), inq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(a.rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(a.rows))
	}
	row := a.rows[0]
	if row[1] != "inq-1" || row[2] != "contact" || row[3] != "Ana" || row[len(row)-1] != "hi" {
		t.Errorf("unexpected row %v", row)
	}
}

func TestRecordLog_NoStore(t *testing.T) {
	if err := (&RecordLog{}).Send(context.Background(), testInquiry()); err == nil {
		t.Error("expected error without a store")
	}
}

func TestWebhook_Send(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	ch := &Webhook{URL: srv.URL, HTTPClient: srv.Client()}
	if err := ch.Send(context.Background(), testInquiry()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got["text"], "Ana <ana@x.com>") || got["text"] != got["content"] {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestWebhook_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	ch := &Webhook{URL: srv.URL}
	if err := ch.Send(context.Background(), testInquiry()); err == nil {
		t.Error("expected error for 404")
	}
}
