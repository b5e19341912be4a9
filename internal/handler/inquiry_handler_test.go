package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/internal/notify"
	"github.com/northfield/backend/internal/service"
)

// ---------------------------------------------------------------------------
// Mock InquiryService
// ---------------------------------------------------------------------------

type mockInquiryService struct {
	submitFunc func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error)
}

func (m *mockInquiryService) Submit(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
	if m.submitFunc != nil {
		return m.submitFunc(ctx, req)
	}
	return &model.Inquiry{ID: "inq-1"}, nil
}

func postInquiry(h *InquiryHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.9:51234"
	rec := httptest.NewRecorder()
	h.Submit(rec, req)
	return rec
}

func decodeInquiryResponse(t *testing.T, rec *httptest.ResponseRecorder) inquiryResponse {
	t.Helper()
	var resp inquiryResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

// ---------------------------------------------------------------------------
// POST /api/contact
// ---------------------------------------------------------------------------

func TestInquiryHandler_Submit_Success(t *testing.T) {
	var captured service.SubmitRequest
	h := NewInquiryHandler(&mockInquiryService{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
			captured = req
			return &model.Inquiry{ID: "inq-1"}, nil
		},
	}, true)

	rec := postInquiry(h, `{"name":"Ana","email":"ana@x.io","organization":"Acme","message":"Hi","recaptchaToken":"tok-123"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if resp := decodeInquiryResponse(t, rec); !resp.OK || resp.Error != "" {
		t.Errorf("response = %+v", resp)
	}
	if captured.Origin != "203.0.113.9" {
		t.Errorf("Origin = %q, want 203.0.113.9", captured.Origin)
	}
	if captured.Submission.Token != "tok-123" {
		t.Errorf("Token = %q", captured.Submission.Token)
	}
	if _, ok := captured.Submission.Fields["recaptchaToken"]; ok {
		t.Error("token should be removed from form fields")
	}
	if captured.Submission.Text("name") != "Ana" {
		t.Errorf("name = %q", captured.Submission.Text("name"))
	}
}

func TestInquiryHandler_Submit_TokenAlias(t *testing.T) {
	var token string
	h := NewInquiryHandler(&mockInquiryService{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
			token = req.Submission.Token
			return &model.Inquiry{}, nil
		},
	}, true)

	postInquiry(h, `{"name":"Ana","token":"alt"}`)

	if token != "alt" {
		t.Errorf("Token = %q, want alt", token)
	}
}

func TestInquiryHandler_Submit_PreservesNonTextValues(t *testing.T) {
	var fields map[string]any
	h := NewInquiryHandler(&mockInquiryService{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
			fields = req.Submission.Fields
			return &model.Inquiry{}, nil
		},
	}, true)

	postInquiry(h, `{"name":42,"email":null}`)

	if _, ok := fields["name"].(float64); !ok {
		t.Errorf("name = %#v, want float64 passed through", fields["name"])
	}
	if v, ok := fields["email"]; !ok || v != nil {
		t.Errorf("email = %#v, want explicit nil", v)
	}
}

func TestInquiryHandler_Submit_InvalidJSON(t *testing.T) {
	called := false
	h := NewInquiryHandler(&mockInquiryService{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
			called = true
			return nil, nil
		},
	}, true)

	for _, body := range []string{`{not json`, `null`, `["a"]`, ``} {
		rec := postInquiry(h, body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: expected 400, got %d", body, rec.Code)
		}
	}
	if called {
		t.Error("service should not be called for a malformed body")
	}
}

func TestInquiryHandler_Submit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "throttled",
			err:        service.ErrThrottled,
			wantStatus: http.StatusTooManyRequests,
			wantError:  msgThrottled,
		},
		{
			name:       "untrusted",
			err:        service.ErrUntrusted,
			wantStatus: http.StatusBadRequest,
			wantError:  msgUntrusted,
		},
		{
			name:       "validation",
			err:        &service.ValidationError{Field: "email", Reason: "Invalid email format"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid email format",
		},
		{
			name:       "misconfigured",
			err:        fmt.Errorf("owner_email: %w", notify.ErrMisconfigured),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  msgMisconfigured,
		},
		{
			name: "dispatch failed",
			err: &notify.DispatchError{Failed: []notify.Outcome{
				{Channel: "owner_email", Essential: true, Err: errors.New("resend: status 500")},
			}},
			wantStatus: http.StatusInternalServerError,
			wantError:  msgDispatchFailed,
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  msgInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewInquiryHandler(&mockInquiryService{
				submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
					return nil, tt.err
				},
			}, true)

			rec := postInquiry(h, `{"name":"Ana"}`)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
			resp := decodeInquiryResponse(t, rec)
			if resp.OK {
				t.Error("ok should be false")
			}
			if resp.Error != tt.wantError {
				t.Errorf("error = %q, want %q", resp.Error, tt.wantError)
			}
			if strings.Contains(resp.Error, "500") || strings.Contains(resp.Error, "boom") {
				t.Errorf("internal detail leaked: %q", resp.Error)
			}
		})
	}
}

func TestInquiryHandler_Submit_ThrottledSetsRetryAfter(t *testing.T) {
	h := NewInquiryHandler(&mockInquiryService{
		submitFunc: func(ctx context.Context, req service.SubmitRequest) (*model.Inquiry, error) {
			return nil, service.ErrThrottled
		},
	}, true)

	rec := postInquiry(h, `{"name":"Ana"}`)

	if got := rec.Header().Get("Retry-After"); got != retryAfterThrottle {
		t.Errorf("Retry-After = %q, want %q", got, retryAfterThrottle)
	}
}

func TestInquiryHandler_Submit_BodyTooLarge(t *testing.T) {
	h := NewInquiryHandler(&mockInquiryService{}, true)

	body := `{"message":"` + strings.Repeat("a", maxInquiryBody) + `"}`
	rec := postInquiry(h, body)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}
