package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/internal/notify"
	"github.com/northfield/backend/internal/service"
)

const maxInquiryBody = 64 << 10

// Caller-facing messages. Security-sensitive rejections stay vague.
const (
	msgInvalidJSON     = "Invalid request body"
	msgThrottled       = "Too many requests. Please try again later."
	msgUntrusted       = "Security verification failed"
	msgMisconfigured   = "Service temporarily unavailable. Please try again later."
	msgDispatchFailed  = "Failed to send your message. Please try again later."
	msgInternal        = "Internal server error"
	retryAfterThrottle = "3600"
)

// InquiryHandler serves one intake route (contact or consultation).
type InquiryHandler struct {
	inquiryService service.InquiryService
	trustForwarded bool
}

// NewInquiryHandler creates an InquiryHandler. trustForwarded makes the client
// origin come from X-Forwarded-For when present.
func NewInquiryHandler(inquiryService service.InquiryService, trustForwarded bool) *InquiryHandler {
	return &InquiryHandler{inquiryService: inquiryService, trustForwarded: trustForwarded}
}

type inquiryResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Submit handles POST /api/contact and POST /api/consultation.
func (h *InquiryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sub, err := decodeSubmission(io.LimitReader(r.Body, maxInquiryBody))
	if err != nil {
		writeInquiry(w, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	_, err = h.inquiryService.Submit(r.Context(), service.SubmitRequest{
		Origin:     ClientOrigin(r, h.trustForwarded),
		Submission: sub,
	})

	var ve *service.ValidationError
	var de *notify.DispatchError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, inquiryResponse{OK: true})
	case errors.Is(err, service.ErrThrottled):
		w.Header().Set("Retry-After", retryAfterThrottle)
		writeInquiry(w, http.StatusTooManyRequests, msgThrottled)
	case errors.Is(err, service.ErrUntrusted):
		writeInquiry(w, http.StatusBadRequest, msgUntrusted)
	case errors.As(err, &ve):
		writeInquiry(w, http.StatusBadRequest, ve.Reason)
	case errors.Is(err, notify.ErrMisconfigured):
		slog.Error("inquiry route misconfigured", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeInquiry(w, http.StatusServiceUnavailable, msgMisconfigured)
	case errors.As(err, &de):
		slog.Error("inquiry dispatch failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeInquiry(w, http.StatusInternalServerError, msgDispatchFailed)
	default:
		slog.Error("inquiry submit failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
		writeInquiry(w, http.StatusInternalServerError, msgInternal)
	}
}

// decodeSubmission reads the JSON object as-is so non-text values reach the
// validator. The bot defense token is accepted as "recaptchaToken" or "token".
func decodeSubmission(body io.Reader) (model.Submission, error) {
	var fields map[string]any
	if err := json.NewDecoder(body).Decode(&fields); err != nil {
		return model.Submission{}, err
	}
	if fields == nil {
		return model.Submission{}, errors.New("empty body")
	}

	var token string
	for _, k := range []string{"recaptchaToken", "token"} {
		if v, ok := fields[k].(string); ok && strings.TrimSpace(v) != "" {
			token = v
			break
		}
	}
	delete(fields, "recaptchaToken")
	delete(fields, "token")

	return model.Submission{Fields: fields, Token: token}, nil
}

func writeInquiry(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, inquiryResponse{OK: false, Error: msg})
}
