package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/internal/ratelimit"
)

// InquiryDeps wires an InquiryService.
type InquiryDeps struct {
	Form       FormSpec
	Limiter    ratelimit.Store
	Verifier   Verifier
	Dispatcher Dispatcher
	Now        func() time.Time
	NewID      func() string
}

// inquiryServiceImpl is the production implementation of InquiryService.
type inquiryServiceImpl struct {
	deps InquiryDeps
}

// NewInquiryService creates an InquiryService. A nil Limiter or Verifier
// disables that gate.
func NewInquiryService(deps InquiryDeps) InquiryService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.NewString() }
	}
	return &inquiryServiceImpl{deps: deps}
}

// Submit runs the gates strictly in order; each is a precondition for the next.
func (s *inquiryServiceImpl) Submit(ctx context.Context, req SubmitRequest) (*model.Inquiry, error) {
	sub := req.Submission
	kind := string(s.deps.Form.Kind)

	if s.deps.Limiter != nil {
		key := ratelimit.IdentityKey(req.Origin, sub.Text(model.FieldEmail))
		if !s.deps.Limiter.Admit(ctx, key) {
			slog.Info("inquiry throttled", "kind", kind, "origin", req.Origin)
			return nil, ErrThrottled
		}
	}

	if s.deps.Verifier != nil {
		outcome := s.deps.Verifier.Verify(ctx, sub.Token, req.Origin)
		if !outcome.Admitted {
			attrs := []any{"kind", kind, "origin", req.Origin, "reason", outcome.Reason}
			if outcome.Score != nil {
				attrs = append(attrs, "score", *outcome.Score)
			}
			slog.Warn("inquiry rejected by bot defense", attrs...)
			return nil, ErrUntrusted
		}
	}

	if res := s.deps.Form.Validate(sub); !res.Valid {
		return nil, &ValidationError{Field: res.Field, Reason: res.Reason}
	}

	inq := s.sanitize(sub)
	for _, rule := range s.deps.Form.Fields {
		// Markup-only values pass the screen but sanitize to nothing.
		if rule.Required && fieldValue(inq, rule.Name) == "" {
			return nil, &ValidationError{Field: rule.Name, Reason: "Missing required field: " + rule.Name}
		}
	}

	if err := s.deps.Dispatcher.Preflight(); err != nil {
		return nil, err
	}

	outcomes, err := s.deps.Dispatcher.Dispatch(ctx, inq)
	if err != nil {
		return nil, err
	}
	slog.Info("inquiry dispatched",
		"inquiry_id", inq.ID,
		"kind", kind,
		"channels", len(outcomes),
		"failed", len(outcomes.Failed()),
	)
	return inq, nil
}

func (s *inquiryServiceImpl) sanitize(sub model.Submission) *model.Inquiry {
	clean := func(field string) string {
		// Fields outside the route's form were never validated.
		if !s.deps.Form.has(field) {
			return ""
		}
		return Sanitize(sub.Text(field))
	}
	return &model.Inquiry{
		ID:           s.deps.NewID(),
		Kind:         s.deps.Form.Kind,
		Name:         clean(model.FieldName),
		Email:        clean(model.FieldEmail),
		Phone:        clean(model.FieldPhone),
		Organization: clean(model.FieldOrganization),
		Role:         clean(model.FieldRole),
		Service:      clean(model.FieldService),
		Message:      clean(model.FieldMessage),
		ReceivedAt:   s.deps.Now().UTC(),
	}
}

func fieldValue(inq *model.Inquiry, field string) string {
	switch field {
	case model.FieldName:
		return inq.Name
	case model.FieldEmail:
		return inq.Email
	case model.FieldPhone:
		return inq.Phone
	case model.FieldOrganization:
		return inq.Organization
	case model.FieldRole:
		return inq.Role
	case model.FieldService:
		return inq.Service
	case model.FieldMessage:
		return inq.Message
	}
	return ""
}
