package service

import (
	"context"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/internal/notify"
)

// InquiryService runs one intake route: rate limit, bot defense, validation,
// sanitization and notification fan-out.
type InquiryService interface {
	// Submit returns the dispatched inquiry, or one of ErrThrottled,
	// ErrUntrusted, *ValidationError, notify.ErrMisconfigured (wrapped) or
	// *notify.DispatchError.
	Submit(ctx context.Context, req SubmitRequest) (*model.Inquiry, error)
}

// SubmitRequest is one raw form post.
type SubmitRequest struct {
	// Origin is the best-effort client address; never a security boundary.
	Origin     string
	Submission model.Submission
}

// Dispatcher is the notification fan-out used by the pipeline.
type Dispatcher interface {
	Preflight() error
	Dispatch(ctx context.Context, inq *model.Inquiry) (notify.OutcomeSet, error)
}
