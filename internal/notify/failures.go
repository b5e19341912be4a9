package notify

import (
	"context"
	"time"

	"github.com/northfield/backend/internal/model"
)

// FailedAttempt describes one channel attempt that did not succeed.
type FailedAttempt struct {
	Inquiry model.Inquiry
	Channel string
	Error   string
	At      time.Time
}

// FailureRecorder stores failed attempts so an operator can replay them.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, f FailedAttempt) error
}
