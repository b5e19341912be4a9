// Package notify fans a sanitized inquiry out to independent notification
// channels and aggregates their outcomes under a configured failure policy.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/northfield/backend/internal/model"
)

// DefaultTimeout bounds each channel attempt.
const DefaultTimeout = 10 * time.Second

// ErrMisconfigured means an essential channel lacks a required credential.
var ErrMisconfigured = errors.New("notify: channel misconfigured")

// Channel is one notification destination.
type Channel interface {
	Name() string
	Send(ctx context.Context, inq *model.Inquiry) error
}

// Readiness is implemented by channels that can detect missing configuration
// before any side effect happens.
type Readiness interface {
	Ready() error
}

// Policy decides how channel failures affect the dispatch result.
type Policy int

const (
	// AllOrNothing fails the dispatch when any essential channel fails, even if
	// other channels already produced side effects.
	AllOrNothing Policy = iota
	// BestEffort logs failures and always reports success.
	BestEffort
)

func (p Policy) String() string {
	switch p {
	case BestEffort:
		return "best_effort"
	default:
		return "all_or_nothing"
	}
}

// ParsePolicy accepts "all_or_nothing" or "best_effort" (case-insensitive).
// Empty input yields AllOrNothing.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all_or_nothing", "all-or-nothing":
		return AllOrNothing, nil
	case "best_effort", "best-effort":
		return BestEffort, nil
	default:
		return AllOrNothing, fmt.Errorf("notify: unknown policy %q", s)
	}
}

// Outcome is the settled result of one channel attempt.
type Outcome struct {
	Channel   string
	Essential bool
	Err       error
	Duration  time.Duration
}

// OutcomeSet holds one Outcome per configured channel, in registration order.
type OutcomeSet []Outcome

// Failed returns the outcomes that carry an error.
func (s OutcomeSet) Failed() []Outcome {
	var out []Outcome
	for _, o := range s {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// DispatchError reports the essential channels that failed under AllOrNothing.
type DispatchError struct {
	Failed []Outcome
}

func (e *DispatchError) Error() string {
	parts := make([]string, 0, len(e.Failed))
	for _, o := range e.Failed {
		parts = append(parts, o.Channel+": "+o.Err.Error())
	}
	return "notify: dispatch failed: " + strings.Join(parts, "; ")
}

// Unwrap exposes the individual channel errors to errors.Is/As.
func (e *DispatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, o := range e.Failed {
		errs = append(errs, o.Err)
	}
	return errs
}

type registration struct {
	ch        Channel
	essential bool
}

// Dispatcher runs every registered channel concurrently and returns once all
// attempts have settled.
type Dispatcher struct {
	channels []registration
	policy   Policy
	timeout  time.Duration
	failures FailureRecorder
}

type Option func(*Dispatcher)

// WithEssential registers a channel whose failure counts under AllOrNothing.
func WithEssential(ch Channel) Option {
	return func(d *Dispatcher) { d.channels = append(d.channels, registration{ch: ch, essential: true}) }
}

// WithOptional registers a channel whose failure is only logged.
func WithOptional(ch Channel) Option {
	return func(d *Dispatcher) { d.channels = append(d.channels, registration{ch: ch}) }
}

func WithTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = t }
}

// WithFailureRecorder keeps failed attempts for later replay.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(d *Dispatcher) { d.failures = r }
}

func NewDispatcher(policy Policy, opts ...Option) *Dispatcher {
	d := &Dispatcher{policy: policy, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Policy() Policy { return d.policy }

// Channels returns the registered channel names in order.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, r := range d.channels {
		names = append(names, r.ch.Name())
	}
	return names
}

// Preflight returns ErrMisconfigured when an essential channel reports it
// cannot work. Optional channels are not checked.
func (d *Dispatcher) Preflight() error {
	for _, r := range d.channels {
		if !r.essential {
			continue
		}
		rd, ok := r.ch.(Readiness)
		if !ok {
			continue
		}
		if err := rd.Ready(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMisconfigured, r.ch.Name(), err)
		}
	}
	return nil
}

// Dispatch sends inq to every channel. Attempts are detached from the caller's
// cancellation so a disconnecting client cannot cut a send half way; each one
// is still bounded by the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, inq *model.Inquiry) (OutcomeSet, error) {
	outcomes := make(OutcomeSet, len(d.channels))
	base := context.WithoutCancel(ctx)

	var g errgroup.Group
	for i, r := range d.channels {
		i, r := i, r
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			start := time.Now()
			err := send(cctx, r.ch, inq)
			outcomes[i] = Outcome{
				Channel:   r.ch.Name(),
				Essential: r.essential,
				Err:       err,
				Duration:  time.Since(start),
			}
			return err
		})
	}
	_ = g.Wait()

	var essentialFailures []Outcome
	for _, o := range outcomes.Failed() {
		slog.Warn("notification channel failed",
			"inquiry_id", inq.ID,
			"channel", o.Channel,
			"essential", o.Essential,
			"policy", d.policy.String(),
			"duration_ms", o.Duration.Milliseconds(),
			"error", o.Err,
		)
		d.recordFailure(base, inq, o)
		if o.Essential {
			essentialFailures = append(essentialFailures, o)
		}
	}

	if d.policy == AllOrNothing && len(essentialFailures) > 0 {
		return outcomes, &DispatchError{Failed: essentialFailures}
	}
	return outcomes, nil
}

// send runs one channel and turns a panic into an error so it cannot take
// the other attempts down with it.
func send(ctx context.Context, ch Channel, inq *model.Inquiry) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("notify: channel %s panicked: %v", ch.Name(), rec)
		}
	}()
	return ch.Send(ctx, inq)
}

func (d *Dispatcher) recordFailure(ctx context.Context, inq *model.Inquiry, o Outcome) {
	if d.failures == nil {
		return
	}
	rctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := d.failures.RecordFailure(rctx, FailedAttempt{
		Inquiry: *inq,
		Channel: o.Channel,
		Error:   o.Err.Error(),
		At:      time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to record notification failure", "inquiry_id", inq.ID, "channel", o.Channel, "error", err)
	}
}
