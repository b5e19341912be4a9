package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/northfield/backend/internal/model"
	"github.com/northfield/backend/pkg/recaptcha"
)

// DefaultMinScore is the lowest accepted reCAPTCHA v3 score.
const DefaultMinScore = 0.5

// BotDefenseConfig holds the verification service credentials. Both keys empty
// means the feature is disabled.
type BotDefenseConfig struct {
	SiteKey   string
	SecretKey string
	MinScore  float64
	Timeout   time.Duration
}

// Verifier decides whether a submission comes from a human.
type Verifier interface {
	Verify(ctx context.Context, token, remoteIP string) model.VerificationOutcome
}

// BotVerifier fails open on every configuration or transport problem and only
// denies on an explicit rejection or a low score from the service.
type BotVerifier struct {
	cfg    BotDefenseConfig
	client recaptcha.Client
}

// NewBotVerifier creates a BotVerifier. A nil client gets a recaptcha.RealClient
// built from cfg.
func NewBotVerifier(cfg BotDefenseConfig, client recaptcha.Client) *BotVerifier {
	if cfg.MinScore <= 0 {
		cfg.MinScore = DefaultMinScore
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if client == nil {
		client = recaptcha.NewClient(cfg.SecretKey, cfg.Timeout)
	}
	return &BotVerifier{cfg: cfg, client: client}
}

var _ Verifier = (*BotVerifier)(nil)

// Verify evaluates the degradation ladder; the first matching rule wins.
func (v *BotVerifier) Verify(ctx context.Context, token, remoteIP string) model.VerificationOutcome {
	siteKey := strings.TrimSpace(v.cfg.SiteKey)
	secret := strings.TrimSpace(v.cfg.SecretKey)

	if siteKey == "" && secret == "" {
		return model.VerificationOutcome{Admitted: true, Reason: "bot defense disabled"}
	}
	if strings.TrimSpace(token) == "" {
		// The widget may have failed to load on the client; not a bot signal.
		slog.Info("bot defense token missing, admitting")
		return model.VerificationOutcome{Admitted: true, Reason: "missing token"}
	}
	if secret == "" {
		slog.Warn("bot defense site key set without secret, admitting")
		return model.VerificationOutcome{Admitted: true, Reason: "incomplete configuration"}
	}

	vctx, cancel := context.WithTimeout(ctx, v.cfg.Timeout)
	defer cancel()

	resp, err := v.client.Verify(vctx, token, remoteIP)
	if err != nil {
		slog.Warn("bot defense verification unavailable, admitting", "error", err)
		return model.VerificationOutcome{Admitted: true, Reason: "verification unavailable"}
	}

	if !resp.Success {
		return model.VerificationOutcome{Admitted: false, Score: resp.Score, Reason: "verification denied: " + strings.Join(resp.ErrorCodes, ",")}
	}
	if resp.Score != nil && *resp.Score < v.cfg.MinScore {
		return model.VerificationOutcome{Admitted: false, Score: resp.Score, Reason: "low score"}
	}
	return model.VerificationOutcome{Admitted: true, Score: resp.Score}
}
