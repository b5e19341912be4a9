// Package ratelimit throttles inquiry submissions per identity key using a
// fixed window counter.
package ratelimit

import (
	"context"
	"strings"
	"time"
)

// Defaults for the intake forms: 3 submissions per key per hour.
const (
	DefaultLimit      = 3
	DefaultWindow     = 60 * time.Minute
	DefaultSweepEvery = 10 * time.Minute
)

// Store decides whether one more submission for key is admitted. Admit is
// side-effecting and never fails; it can only deny.
type Store interface {
	Admit(ctx context.Context, key string) bool
}

// IdentityKey combines the best-effort client origin with the claimed email
// address. The result is only a bucket name: both parts are client controlled
// and no validation happens here.
func IdentityKey(origin, email string) string {
	origin = strings.TrimSpace(origin)
	if origin == "" {
		origin = "unknown"
	}
	return origin + "|" + strings.ToLower(strings.TrimSpace(email))
}
