package ratelimit

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript increments the counter and starts the window on the first hit.
// Running both steps in one script keeps the update atomic across instances.
var admitScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// RedisStore is a fixed window limiter shared by every instance that points at
// the same Redis. Key expiry replaces the in-process sweep.
type RedisStore struct {
	rdb    redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

type RedisOption func(*RedisStore)

func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) { s.prefix = strings.Trim(prefix, ":") }
}

func WithRedisLimit(n int) RedisOption {
	return func(s *RedisStore) { s.limit = n }
}

func WithRedisWindow(d time.Duration) RedisOption {
	return func(s *RedisStore) { s.window = d }
}

func NewRedisStore(rdb redis.Scripter, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		prefix: "intake:ratelimit",
		limit:  DefaultLimit,
		window: DefaultWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*RedisStore)(nil)

// Admit implements Store. Redis errors fail open: a limiter outage must not
// block legitimate inquiries.
func (s *RedisStore) Admit(ctx context.Context, key string) bool {
	n, err := admitScript.Run(ctx, s.rdb, []string{s.key(key)}, s.window.Milliseconds()).Int64()
	if err != nil {
		slog.Warn("rate limit store unavailable, admitting", "error", err)
		return true
	}
	// n is the post-increment count, so n <= limit means the previous count was below it.
	return n <= int64(s.limit)
}

func (s *RedisStore) key(k string) string {
	return s.prefix + ":" + k
}
