package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/huehive/collab-server-go/internal/config"
)

const rateLimitKeyPrefix = "ratelimit:account:"

// Sliding window over a sorted set; one round trip per check. Members are
// timestamped so old requests age out of the window on every call.
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, 0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local remaining = limit - count - 1
local resetAt = now + window

return {1, remaining, resetAt}
`)

// Quota is the outcome of one sliding-window check.
type Quota struct {
	Allowed   bool
	Remaining int
	ResetAt   int64
}

// RedisRateLimiter enforces each account's per-minute request quota. Palette
// generation is the spend worth guarding; the quota covers the whole
// authenticated API so a runaway client cannot hammer the store either.
type RedisRateLimiter struct {
	client *redis.Client
}

func NewRedisRateLimiter(client *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{client: client}
}

// Check is fail-open: if redis is unreachable the request goes through.
func (rl *RedisRateLimiter) Check(ctx context.Context, accountID string, limit int) Quota {
	now := time.Now().Unix()
	key := rateLimitKeyPrefix + accountID
	window := int64(config.RateLimitWindow.Seconds())

	result, err := rateLimitScript.Run(ctx, rl.client, []string{key}, now, window, limit).Int64Slice()
	if err != nil {
		log.Warn().Err(err).Str("accountId", accountID).Msg("redis rate limit check failed, allowing request")
		return Quota{Allowed: true, Remaining: limit - 1, ResetAt: now + window}
	}

	if len(result) != 3 {
		log.Warn().Str("accountId", accountID).Msg("unexpected redis rate limit result")
		return Quota{Allowed: true, Remaining: limit - 1, ResetAt: now + window}
	}

	return Quota{
		Allowed:   result[0] == 1,
		Remaining: int(result[1]),
		ResetAt:   result[2],
	}
}

type RedisRateLimitMiddleware struct {
	limiter *RedisRateLimiter
}

func NewRedisRateLimitMiddleware(redisClient *redis.Client) *RedisRateLimitMiddleware {
	return &RedisRateLimitMiddleware{
		limiter: NewRedisRateLimiter(redisClient),
	}
}

// Handler limits authenticated accounts by their per-account quota.
// Anonymous traffic passes through; the generation endpoint is the costly
// one and it requires auth.
func (m *RedisRateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := GetAccount(r.Context())
		if account == nil {
			next.ServeHTTP(w, r)
			return
		}

		limit := account.RateLimitPerMin
		if limit <= 0 {
			limit = config.DefaultRateLimitPerMin
		}

		quota := m.limiter.Check(r.Context(), account.ID, limit)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(quota.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(quota.ResetAt, 10))

		if !quota.Allowed {
			log.Warn().Str("accountId", account.ID).Msg("rate limit exceeded")
			w.Header().Set("Retry-After", strconv.Itoa(int(config.RateLimitWindow.Seconds())))
			writeJSON(w, http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}
