package ratelimit

import (
	"net/http"
	"strconv"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/glowmart/backend-store/internal/common"
)

// New builds a Redis-backed rate limiter from a formatted rate such as "30-M".
func New(rdb *redis.Client, formatted string, prefix string) (*limiter.Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return limiter.New(store, rate), nil
}

// Middleware enforces the limit per client IP. Limiter store failures let the
// request through so a Redis outage does not take the payment endpoints down.
func Middleware(lim *limiter.Limiter, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if lim == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx, err := lim.Get(r.Context(), common.ClientIP(r))
			if err != nil {
				logger.Warn().Err(err).Msg("rate_limit_store_error")
				next.ServeHTTP(w, r)
				return
			}
			headers := w.Header()
			headers.Set("X-RateLimit-Limit", strconv.FormatInt(ctx.Limit, 10))
			headers.Set("X-RateLimit-Remaining", strconv.FormatInt(ctx.Remaining, 10))
			headers.Set("X-RateLimit-Reset", strconv.FormatInt(ctx.Reset, 10))
			if ctx.Reached {
				common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "Too many requests. Slow down.", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
