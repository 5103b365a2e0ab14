package middleware

import (
	"net/http"

	"go.uber.org/zap"

	"reviewpipe/pkg/common"
	"reviewpipe/pkg/ratelimit"
)

// RateLimit limits requests per client IP. Applied only to the run trigger
// route; reads are unthrottled.
func RateLimit(limiter *ratelimit.IPRateLimiter, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), r.RemoteAddr)
			if err != nil {
				logger.Error("Rate limiter failed", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				logger.Warn("Request rate limited",
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("path", r.URL.Path),
				)
				common.RespondError(w, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
