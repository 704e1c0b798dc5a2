package auth

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/blueprint/pkg/api"
	"github.com/rhuss/blueprint/pkg/observability"
	"github.com/rhuss/blueprint/pkg/transport"
)

// DefaultBypassEndpoints lists endpoints that skip authentication.
var DefaultBypassEndpoints = []string{"/healthz", "/metrics"}

// Middleware authenticates every request not on the bypass list and
// applies the optional limiter. The identity is stored in the request
// context for handlers.
func Middleware(chain *Chain, limiter RateLimiter, bypassEndpoints []string) transport.Middleware {
	bypass := make(map[string]bool, len(bypassEndpoints))
	for _, ep := range bypassEndpoints {
		bypass[ep] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bypass[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			result := chain.Authenticate(r.Context(), r)
			if result.Decision != Yes || result.Identity == nil {
				slog.Warn("authentication failed",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
					"error", result.Err,
				)
				observability.AuthRejectedTotal.WithLabelValues("unauthenticated").Inc()
				transport.WriteAPIError(w, api.NewUnauthorizedError("authentication required"))
				return
			}

			if result.Identity.Subject == "" {
				slog.Error("authenticator returned identity with empty subject")
				transport.WriteAPIError(w, api.NewServerError("internal authentication error"))
				return
			}

			if limiter != nil {
				if err := limiter.Allow(r.Context(), result.Identity); err != nil {
					slog.Warn("rate limit exceeded", "subject", result.Identity.Subject)
					observability.AuthRejectedTotal.WithLabelValues("rate_limited").Inc()
					transport.WriteAPIError(w, api.NewTooManyRequestsError("rate limit exceeded"))
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(SetIdentity(r.Context(), result.Identity)))
		})
	}
}
