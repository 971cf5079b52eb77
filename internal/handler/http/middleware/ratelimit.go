package middleware

import (
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/response"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/pkg/ratelimit"
)

// RateLimit throttles per authenticated user. A limiter failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, route string, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.RemoteAddr
			if p, ok := PrincipalFromContext(r.Context()); ok {
				key = p.UserID
			}

			allowed, err := limiter.Allow(r.Context(), route+":"+key)
			if err != nil {
				slog.Warn("rate limiter unavailable", "route", route, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !allowed {
				m.IncRateLimited(route)
				response.HandleError(w, auth.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
