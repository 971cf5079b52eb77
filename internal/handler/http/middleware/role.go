package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/auth"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/domain/user"
	"github.com/cmlabs-hris/clinic-attendance-go/internal/handler/http/response"
)

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if !user.HasPermission(p.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, p.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireWorkerProfile rejects accounts that are not linked to a worker.
func RequireWorkerProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if p.WorkerID == nil || *p.WorkerID == "" {
			response.HandleError(w, user.ErrWorkerProfileRequired)
			return
		}

		next.ServeHTTP(w, r)
	})
}
