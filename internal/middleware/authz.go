package middleware

import (
	"blogicum/internal/auth"
	"blogicum/internal/logger"
	"net/http"

	"github.com/casbin/casbin/v2"
)

// Authorizer creates a new middleware for authorization.
// The casbin subject is the viewer's role. Anonymous viewers that hit a
// route reserved for authors are sent to the login page instead of a 403.
func Authorizer(e casbin.IEnforcer, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer := ViewerFrom(r.Context())
			role := auth.RoleAuthor
			if viewer.IsAnonymous() {
				role = auth.RoleAnonymous
			}

			allowed, err := e.Enforce(role, r.URL.Path, r.Method)
			if err != nil {
				log.Error(err, "Authorization check failed")
				http.Error(w, "Authorization error", http.StatusInternalServerError)
				return
			}

			if !allowed {
				if viewer.IsAnonymous() {
					redirectToLogin(w, r)
					return
				}
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
