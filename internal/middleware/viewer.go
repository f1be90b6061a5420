package middleware

import (
	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/service"
	"blogicum/internal/session"
	"context"
	"errors"
	"net/http"
)

// UserLookup resolves the user stored in the session.
type UserLookup interface {
	GetUser(ctx context.Context, id int64) (*data.User, error)
}

// LoadViewer puts the session's user into the request context.
// A session pointing at a deleted user is cleared and the request continues anonymously.
func LoadViewer(sm session.Manager, users UserLookup, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sm.GetInt64(r.Context(), session.UserIDKey)
			if id == 0 {
				next.ServeHTTP(w, r)
				return
			}
			user, err := users.GetUser(r.Context(), id)
			switch {
			case errors.Is(err, service.ErrNotFound):
				sm.Remove(r.Context(), session.UserIDKey)
			case err != nil:
				log.Error(err, "Failed to load session user")
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			default:
				r = r.WithContext(SetViewer(r.Context(), service.Viewer{ID: user.ID, Username: user.Username}))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireLogin sends anonymous viewers to the login page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ViewerFrom(r.Context()).IsAnonymous() {
			redirectToLogin(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// LoginPath is where anonymous viewers are sent when they need an account.
const LoginPath = "/auth/login"

func redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := LoginPath
	if r.Method == http.MethodGet {
		target += "?next=" + r.URL.EscapedPath()
	}
	http.Redirect(w, r, target, http.StatusFound)
}
