package middleware

import (
	"blogicum/internal/logger"
	"fmt"
	"io"
	"net/http"
)

// AppError represents a custom error type for the application.
type AppError struct {
	Error   error
	Message string
	Code    int
}

// AppHandler is a custom handler function type that returns an AppError.
type AppHandler func(http.ResponseWriter, *http.Request) *AppError

// Renderer renders a named page template.
type Renderer interface {
	Render(w io.Writer, r *http.Request, name string, data map[string]interface{}) error
}

// Error is a middleware that converts handler errors into user-friendly error pages.
// Only server errors are logged at error level.
func Error(log logger.Logger, view Renderer) func(AppHandler) http.Handler {
	return func(next AppHandler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					err, ok := rec.(error)
					if !ok {
						err = fmt.Errorf("%v", rec)
					}
					log.Error(err, "Panic recovered")
					renderError(log, view, w, r, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				}
			}()

			appErr := next(w, r)
			if appErr == nil {
				return
			}
			if appErr.Code >= http.StatusInternalServerError {
				log.Error(appErr.Error, appErr.Message)
			} else {
				log.Debug(fmt.Sprintf("%s %s: %d %s", r.Method, r.URL.Path, appErr.Code, appErr.Message))
			}
			renderError(log, view, w, r, appErr.Code, appErr.Message)
		})
	}
}

func renderError(log logger.Logger, view Renderer, w http.ResponseWriter, r *http.Request, code int, message string) {
	data := map[string]interface{}{
		"StatusCode": code,
		"StatusText": message,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	if err := view.Render(w, r, "error.html", data); err != nil {
		log.Error(err, "Failed to render error page")
	}
}
