package handler

import (
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errBadParam = errors.New("malformed URL parameter")

// serviceError maps a service failure to an AppError. Missing and concealed records are both 404.
func serviceError(err error, msg string) *middleware.AppError {
	if errors.Is(err, service.ErrNotFound) {
		return &middleware.AppError{Error: err, Message: "Page not found", Code: http.StatusNotFound}
	}
	return &middleware.AppError{Error: err, Message: msg, Code: http.StatusInternalServerError}
}

func notFoundError(err error) *middleware.AppError {
	return &middleware.AppError{Error: err, Message: "Page not found", Code: http.StatusNotFound}
}

func renderError(err error, name string) *middleware.AppError {
	return &middleware.AppError{Error: err, Message: fmt.Sprintf("Failed to render %s", name), Code: http.StatusInternalServerError}
}

// render executes the page into memory and commits status only once it succeeded,
// so a failing template still reaches the Error middleware with nothing written.
func render(w http.ResponseWriter, r *http.Request, v middleware.Renderer, name string, data map[string]interface{}, status int) error {
	var buf bytes.Buffer
	if err := v.Render(&buf, r, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	// A failed write means the client went away; there is nobody left to report to.
	_, _ = buf.WriteTo(w)
	return nil
}

// idParam reads a positive integer URL parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, errBadParam
	}
	return id, nil
}

// pageParam reads the ?page= query parameter. A missing value means the first page.
func pageParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errBadParam
	}
	return n, nil
}

// validationFields extracts per-field messages, or nil when err is not a validation failure.
func validationFields(err error) map[string]string {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}

// safeNext accepts only local absolute paths as post-login redirect targets.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + username + "/"
}
