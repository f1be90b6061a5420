package handler

import (
	"blogicum/internal/auth"
	"blogicum/internal/logger"
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"blogicum/internal/session"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// IdentityProvider is the part of the OIDC authenticator the handlers use.
type IdentityProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	ExchangeIdentity(ctx context.Context, code string) (*auth.Identity, error)
}

// AuthHandler holds the dependencies for the account handlers.
type AuthHandler struct {
	accounts service.AccountServicer
	session  session.Manager
	oidc     IdentityProvider
	view     middleware.Renderer
	log      logger.Logger
}

// NewAuthHandler creates a new AuthHandler. A nil provider disables OIDC login.
func NewAuthHandler(accounts service.AccountServicer, sm session.Manager, provider IdentityProvider, v middleware.Renderer, log logger.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, session: sm, oidc: provider, view: v, log: log}
}

const stateCookie = "oidc_state"

// loginFormHandler shows the username and password form.
func (h *AuthHandler) loginFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderLogin(w, r, "", safeNext(r.URL.Query().Get("next")), "", http.StatusOK)
}

// loginHandler checks the credentials and starts a session.
func (h *AuthHandler) loginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	username := r.FormValue("username")
	next := safeNext(r.FormValue("next"))

	user, err := h.accounts.Authenticate(r.Context(), username, r.FormValue("password"))
	if errors.Is(err, service.ErrInvalidCredentials) {
		return h.renderLogin(w, r, username, next, "Please enter a correct username and password.", http.StatusUnprocessableEntity)
	}
	if err != nil {
		return serviceError(err, "Failed to log in")
	}
	if err := h.startSession(r.Context(), user.ID); err != nil {
		return serviceError(err, "Failed to start session")
	}
	http.Redirect(w, r, next, http.StatusFound)
	return nil
}

func (h *AuthHandler) renderLogin(w http.ResponseWriter, r *http.Request, username, next, msg string, status int) *middleware.AppError {
	data := map[string]interface{}{
		"Username":    username,
		"Next":        next,
		"Error":       msg,
		"OIDCEnabled": h.oidc != nil,
	}
	if err := render(w, r, h.view, "login.html", data, status); err != nil {
		return renderError(err, "login page")
	}
	return nil
}

// registerFormHandler shows the sign-up form.
func (h *AuthHandler) registerFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.renderForm(w, r, "register.html", service.RegisterInput{}, nil, http.StatusOK)
}

// registerHandler creates an account and sends the user to the login page.
func (h *AuthHandler) registerHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := service.RegisterInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	user, err := h.accounts.Register(r.Context(), in)
	if err != nil {
		if errs := validationFields(err); errs != nil {
			in.Password = ""
			return h.renderForm(w, r, "register.html", in, errs, http.StatusUnprocessableEntity)
		}
		return serviceError(err, "Failed to register")
	}
	h.log.Info("Registered user " + user.Username)
	http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
	return nil
}

// logoutHandler destroys the session and redirects to the feed.
func (h *AuthHandler) logoutHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.session.Destroy(r.Context()); err != nil {
		return serviceError(err, "Failed to log out")
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// profileFormHandler shows the viewer's profile form.
func (h *AuthHandler) profileFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := middleware.ViewerFrom(r.Context())
	user, err := h.accounts.GetUser(r.Context(), viewer.ID)
	if err != nil {
		return serviceError(err, "Failed to load profile")
	}
	form := service.ProfileInput{
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	return h.renderForm(w, r, "user.html", form, nil, http.StatusOK)
}

// profileHandler saves the viewer's profile and redirects to their page.
func (h *AuthHandler) profileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := service.ProfileInput{
		Username:  r.FormValue("username"),
		Email:     r.FormValue("email"),
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
	}
	user, err := h.accounts.UpdateProfile(r.Context(), middleware.ViewerFrom(r.Context()), in)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return nil
	}
	if err != nil {
		if errs := validationFields(err); errs != nil {
			return h.renderForm(w, r, "user.html", in, errs, http.StatusUnprocessableEntity)
		}
		return serviceError(err, "Failed to update profile")
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
	return nil
}

func (h *AuthHandler) renderForm(w http.ResponseWriter, r *http.Request, name string, form interface{}, errs map[string]string, status int) *middleware.AppError {
	data := map[string]interface{}{
		"Form":   form,
		"Errors": errs,
	}
	if err := render(w, r, h.view, name, data, status); err != nil {
		return renderError(err, name)
	}
	return nil
}

// oidcLoginHandler redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) oidcLoginHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return notFoundError(errors.New("oidc login is not configured"))
	}
	state, err := randString(16)
	if err != nil {
		return serviceError(err, "Failed to start login")
	}
	// Store the state in a short-lived cookie to verify on callback.
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(10 * time.Minute / time.Second),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
	return nil
}

// oidcCallbackHandler is the redirect URL for the OIDC provider.
// It exchanges the code, links or creates the local account and starts a session.
func (h *AuthHandler) oidcCallbackHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if h.oidc == nil {
		return notFoundError(errors.New("oidc login is not configured"))
	}
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Login state not found", Code: http.StatusBadRequest}
	}
	if r.URL.Query().Get("state") != cookie.Value {
		return &middleware.AppError{Error: errors.New("state mismatch"), Message: "Login state did not match", Code: http.StatusBadRequest}
	}
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Path: "/", MaxAge: -1})

	identity, err := h.oidc.ExchangeIdentity(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to verify login", Code: http.StatusUnauthorized}
	}
	user, err := h.accounts.ResolveOIDC(r.Context(), *identity)
	if err != nil {
		return serviceError(err, "Failed to load account")
	}
	if err := h.startSession(r.Context(), user.ID); err != nil {
		return serviceError(err, "Failed to start session")
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// startSession renews the session token before storing the user, so a pre-login token cannot be reused.
func (h *AuthHandler) startSession(ctx context.Context, userID int64) error {
	if err := h.session.RenewToken(ctx); err != nil {
		return err
	}
	h.session.Put(ctx, session.UserIDKey, userID)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
