package service

import (
	"blogicum/internal/auth"
	"blogicum/internal/data"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// AccountServicer defines the interface for user accounts.
type AccountServicer interface {
	Register(ctx context.Context, in RegisterInput) (*data.User, error)
	Authenticate(ctx context.Context, username, password string) (*data.User, error)
	ResolveOIDC(ctx context.Context, id auth.Identity) (*data.User, error)
	GetUser(ctx context.Context, id int64) (*data.User, error)
	UpdateProfile(ctx context.Context, v Viewer, in ProfileInput) (*data.User, error)
}

// AccountService manages local and OIDC-backed accounts.
type AccountService struct {
	users UserRepository
}

// NewAccountService creates a new AccountService.
func NewAccountService(users UserRepository) *AccountService {
	return &AccountService{users: users}
}

// Register creates a local account with a bcrypt-hashed password.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*data.User, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &data.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, data.ErrDuplicateUsername) {
			return nil, fieldError("username", "A user with that username already exists.")
		}
		return nil, err
	}
	return user, nil
}

// Authenticate checks a username and password pair.
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, data.ErrNoRecord) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

var unsafeUsernameChars = regexp.MustCompile(`[^\w.@+-]`)

// maxUsernameAttempts bounds the suffixes tried when an OIDC username is taken.
const maxUsernameAttempts = 20

// ResolveOIDC returns the account linked to an OIDC subject, creating it on first login.
func (s *AccountService) ResolveOIDC(ctx context.Context, id auth.Identity) (*data.User, error) {
	if id.Subject == "" {
		return nil, errors.New("oidc identity without subject")
	}
	user, err := s.users.GetByOIDCSubject(ctx, id.Subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, data.ErrNoRecord) {
		return nil, err
	}

	base := oidcUsername(id)
	subject := id.Subject
	for i := 0; i < maxUsernameAttempts; i++ {
		username := base
		if i > 0 {
			username = fmt.Sprintf("%s%d", base, i)
		}
		user = &data.User{Username: username, Email: id.Email, OIDCSubject: &subject}
		_, err := s.users.Create(ctx, user)
		if err == nil {
			return user, nil
		}
		if errors.Is(err, data.ErrDuplicateOIDCSubject) {
			// A concurrent first login linked the subject already.
			return s.users.GetByOIDCSubject(ctx, id.Subject)
		}
		if !errors.Is(err, data.ErrDuplicateUsername) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("no free username for oidc subject %q", id.Subject)
}

func oidcUsername(id auth.Identity) string {
	name := id.PreferredUsername
	if name == "" {
		name, _, _ = strings.Cut(id.Email, "@")
	}
	name = unsafeUsernameChars.ReplaceAllString(name, "")
	if len(name) > 140 {
		name = name[:140]
	}
	if name == "" {
		name = "user"
	}
	return name
}

// GetUser returns a user by ID.
func (s *AccountService) GetUser(ctx context.Context, id int64) (*data.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return user, nil
}

// UpdateProfile edits the viewer's own profile.
func (s *AccountService) UpdateProfile(ctx context.Context, v Viewer, in ProfileInput) (*data.User, error) {
	if v.IsAnonymous() {
		return nil, ErrAuthorizationDenied
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, v.ID)
	if err != nil {
		return nil, notFound(err)
	}
	user.Username = in.Username
	user.Email = in.Email
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, data.ErrDuplicateUsername) {
			return nil, fieldError("username", "A user with that username already exists.")
		}
		return nil, err
	}
	return user, nil
}
