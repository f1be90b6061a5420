package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// ErrDuplicateUsername is returned when a username is already taken.
var ErrDuplicateUsername = errors.New("data: duplicate username")

// ErrDuplicateOIDCSubject is returned when an OIDC subject is already linked to a user.
var ErrDuplicateOIDCSubject = errors.New("data: duplicate oidc subject")

// UserRepository handles database operations for users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, first_name, last_name, password_hash, oidc_subject, created_at`

// Create inserts a new user and returns its ID.
func (r *UserRepository) Create(ctx context.Context, user *User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO users (username, email, first_name, last_name, password_hash, oidc_subject, created_at)
		VALUES (:username, :email, :first_name, :last_name, :password_hash, :oidc_subject, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			// Both SQLite and MySQL name the violated column or key in the message.
			if strings.Contains(err.Error(), "oidc_subject") {
				return 0, ErrDuplicateOIDCSubject
			}
			return 0, ErrDuplicateUsername
		}
		return 0, fmt.Errorf("failed to create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	user.ID = id
	return id, nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

// GetByUsername retrieves a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

// GetByOIDCSubject retrieves the user linked to an OIDC subject.
func (r *UserRepository) GetByOIDCSubject(ctx context.Context, subject string) (*User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE oidc_subject = ?`, subject)
}

// UpdateProfile saves the editable profile fields of a user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *User) error {
	query := `UPDATE users SET username = :username, email = :email, first_name = :first_name, last_name = :last_name WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUsername
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	// MySQL reports zero affected rows when nothing changed, so only a missing user is an error here.
	if rowsAffected == 0 {
		if _, err := r.GetByID(ctx, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg interface{}) (*User, error) {
	var user User
	if err := r.db.GetContext(ctx, &user, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// isUniqueViolation recognises unique-constraint failures from every supported driver.
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	// modernc.org/sqlite only exposes the message text.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
