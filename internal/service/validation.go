package service

import (
	"blogicum/internal/data"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

// PostInput is the editable part of a post as submitted by its author.
type PostInput struct {
	Title       string    `json:"title"`
	Text        string    `json:"text"`
	PubDate     time.Time `json:"pub_date"`
	CategoryID  *int64    `json:"category"`
	LocationID  *int64    `json:"location"`
	IsPublished bool      `json:"is_published"`
	Image       *Upload   `json:"-"`
}

func (in *PostInput) validate() error {
	trim(&in.Title, &in.Text)
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required."),
			validation.RuneLength(1, 256).Error("Title must be at most 256 characters."),
		),
		validation.Field(&in.Text, validation.Required.Error("Text is required.")),
		validation.Field(&in.PubDate, validation.Required.Error("Publication date is required.")),
	))
}

// CommentInput is the text of a comment.
type CommentInput struct {
	Text string `json:"text"`
}

func (in *CommentInput) validate() error {
	trim(&in.Text)
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Text, validation.Required.Error("Comment text is required.")),
	))
}

// RegisterInput is a sign-up form.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *RegisterInput) validate() error {
	trim(&in.Username, &in.Email)
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Username, usernameRules()...),
		validation.Field(&in.Email, is.EmailFormat.Error("Enter a valid email address.")),
		validation.Field(&in.Password,
			validation.Required.Error("Password is required."),
			validation.RuneLength(8, 128).Error("Password must be at least 8 characters."),
		),
	))
}

// ProfileInput is the profile edit form.
type ProfileInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (in *ProfileInput) validate() error {
	trim(&in.Username, &in.Email, &in.FirstName, &in.LastName)
	return asValidationError(validation.ValidateStruct(in,
		validation.Field(&in.Username, usernameRules()...),
		validation.Field(&in.Email, is.EmailFormat.Error("Enter a valid email address.")),
		validation.Field(&in.FirstName, validation.RuneLength(0, 150)),
		validation.Field(&in.LastName, validation.RuneLength(0, 150)),
	))
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Username is required."),
		validation.RuneLength(1, 150).Error("Username must be at most 150 characters."),
		validation.Match(usernameRegex).Error("Username may contain only letters, digits and @/./+/-/_ characters."),
	}
}

var slugRegex = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// ValidateCategory checks a category before it is stored.
func ValidateCategory(c *data.Category) error {
	trim(&c.Title, &c.Description, &c.Slug)
	return asValidationError(validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required, validation.RuneLength(1, 256)),
		validation.Field(&c.Description, validation.Required),
		validation.Field(&c.Slug,
			validation.Required,
			validation.RuneLength(1, 64),
			validation.Match(slugRegex).Error("Slug may contain only Latin letters, digits, hyphens and underscores."),
		),
	))
}

// ValidateLocation checks a location before it is stored.
func ValidateLocation(l *data.Location) error {
	trim(&l.Name)
	return asValidationError(validation.ValidateStruct(l,
		validation.Field(&l.Name, validation.Required, validation.RuneLength(1, 256)),
	))
}

// trim strips surrounding whitespace in place before a value is checked and stored,
// so text made only of spaces fails Required.
func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
