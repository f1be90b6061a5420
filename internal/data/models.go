package data

import (
	"html/template"
	"time"
)

// User is a registered blog author or reader.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	FirstName    string    `db:"first_name"`
	LastName     string    `db:"last_name"`
	PasswordHash string    `db:"password_hash"`
	OIDCSubject  *string   `db:"oidc_subject"`
	CreatedAt    time.Time `db:"created_at"`
}

// FullName joins first and last name, falling back to the username.
func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	}
	return u.Username
}

// Category groups posts under a URL slug.
type Category struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Slug        string    `db:"slug" json:"slug"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Location is an optional place a post refers to.
type Location struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	IsPublished bool      `db:"is_published" json:"is_published"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Post is a single publication. PubDate in the future defers publication.
type Post struct {
	ID          int64     `db:"id"`
	AuthorID    int64     `db:"author_id"`
	Title       string    `db:"title"`
	Text        string    `db:"text"`
	Image       string    `db:"image"`
	PubDate     time.Time `db:"pub_date"`
	LocationID  *int64    `db:"location_id"`
	CategoryID  *int64    `db:"category_id"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`

	// Populated by joins on read.
	AuthorUsername      string  `db:"author_username"`
	CategoryTitle       *string `db:"category_title"`
	CategorySlug        *string `db:"category_slug"`
	CategoryIsPublished *bool   `db:"category_is_published"`
	LocationName        *string `db:"location_name"`
	LocationIsPublished *bool   `db:"location_is_published"`
	CommentCount        int     `db:"comment_count"`

	HTMLText template.HTML `db:"-"`
}

// HasPublishedCategory reports whether the post has a category that is itself published.
func (p *Post) HasPublishedCategory() bool {
	return p.CategoryID != nil && p.CategoryIsPublished != nil && *p.CategoryIsPublished
}

// HasPublishedLocation reports whether the post's location should be shown.
func (p *Post) HasPublishedLocation() bool {
	return p.LocationID != nil && p.LocationIsPublished != nil && *p.LocationIsPublished
}

// Comment belongs to a post and lives no longer than it.
type Comment struct {
	ID          int64     `db:"id"`
	AuthorID    int64     `db:"author_id"`
	PostID      int64     `db:"post_id"`
	Text        string    `db:"text"`
	IsPublished bool      `db:"is_published"`
	CreatedAt   time.Time `db:"created_at"`

	AuthorUsername string `db:"author_username"`
}
