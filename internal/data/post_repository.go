package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
)

// PostFilter narrows and pages a post listing.
type PostFilter struct {
	AuthorID   *int64
	CategoryID *int64
	// Now is the reference time for deferred publication.
	Now time.Time
	// IncludeHidden skips the publication checks (is_published, pub_date, category published).
	IncludeHidden bool
	Limit         int
	Offset        int
}

func (f PostFilter) where() (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.AuthorID != nil {
		clauses = append(clauses, "p.author_id = ?")
		args = append(args, *f.AuthorID)
	}
	if f.CategoryID != nil {
		clauses = append(clauses, "p.category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if !f.IncludeHidden {
		clauses = append(clauses, "p.is_published = 1 AND p.pub_date <= ? AND (p.category_id IS NULL OR cat.is_published = 1)")
		args = append(args, f.Now.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

const postSelect = `SELECT p.id, p.author_id, p.title, p.text, p.image, p.pub_date, p.location_id, p.category_id,
	p.is_published, p.created_at,
	u.username AS author_username,
	cat.title AS category_title, cat.slug AS category_slug, cat.is_published AS category_is_published,
	loc.name AS location_name, loc.is_published AS location_is_published,
	(SELECT COUNT(*) FROM comments cm WHERE cm.post_id = p.id) AS comment_count
FROM posts p
JOIN users u ON u.id = p.author_id
LEFT JOIN categories cat ON cat.id = p.category_id
LEFT JOIN locations loc ON loc.id = p.location_id`

// PostRepository handles database operations for posts.
type PostRepository struct {
	db *sqlx.DB
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(db *sqlx.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post and sets its ID.
func (r *PostRepository) Create(ctx context.Context, post *Post) error {
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}
	post.CreatedAt = post.CreatedAt.UTC()
	post.PubDate = post.PubDate.UTC()
	query := `INSERT INTO posts (author_id, title, text, image, pub_date, location_id, category_id, is_published, created_at)
		VALUES (:author_id, :title, :text, :image, :pub_date, :location_id, :category_id, :is_published, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, post)
	if err != nil {
		return fmt.Errorf("failed to execute create post query: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read post id: %w", err)
	}
	post.ID = id
	return nil
}

// GetByID retrieves a post with its joined fields, regardless of visibility.
func (r *PostRepository) GetByID(ctx context.Context, id int64) (*Post, error) {
	var post Post
	if err := r.db.GetContext(ctx, &post, postSelect+` WHERE p.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get post by id: %w", err)
	}
	return &post, nil
}

// Update saves the editable fields of a post.
func (r *PostRepository) Update(ctx context.Context, post *Post) error {
	post.PubDate = post.PubDate.UTC()
	query := `UPDATE posts SET title = :title, text = :text, image = :image, pub_date = :pub_date,
		location_id = :location_id, category_id = :category_id, is_published = :is_published WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}
	return nil
}

// Delete removes a post; its comments go with it.
func (r *PostRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	return expectRow(res)
}

// List returns posts matching the filter, newest publication first, ties in insertion order.
func (r *PostRepository) List(ctx context.Context, f PostFilter) ([]*Post, error) {
	where, args := f.where()
	query := postSelect + where + ` ORDER BY p.pub_date DESC, p.id ASC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}
	var posts []*Post
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// Count returns the number of posts matching the filter, ignoring Limit and Offset.
func (r *PostRepository) Count(ctx context.Context, f PostFilter) (int, error) {
	where, args := f.where()
	query := `SELECT COUNT(*) FROM posts p LEFT JOIN categories cat ON cat.id = p.category_id` + where
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count posts: %w", err)
	}
	return n, nil
}
