package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// CommentRepository handles database operations for comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentSelect = `SELECT cm.id, cm.author_id, cm.post_id, cm.text, cm.is_published, cm.created_at,
	u.username AS author_username
FROM comments cm
JOIN users u ON u.id = cm.author_id`

// Create inserts a comment and sets its ID.
func (r *CommentRepository) Create(ctx context.Context, comment *Comment) error {
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	comment.CreatedAt = comment.CreatedAt.UTC()
	query := `INSERT INTO comments (author_id, post_id, text, is_published, created_at)
		VALUES (:author_id, :post_id, :text, :is_published, :created_at)`
	res, err := r.db.NamedExecContext(ctx, query, comment)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read comment id: %w", err)
	}
	comment.ID = id
	return nil
}

// GetByID retrieves a single comment.
func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*Comment, error) {
	var comment Comment
	if err := r.db.GetContext(ctx, &comment, commentSelect+` WHERE cm.id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("failed to get comment by id: %w", err)
	}
	return &comment, nil
}

// Update saves a comment's text.
func (r *CommentRepository) Update(ctx context.Context, comment *Comment) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE comments SET text = ? WHERE id = ?`, comment.Text, comment.ID); err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return nil
}

// Delete removes a comment.
func (r *CommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return expectRow(res)
}

// ListByPost returns every comment of a post with its author, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID int64) ([]*Comment, error) {
	var comments []*Comment
	query := commentSelect + ` WHERE cm.post_id = ? ORDER BY cm.created_at ASC, cm.id ASC`
	if err := r.db.SelectContext(ctx, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}
