package service

import (
	"blogicum/internal/data"
	"context"
	"time"
)

// CommentServicer defines the interface for interacting with comments.
type CommentServicer interface {
	AddComment(ctx context.Context, v Viewer, postID int64, in CommentInput) (*data.Comment, error)
	CommentForEdit(ctx context.Context, v Viewer, postID, commentID int64) (*data.Comment, error)
	UpdateComment(ctx context.Context, v Viewer, postID, commentID int64, in CommentInput) (*data.Comment, error)
	DeleteComment(ctx context.Context, v Viewer, postID, commentID int64) error
}

// CommentService manages comments on posts.
type CommentService struct {
	posts    PostRepository
	comments CommentRepository
	now      func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(posts PostRepository, comments CommentRepository) *CommentService {
	return &CommentService{posts: posts, comments: comments, now: time.Now}
}

// AddComment attaches a comment by the viewer to a post the viewer can see.
func (s *CommentService) AddComment(ctx context.Context, v Viewer, postID int64, in CommentInput) (*data.Comment, error) {
	if v.IsAnonymous() {
		return nil, ErrAuthorizationDenied
	}
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, notFound(err)
	}
	if !CanView(v, post, s.now()) {
		return nil, ErrNotFound
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	comment := &data.Comment{
		AuthorID:       v.ID,
		PostID:         post.ID,
		Text:           in.Text,
		IsPublished:    true,
		AuthorUsername: v.Username,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CommentForEdit returns a comment of the addressed post that the viewer wrote.
func (s *CommentService) CommentForEdit(ctx context.Context, v Viewer, postID, commentID int64) (*data.Comment, error) {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, notFound(err)
	}
	if comment.PostID != postID {
		return nil, ErrNotFound
	}
	if err := Authorize(v, comment.AuthorID); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment replaces the text of the viewer's comment.
func (s *CommentService) UpdateComment(ctx context.Context, v Viewer, postID, commentID int64, in CommentInput) (*data.Comment, error) {
	comment, err := s.CommentForEdit(ctx, v, postID, commentID)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	comment.Text = in.Text
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes the viewer's comment.
func (s *CommentService) DeleteComment(ctx context.Context, v Viewer, postID, commentID int64) error {
	if _, err := s.CommentForEdit(ctx, v, postID, commentID); err != nil {
		return err
	}
	return notFound(s.comments.Delete(ctx, commentID))
}
