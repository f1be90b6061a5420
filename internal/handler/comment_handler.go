package handler

import (
	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/metrics"
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"errors"
	"net/http"
)

// CommentHandler holds the dependencies for the comment handlers.
type CommentHandler struct {
	comments service.CommentServicer
	posts    service.PostServicer
	view     middleware.Renderer
	log      logger.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(cs service.CommentServicer, ps service.PostServicer, v middleware.Renderer, log logger.Logger) *CommentHandler {
	return &CommentHandler{comments: cs, posts: ps, view: v, log: log}
}

// commentIDs reads the post and comment IDs from the URL.
func commentIDs(r *http.Request) (postID, commentID int64, err error) {
	if postID, err = idParam(r, "post_id"); err != nil {
		return 0, 0, err
	}
	if commentID, err = idParam(r, "comment_id"); err != nil {
		return 0, 0, err
	}
	return postID, commentID, nil
}

// addHandler attaches a comment to a post and redirects back to it.
// An invalid comment re-renders the post page with the error.
func (h *CommentHandler) addHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	postID, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	viewer := middleware.ViewerFrom(r.Context())
	in := service.CommentInput{Text: r.FormValue("text")}

	_, err = h.comments.AddComment(r.Context(), viewer, postID, in)
	if err == nil {
		metrics.ObserveContentWrite("comment", "create")
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return nil
	}
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, middleware.LoginPath, http.StatusFound)
		return nil
	}
	errs := validationFields(err)
	if errs == nil {
		return serviceError(err, "Failed to add comment")
	}
	detail, err := h.posts.PostDetail(r.Context(), viewer, postID)
	if err != nil {
		return serviceError(err, "Failed to load post")
	}
	return renderDetail(w, r, h.view, detail, in, errs)
}

// editFormHandler displays the comment form. Non-authors go back to the post.
func (h *CommentHandler) editFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.showForm(w, r, false)
}

// deleteFormHandler asks the author to confirm the deletion.
func (h *CommentHandler) deleteFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.showForm(w, r, true)
}

func (h *CommentHandler) showForm(w http.ResponseWriter, r *http.Request, isDelete bool) *middleware.AppError {
	postID, commentID, err := commentIDs(r)
	if err != nil {
		return notFoundError(err)
	}
	comment, err := h.comments.CommentForEdit(r.Context(), middleware.ViewerFrom(r.Context()), postID, commentID)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return nil
	}
	if err != nil {
		return serviceError(err, "Failed to load comment")
	}
	return h.renderForm(w, r, comment, service.CommentInput{Text: comment.Text}, nil, isDelete, http.StatusOK)
}

// editHandler saves the new comment text and redirects to the post.
func (h *CommentHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	postID, commentID, err := commentIDs(r)
	if err != nil {
		return notFoundError(err)
	}
	in := service.CommentInput{Text: r.FormValue("text")}
	comment, err := h.comments.UpdateComment(r.Context(), middleware.ViewerFrom(r.Context()), postID, commentID, in)
	switch {
	case err == nil:
		metrics.ObserveContentWrite("comment", "update")
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return nil
	case errors.Is(err, service.ErrAuthorizationDenied):
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return nil
	}
	errs := validationFields(err)
	if errs == nil {
		return serviceError(err, "Failed to update comment")
	}
	if comment == nil {
		comment = &data.Comment{ID: commentID, PostID: postID}
	}
	return h.renderForm(w, r, comment, in, errs, false, http.StatusUnprocessableEntity)
}

// deleteHandler removes the comment and redirects to the post.
func (h *CommentHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	postID, commentID, err := commentIDs(r)
	if err != nil {
		return notFoundError(err)
	}
	err = h.comments.DeleteComment(r.Context(), middleware.ViewerFrom(r.Context()), postID, commentID)
	if err != nil && !errors.Is(err, service.ErrAuthorizationDenied) {
		return serviceError(err, "Failed to delete comment")
	}
	if err == nil {
		metrics.ObserveContentWrite("comment", "delete")
	}
	http.Redirect(w, r, postURL(postID), http.StatusFound)
	return nil
}

func (h *CommentHandler) renderForm(w http.ResponseWriter, r *http.Request, comment *data.Comment, form service.CommentInput,
	errs map[string]string, isDelete bool, status int) *middleware.AppError {
	data := map[string]interface{}{
		"Comment":  comment,
		"PostID":   comment.PostID,
		"Form":     form,
		"Errors":   errs,
		"IsDelete": isDelete,
	}
	if err := render(w, r, h.view, "comment.html", data, status); err != nil {
		return renderError(err, "comment form")
	}
	return nil
}
