package handler

import (
	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/metrics"
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"blogicum/internal/view"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
)

// BlogHandler holds the dependencies for the feed and post handlers.
type BlogHandler struct {
	posts          service.PostServicer
	view           middleware.Renderer
	log            logger.Logger
	maxUploadBytes int64
}

// NewBlogHandler creates a new BlogHandler. maxUploadMB bounds the size of a post form with its image.
func NewBlogHandler(ps service.PostServicer, v middleware.Renderer, log logger.Logger, maxUploadMB int64) *BlogHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 5
	}
	return &BlogHandler{
		posts:          ps,
		view:           v,
		log:            log,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// indexHandler renders the global feed.
func (h *BlogHandler) indexHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, err := pageParam(r)
	if err != nil {
		return notFoundError(err)
	}
	page, err := h.posts.Feed(r.Context(), middleware.ViewerFrom(r.Context()), number)
	if err != nil {
		return serviceError(err, "Failed to load posts")
	}
	if err := render(w, r, h.view, "index.html", map[string]interface{}{"Page": page}, http.StatusOK); err != nil {
		return renderError(err, "feed")
	}
	return nil
}

// categoryHandler renders the feed of a published category.
func (h *BlogHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, err := pageParam(r)
	if err != nil {
		return notFoundError(err)
	}
	category, page, err := h.posts.CategoryFeed(r.Context(), middleware.ViewerFrom(r.Context()), chi.URLParam(r, "slug"), number)
	if err != nil {
		return serviceError(err, "Failed to load category")
	}
	data := map[string]interface{}{
		"Category": category,
		"Page":     page,
	}
	if err := render(w, r, h.view, "category.html", data, http.StatusOK); err != nil {
		return renderError(err, "category")
	}
	return nil
}

// profileHandler renders a user's page with their posts.
func (h *BlogHandler) profileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	number, err := pageParam(r)
	if err != nil {
		return notFoundError(err)
	}
	viewer := middleware.ViewerFrom(r.Context())
	user, page, err := h.posts.ProfileFeed(r.Context(), viewer, chi.URLParam(r, "username"), number)
	if err != nil {
		return serviceError(err, "Failed to load profile")
	}
	data := map[string]interface{}{
		"Profile": user,
		"Page":    page,
		"IsOwner": !viewer.IsAnonymous() && viewer.ID == user.ID,
	}
	if err := render(w, r, h.view, "profile.html", data, http.StatusOK); err != nil {
		return renderError(err, "profile")
	}
	return nil
}

// detailHandler renders a post with its comments and the comment form.
func (h *BlogHandler) detailHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	detail, err := h.posts.PostDetail(r.Context(), middleware.ViewerFrom(r.Context()), id)
	if err != nil {
		return serviceError(err, "Failed to load post")
	}
	return renderDetail(w, r, h.view, detail, service.CommentInput{}, nil)
}

func renderDetail(w http.ResponseWriter, r *http.Request, v middleware.Renderer, detail *service.PostDetail,
	form service.CommentInput, errs map[string]string) *middleware.AppError {
	data := map[string]interface{}{
		"Post":     detail.Post,
		"Comments": detail.Comments,
		"Form":     form,
		"Errors":   errs,
	}
	status := http.StatusOK
	if errs != nil {
		status = http.StatusUnprocessableEntity
	}
	if err := render(w, r, v, "detail.html", data, status); err != nil {
		return renderError(err, "post")
	}
	return nil
}

// postForm holds the raw values of the post form for re-rendering.
type postForm struct {
	Title       string
	Text        string
	PubDate     string
	CategoryID  *int64
	LocationID  *int64
	IsPublished bool
	Image       string
}

func formFromPost(p *data.Post) postForm {
	return postForm{
		Title:       p.Title,
		Text:        p.Text,
		PubDate:     p.PubDate.UTC().Format(view.DateTimeLocalLayout),
		CategoryID:  p.CategoryID,
		LocationID:  p.LocationID,
		IsPublished: p.IsPublished,
		Image:       p.Image,
	}
}

// createFormHandler displays an empty post form.
func (h *BlogHandler) createFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	form := postForm{
		PubDate:     time.Now().UTC().Format(view.DateTimeLocalLayout),
		IsPublished: true,
	}
	return h.renderPostForm(w, r, form, nil, 0, http.StatusOK)
}

// createHandler stores a new post and redirects to the author's profile.
func (h *BlogHandler) createHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := middleware.ViewerFrom(r.Context())
	in, form, closeFile, errs := h.parsePostForm(w, r)
	defer closeFile()
	if errs == nil {
		_, err := h.posts.CreatePost(r.Context(), viewer, in)
		if err == nil {
			metrics.ObserveContentWrite("post", "create")
			http.Redirect(w, r, profileURL(viewer.Username), http.StatusFound)
			return nil
		}
		if errs = validationFields(err); errs == nil {
			return serviceError(err, "Failed to create post")
		}
	}
	return h.renderPostForm(w, r, form, errs, 0, http.StatusUnprocessableEntity)
}

// editFormHandler displays the post form filled with the post. Non-authors go back to the post.
func (h *BlogHandler) editFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	post, err := h.posts.PostForEdit(r.Context(), middleware.ViewerFrom(r.Context()), id)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return nil
	}
	if err != nil {
		return serviceError(err, "Failed to load post")
	}
	return h.renderPostForm(w, r, formFromPost(post), nil, id, http.StatusOK)
}

// editHandler saves changes to a post and redirects to it.
func (h *BlogHandler) editHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	viewer := middleware.ViewerFrom(r.Context())
	existing, err := h.posts.PostForEdit(r.Context(), viewer, id)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return nil
	}
	if err != nil {
		return serviceError(err, "Failed to load post")
	}

	in, form, closeFile, errs := h.parsePostForm(w, r)
	defer closeFile()
	form.Image = existing.Image
	if errs == nil {
		_, err := h.posts.UpdatePost(r.Context(), viewer, id, in)
		switch {
		case err == nil:
			metrics.ObserveContentWrite("post", "update")
			http.Redirect(w, r, postURL(id), http.StatusFound)
			return nil
		case errors.Is(err, service.ErrAuthorizationDenied):
			http.Redirect(w, r, postURL(id), http.StatusFound)
			return nil
		}
		if errs = validationFields(err); errs == nil {
			return serviceError(err, "Failed to update post")
		}
	}
	return h.renderPostForm(w, r, form, errs, id, http.StatusUnprocessableEntity)
}

// deleteFormHandler asks the author to confirm the deletion.
func (h *BlogHandler) deleteFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	post, err := h.posts.PostForEdit(r.Context(), middleware.ViewerFrom(r.Context()), id)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return nil
	}
	if err != nil {
		return serviceError(err, "Failed to load post")
	}
	if err := render(w, r, h.view, "delete.html", map[string]interface{}{"Post": post}, http.StatusOK); err != nil {
		return renderError(err, "delete confirmation")
	}
	return nil
}

// deleteHandler removes a post and its comments, then redirects to the author's profile.
func (h *BlogHandler) deleteHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, err := idParam(r, "post_id")
	if err != nil {
		return notFoundError(err)
	}
	viewer := middleware.ViewerFrom(r.Context())
	err = h.posts.DeletePost(r.Context(), viewer, id)
	if errors.Is(err, service.ErrAuthorizationDenied) {
		http.Redirect(w, r, postURL(id), http.StatusFound)
		return nil
	}
	if err != nil {
		return serviceError(err, "Failed to delete post")
	}
	metrics.ObserveContentWrite("post", "delete")
	http.Redirect(w, r, profileURL(viewer.Username), http.StatusFound)
	return nil
}

func (h *BlogHandler) renderPostForm(w http.ResponseWriter, r *http.Request, form postForm, errs map[string]string, postID int64, status int) *middleware.AppError {
	options, err := h.posts.FormOptions(r.Context())
	if err != nil {
		return serviceError(err, "Failed to load form options")
	}
	data := map[string]interface{}{
		"Form":    form,
		"Errors":  errs,
		"Options": options,
		"IsEdit":  postID != 0,
		"PostID":  postID,
	}
	if err := render(w, r, h.view, "create.html", data, status); err != nil {
		return renderError(err, "post form")
	}
	return nil
}

// parsePostForm decodes a post form. Field problems the service cannot see (unparsable dates and
// IDs, oversized bodies) come back as errs. The returned close func releases the uploaded file.
func (h *BlogHandler) parsePostForm(w http.ResponseWriter, r *http.Request) (service.PostInput, postForm, func(), map[string]string) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		if !errors.Is(err, http.ErrNotMultipart) {
			return service.PostInput{}, postForm{}, noop, map[string]string{"image": "The upload is too large or malformed."}
		}
		if err := r.ParseForm(); err != nil {
			return service.PostInput{}, postForm{}, noop, map[string]string{"text": "The form could not be read."}
		}
	}

	form := postForm{
		Title:       r.FormValue("title"),
		Text:        r.FormValue("text"),
		PubDate:     r.FormValue("pub_date"),
		IsPublished: r.FormValue("is_published") != "",
	}
	in := service.PostInput{
		Title:       form.Title,
		Text:        form.Text,
		IsPublished: form.IsPublished,
	}
	errs := map[string]string{}

	if form.PubDate != "" {
		t, err := time.ParseInLocation(view.DateTimeLocalLayout, form.PubDate, time.UTC)
		if err != nil {
			errs["pub_date"] = "Enter a valid date/time."
		}
		in.PubDate = t
	}
	var err error
	if form.CategoryID, err = optionalID(r.FormValue("category")); err != nil {
		errs["category"] = "Select a valid category."
	}
	in.CategoryID = form.CategoryID
	if form.LocationID, err = optionalID(r.FormValue("location")); err != nil {
		errs["location"] = "Select a valid location."
	}
	in.LocationID = form.LocationID

	closeFile := noop
	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		closeFile = closer(file, h.log)
		in.Image = &service.Upload{Filename: header.Filename, Content: file}
	case !errors.Is(err, http.ErrMissingFile) && !errors.Is(err, http.ErrNotMultipart):
		errs["image"] = "The upload could not be read."
	}

	if len(errs) > 0 {
		return in, form, closeFile, errs
	}
	return in, form, closeFile, nil
}

func optionalID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, fmt.Errorf("invalid id %q", raw)
	}
	return &id, nil
}

func closer(f multipart.File, log logger.Logger) func() {
	return func() {
		if err := f.Close(); err != nil {
			log.Warn("failed to close uploaded file: " + err.Error())
		}
	}
}
