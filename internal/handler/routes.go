package handler

import (
	"blogicum/internal/logger"
	"blogicum/internal/middleware"
	"blogicum/internal/session"
	"errors"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterDeps are the pieces NewRouter wires together.
type RouterDeps struct {
	Blog     *BlogHandler
	Comments *CommentHandler
	Auth     *AuthHandler
	Seo      *SeoHandler

	Session    session.Manager
	LoadViewer func(http.Handler) http.Handler
	Authorizer func(http.Handler) http.Handler
	Errors     func(middleware.AppHandler) http.Handler
	Log        logger.Logger

	StaticFS fs.FS  // contents served under /static/
	MediaDir string // uploaded images served under /media/
}

// NewRouter creates and configures a new chi router.
func NewRouter(d RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)

	r.NotFound(d.Errors(func(w http.ResponseWriter, r *http.Request) *middleware.AppError {
		return notFoundError(errors.New("no route"))
	}).ServeHTTP)

	// Ancillary routes bypass sessions and authorization.
	r.Get("/robots.txt", d.Seo.robotsHandler)
	r.Get("/sitemap.xml", d.Seo.sitemapHandler)
	r.Handle("/metrics", promhttp.Handler())
	if d.StaticFS != nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(d.StaticFS))))
	}
	if d.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(filesOnly{http.Dir(d.MediaDir)})))
	}

	r.Group(func(r chi.Router) {
		r.Use(d.Session.LoadAndSave)
		r.Use(d.LoadViewer)
		r.Use(d.Authorizer)
		h := d.Errors

		r.Get("/", h(d.Blog.indexHandler).ServeHTTP)
		r.Get("/category/{slug}/", h(d.Blog.categoryHandler).ServeHTTP)
		r.Get("/profile/{username}/", h(d.Blog.profileHandler).ServeHTTP)
		r.Get("/posts/{post_id}/", h(d.Blog.detailHandler).ServeHTTP)

		r.Get("/auth/login", h(d.Auth.loginFormHandler).ServeHTTP)
		r.Post("/auth/login", h(d.Auth.loginHandler).ServeHTTP)
		r.Get("/auth/register", h(d.Auth.registerFormHandler).ServeHTTP)
		r.Post("/auth/register", h(d.Auth.registerHandler).ServeHTTP)
		r.Get("/auth/oidc/login", h(d.Auth.oidcLoginHandler).ServeHTTP)
		r.Get("/auth/oidc/callback", h(d.Auth.oidcCallbackHandler).ServeHTTP)

		// Some author paths also match a public pattern in the policy table
		// (/posts/create/ and /posts/:id/), so they check for a login themselves.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireLogin)

			r.Get("/posts/create/", h(d.Blog.createFormHandler).ServeHTTP)
			r.Post("/posts/create/", h(d.Blog.createHandler).ServeHTTP)
			r.Get("/posts/{post_id}/edit/", h(d.Blog.editFormHandler).ServeHTTP)
			r.Post("/posts/{post_id}/edit/", h(d.Blog.editHandler).ServeHTTP)
			r.Get("/posts/{post_id}/delete/", h(d.Blog.deleteFormHandler).ServeHTTP)
			r.Post("/posts/{post_id}/delete/", h(d.Blog.deleteHandler).ServeHTTP)

			r.Post("/posts/{post_id}/comment/", h(d.Comments.addHandler).ServeHTTP)
			r.Get("/posts/{post_id}/edit_comment/{comment_id}/", h(d.Comments.editFormHandler).ServeHTTP)
			r.Post("/posts/{post_id}/edit_comment/{comment_id}/", h(d.Comments.editHandler).ServeHTTP)
			r.Get("/posts/{post_id}/delete_comment/{comment_id}/", h(d.Comments.deleteFormHandler).ServeHTTP)
			r.Post("/posts/{post_id}/delete_comment/{comment_id}/", h(d.Comments.deleteHandler).ServeHTTP)

			r.Get("/profile/edit/", h(d.Auth.profileFormHandler).ServeHTTP)
			r.Post("/profile/edit/", h(d.Auth.profileHandler).ServeHTTP)
			r.Post("/auth/logout", h(d.Auth.logoutHandler).ServeHTTP)
		})
	})

	return r
}

// filesOnly hides directories so the file server never lists uploads.
type filesOnly struct {
	root http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
