//go:build unit

package handler

import (
	"blogicum/internal/auth"
	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/middleware"
	"blogicum/internal/service"
	"blogicum/internal/session"
	"blogicum/internal/view"
	"blogicum/web"
	"context"
	"errors"
	"io"
	"io/fs"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// mockPostService is a mock implementation of service.PostServicer.
type mockPostService struct {
	feedFunc         func(ctx context.Context, v service.Viewer, page int) (*service.Page, error)
	categoryFeedFunc func(ctx context.Context, v service.Viewer, slug string, page int) (*data.Category, *service.Page, error)
	profileFeedFunc  func(ctx context.Context, v service.Viewer, username string, page int) (*data.User, *service.Page, error)
	detailFunc       func(ctx context.Context, v service.Viewer, id int64) (*service.PostDetail, error)
	createFunc       func(ctx context.Context, v service.Viewer, in service.PostInput) (*data.Post, error)
	forEditFunc      func(ctx context.Context, v service.Viewer, id int64) (*data.Post, error)
	updateFunc       func(ctx context.Context, v service.Viewer, id int64, in service.PostInput) (*data.Post, error)
	deleteFunc       func(ctx context.Context, v service.Viewer, id int64) error
	sitemapFunc      func(ctx context.Context) ([]*data.Post, error)

	createCalls int
	updateCalls int
	deleteCalls int
	lastInput   service.PostInput
}

var _ service.PostServicer = (*mockPostService)(nil)

func (m *mockPostService) Feed(ctx context.Context, v service.Viewer, page int) (*service.Page, error) {
	if m.feedFunc != nil {
		return m.feedFunc(ctx, v, page)
	}
	return &service.Page{Number: 1, TotalPages: 1}, nil
}

func (m *mockPostService) CategoryFeed(ctx context.Context, v service.Viewer, slug string, page int) (*data.Category, *service.Page, error) {
	return m.categoryFeedFunc(ctx, v, slug, page)
}

func (m *mockPostService) ProfileFeed(ctx context.Context, v service.Viewer, username string, page int) (*data.User, *service.Page, error) {
	return m.profileFeedFunc(ctx, v, username, page)
}

func (m *mockPostService) PostDetail(ctx context.Context, v service.Viewer, id int64) (*service.PostDetail, error) {
	return m.detailFunc(ctx, v, id)
}

func (m *mockPostService) CreatePost(ctx context.Context, v service.Viewer, in service.PostInput) (*data.Post, error) {
	m.createCalls++
	m.lastInput = in
	return m.createFunc(ctx, v, in)
}

func (m *mockPostService) PostForEdit(ctx context.Context, v service.Viewer, id int64) (*data.Post, error) {
	return m.forEditFunc(ctx, v, id)
}

func (m *mockPostService) UpdatePost(ctx context.Context, v service.Viewer, id int64, in service.PostInput) (*data.Post, error) {
	m.updateCalls++
	m.lastInput = in
	return m.updateFunc(ctx, v, id, in)
}

func (m *mockPostService) DeletePost(ctx context.Context, v service.Viewer, id int64) error {
	m.deleteCalls++
	return m.deleteFunc(ctx, v, id)
}

func (m *mockPostService) FormOptions(ctx context.Context) (*service.FormOptions, error) {
	return &service.FormOptions{
		Categories: []*data.Category{{ID: 1, Title: "Travel", Slug: "travel", IsPublished: true}},
		Locations:  []*data.Location{{ID: 2, Name: "Lisbon", IsPublished: true}},
	}, nil
}

func (m *mockPostService) Sitemap(ctx context.Context) ([]*data.Post, error) {
	return m.sitemapFunc(ctx)
}

// mockCommentService is a mock implementation of service.CommentServicer.
type mockCommentService struct {
	addFunc     func(ctx context.Context, v service.Viewer, postID int64, in service.CommentInput) (*data.Comment, error)
	forEditFunc func(ctx context.Context, v service.Viewer, postID, commentID int64) (*data.Comment, error)
	updateFunc  func(ctx context.Context, v service.Viewer, postID, commentID int64, in service.CommentInput) (*data.Comment, error)
	deleteFunc  func(ctx context.Context, v service.Viewer, postID, commentID int64) error
}

var _ service.CommentServicer = (*mockCommentService)(nil)

func (m *mockCommentService) AddComment(ctx context.Context, v service.Viewer, postID int64, in service.CommentInput) (*data.Comment, error) {
	return m.addFunc(ctx, v, postID, in)
}

func (m *mockCommentService) CommentForEdit(ctx context.Context, v service.Viewer, postID, commentID int64) (*data.Comment, error) {
	return m.forEditFunc(ctx, v, postID, commentID)
}

func (m *mockCommentService) UpdateComment(ctx context.Context, v service.Viewer, postID, commentID int64, in service.CommentInput) (*data.Comment, error) {
	return m.updateFunc(ctx, v, postID, commentID, in)
}

func (m *mockCommentService) DeleteComment(ctx context.Context, v service.Viewer, postID, commentID int64) error {
	return m.deleteFunc(ctx, v, postID, commentID)
}

// mockAccountService is a mock implementation of service.AccountServicer.
type mockAccountService struct {
	registerFunc     func(ctx context.Context, in service.RegisterInput) (*data.User, error)
	authenticateFunc func(ctx context.Context, username, password string) (*data.User, error)
	resolveFunc      func(ctx context.Context, id auth.Identity) (*data.User, error)
	getUserFunc      func(ctx context.Context, id int64) (*data.User, error)
	updateFunc       func(ctx context.Context, v service.Viewer, in service.ProfileInput) (*data.User, error)
}

var _ service.AccountServicer = (*mockAccountService)(nil)

func (m *mockAccountService) Register(ctx context.Context, in service.RegisterInput) (*data.User, error) {
	return m.registerFunc(ctx, in)
}

func (m *mockAccountService) Authenticate(ctx context.Context, username, password string) (*data.User, error) {
	return m.authenticateFunc(ctx, username, password)
}

func (m *mockAccountService) ResolveOIDC(ctx context.Context, id auth.Identity) (*data.User, error) {
	return m.resolveFunc(ctx, id)
}

func (m *mockAccountService) GetUser(ctx context.Context, id int64) (*data.User, error) {
	return m.getUserFunc(ctx, id)
}

func (m *mockAccountService) UpdateProfile(ctx context.Context, v service.Viewer, in service.ProfileInput) (*data.User, error) {
	return m.updateFunc(ctx, v, in)
}

// mockSessionManager is a mock implementation of the session.Manager interface.
type mockSessionManager struct {
	destroyCalled bool
	renewCalled   bool
	putKey        string
	putValue      interface{}
}

// Ensure mockSessionManager implements the session.Manager interface.
var _ session.Manager = (*mockSessionManager)(nil)

func (m *mockSessionManager) LoadAndSave(next http.Handler) http.Handler { return next }
func (m *mockSessionManager) Put(ctx context.Context, key string, val interface{}) {
	m.putKey = key
	m.putValue = val
}
func (m *mockSessionManager) GetString(ctx context.Context, key string) string { return "" }
func (m *mockSessionManager) GetInt64(ctx context.Context, key string) int64   { return 0 }
func (m *mockSessionManager) PopString(ctx context.Context, key string) string { return "" }
func (m *mockSessionManager) Remove(ctx context.Context, key string)           {}
func (m *mockSessionManager) RenewToken(ctx context.Context) error {
	m.renewCalled = true
	return nil
}
func (m *mockSessionManager) Destroy(ctx context.Context) error {
	m.destroyCalled = true
	return nil
}

// mockIdentityProvider stands in for the OIDC authenticator.
type mockIdentityProvider struct {
	identity *auth.Identity
	err      error
	lastCode string
}

func (m *mockIdentityProvider) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return "https://idp.example/authorize?state=" + state
}

func (m *mockIdentityProvider) ExchangeIdentity(ctx context.Context, code string) (*auth.Identity, error) {
	m.lastCode = code
	return m.identity, m.err
}

// testDeps bundles the mocks behind a router.
type testDeps struct {
	posts    *mockPostService
	comments *mockCommentService
	accounts *mockAccountService
	session  *mockSessionManager
	oidc     *mockIdentityProvider
	viewer   service.Viewer

	failTemplate string // handlers get an error when rendering this page
	mediaDir     string // defaults to an empty temporary directory
}

// failingRenderer breaks one template and delegates the rest.
type failingRenderer struct {
	middleware.Renderer
	name string
}

func (f failingRenderer) Render(w io.Writer, r *http.Request, name string, data map[string]interface{}) error {
	if name == f.name {
		return errors.New("template exploded")
	}
	return f.Renderer.Render(w, r, name, data)
}

// newTestRouter builds the full router around mocks. The viewer is injected instead of loaded from a session.
func newTestRouter(t *testing.T, d *testDeps) *chi.Mux {
	t.Helper()
	if d.posts == nil {
		d.posts = &mockPostService{}
	}
	if d.comments == nil {
		d.comments = &mockCommentService{}
	}
	if d.accounts == nil {
		d.accounts = &mockAccountService{}
	}
	if d.session == nil {
		d.session = &mockSessionManager{}
	}

	log := logger.Nop()
	v, err := view.New(web.TemplateFS)
	require.NoError(t, err)

	enforcer, err := auth.NewEnforcer("sqlite3", "")
	require.NoError(t, err)
	auth.SeedDefaultPolicies(enforcer, log)

	var provider IdentityProvider
	if d.oidc != nil {
		provider = d.oidc
	}

	static, err := fs.Sub(web.StaticFS, "static")
	require.NoError(t, err)

	if d.mediaDir == "" {
		d.mediaDir = t.TempDir()
	}
	var pages middleware.Renderer = v
	if d.failTemplate != "" {
		pages = failingRenderer{Renderer: v, name: d.failTemplate}
	}

	return NewRouter(RouterDeps{
		Blog:     NewBlogHandler(d.posts, pages, log, 1),
		Comments: NewCommentHandler(d.comments, d.posts, pages, log),
		Auth:     NewAuthHandler(d.accounts, d.session, provider, pages, log),
		Seo:      NewSeoHandler(d.posts, "https://blog.example/"),
		Session:  d.session,
		LoadViewer: func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(middleware.SetViewer(r.Context(), d.viewer)))
			})
		},
		Authorizer: middleware.Authorizer(enforcer, log),
		Errors:     middleware.Error(log, v),
		Log:        log,
		StaticFS:   static,
		MediaDir:   d.mediaDir,
	})
}
