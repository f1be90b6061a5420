//go:build unit

package service

import (
	"blogicum/internal/data"
	"context"
	"errors"
	"io"
	"sort"
	"time"
)

// fakeStore is an in-memory implementation of every repository the services use.
type fakeStore struct {
	nextID     int64
	users      map[int64]*data.User
	categories map[int64]*data.Category
	locations  map[int64]*data.Location
	posts      map[int64]*data.Post
	comments   map[int64]*data.Comment

	listCalls   int
	lastFilter  data.PostFilter
	updateCalls int
	deleteCalls int
	writeErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:      map[int64]*data.User{},
		categories: map[int64]*data.Category{},
		locations:  map[int64]*data.Location{},
		posts:      map[int64]*data.Post{},
		comments:   map[int64]*data.Comment{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) addUser(username string) *data.User {
	u := &data.User{ID: s.id(), Username: username}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addCategory(slug string, published bool) *data.Category {
	c := &data.Category{ID: s.id(), Title: slug, Slug: slug, IsPublished: published}
	s.categories[c.ID] = c
	return c
}

func (s *fakeStore) addPost(p data.Post) *data.Post {
	p.ID = s.id()
	if p.Title == "" {
		p.Title = "title"
	}
	s.posts[p.ID] = &p
	return &p
}

// hydrate returns a copy of a stored post with its joined fields filled in.
func (s *fakeStore) hydrate(p *data.Post) *data.Post {
	cp := *p
	if u, ok := s.users[p.AuthorID]; ok {
		cp.AuthorUsername = u.Username
	}
	if p.CategoryID != nil {
		if c, ok := s.categories[*p.CategoryID]; ok {
			published := c.IsPublished
			cp.CategoryIsPublished = &published
			cp.CategorySlug = &c.Slug
		}
	}
	for _, c := range s.comments {
		if c.PostID == p.ID {
			cp.CommentCount++
		}
	}
	return &cp
}

func (s *fakeStore) matches(p *data.Post, f data.PostFilter) bool {
	if f.AuthorID != nil && p.AuthorID != *f.AuthorID {
		return false
	}
	if f.CategoryID != nil && (p.CategoryID == nil || *p.CategoryID != *f.CategoryID) {
		return false
	}
	if f.IncludeHidden {
		return true
	}
	if !p.IsPublished || p.PubDate.After(f.Now) {
		return false
	}
	if p.CategoryID != nil {
		c, ok := s.categories[*p.CategoryID]
		return ok && c.IsPublished
	}
	return true
}

// PostRepository

func (s *fakeStore) Create(ctx context.Context, post *data.Post) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	post.ID = s.id()
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id int64) (*data.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	return s.hydrate(p), nil
}

func (s *fakeStore) Update(ctx context.Context, post *data.Post) error {
	s.updateCalls++
	if s.writeErr != nil {
		return s.writeErr
	}
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *fakeStore) Delete(ctx context.Context, id int64) error {
	s.deleteCalls++
	if _, ok := s.posts[id]; !ok {
		return data.ErrNoRecord
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *fakeStore) List(ctx context.Context, f data.PostFilter) ([]*data.Post, error) {
	s.listCalls++
	s.lastFilter = f
	var out []*data.Post
	for _, p := range s.posts {
		if s.matches(p, f) {
			out = append(out, s.hydrate(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PubDate.Equal(out[j].PubDate) {
			return out[i].PubDate.After(out[j].PubDate)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		end := f.Offset + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[f.Offset:end]
	}
	return out, nil
}

func (s *fakeStore) Count(ctx context.Context, f data.PostFilter) (int, error) {
	n := 0
	for _, p := range s.posts {
		if s.matches(p, f) {
			n++
		}
	}
	return n, nil
}

// fakeComments adapts the store to CommentRepository.
type fakeComments struct{ *fakeStore }

func (c fakeComments) Create(ctx context.Context, comment *data.Comment) error {
	comment.ID = c.id()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}
	cp := *comment
	c.comments[comment.ID] = &cp
	return nil
}

func (c fakeComments) GetByID(ctx context.Context, id int64) (*data.Comment, error) {
	comment, ok := c.comments[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	cp := *comment
	return &cp, nil
}

func (c fakeComments) Update(ctx context.Context, comment *data.Comment) error {
	cp := *comment
	c.comments[comment.ID] = &cp
	return nil
}

func (c fakeComments) Delete(ctx context.Context, id int64) error {
	if _, ok := c.comments[id]; !ok {
		return data.ErrNoRecord
	}
	delete(c.comments, id)
	return nil
}

func (c fakeComments) ListByPost(ctx context.Context, postID int64) ([]*data.Comment, error) {
	var out []*data.Comment
	for _, comment := range c.comments {
		if comment.PostID == postID {
			cp := *comment
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// fakeCategories adapts the store to CategoryRepository.
type fakeCategories struct{ *fakeStore }

func (c fakeCategories) GetBySlug(ctx context.Context, slug string) (*data.Category, error) {
	for _, cat := range c.categories {
		if cat.Slug == slug {
			return cat, nil
		}
	}
	return nil, data.ErrNoRecord
}

func (c fakeCategories) GetByID(ctx context.Context, id int64) (*data.Category, error) {
	cat, ok := c.categories[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	return cat, nil
}

func (c fakeCategories) GetAll(ctx context.Context, onlyPublished bool) ([]*data.Category, error) {
	var out []*data.Category
	for _, cat := range c.categories {
		if !onlyPublished || cat.IsPublished {
			out = append(out, cat)
		}
	}
	return out, nil
}

// fakeLocations adapts the store to LocationRepository.
type fakeLocations struct{ *fakeStore }

func (l fakeLocations) GetByID(ctx context.Context, id int64) (*data.Location, error) {
	loc, ok := l.locations[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	return loc, nil
}

func (l fakeLocations) GetAll(ctx context.Context, onlyPublished bool) ([]*data.Location, error) {
	var out []*data.Location
	for _, loc := range l.locations {
		if !onlyPublished || loc.IsPublished {
			out = append(out, loc)
		}
	}
	return out, nil
}

// fakeUsers adapts the store to UserRepository.
type fakeUsers struct{ *fakeStore }

func (u fakeUsers) Create(ctx context.Context, user *data.User) (int64, error) {
	for _, existing := range u.users {
		if existing.Username == user.Username {
			return 0, data.ErrDuplicateUsername
		}
		if user.OIDCSubject != nil && existing.OIDCSubject != nil && *existing.OIDCSubject == *user.OIDCSubject {
			return 0, data.ErrDuplicateOIDCSubject
		}
	}
	user.ID = u.id()
	cp := *user
	u.users[user.ID] = &cp
	return user.ID, nil
}

func (u fakeUsers) GetByID(ctx context.Context, id int64) (*data.User, error) {
	user, ok := u.users[id]
	if !ok {
		return nil, data.ErrNoRecord
	}
	cp := *user
	return &cp, nil
}

func (u fakeUsers) GetByUsername(ctx context.Context, username string) (*data.User, error) {
	for _, user := range u.users {
		if user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, data.ErrNoRecord
}

func (u fakeUsers) GetByOIDCSubject(ctx context.Context, subject string) (*data.User, error) {
	for _, user := range u.users {
		if user.OIDCSubject != nil && *user.OIDCSubject == subject {
			cp := *user
			return &cp, nil
		}
	}
	return nil, data.ErrNoRecord
}

func (u fakeUsers) UpdateProfile(ctx context.Context, user *data.User) error {
	for _, existing := range u.users {
		if existing.Username == user.Username && existing.ID != user.ID {
			return data.ErrDuplicateUsername
		}
	}
	cp := *user
	u.users[user.ID] = &cp
	return nil
}

// fakeImages records uploads instead of writing files.
type fakeImages struct {
	saved   []string
	removed []string
	err     error
}

func (f *fakeImages) Save(filename string, r io.Reader) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.saved = append(f.saved, filename)
	return "posts_images/" + filename, nil
}

func (f *fakeImages) Remove(rel string) error {
	f.removed = append(f.removed, rel)
	return nil
}

var errBoom = errors.New("boom")

var (
	_ PostRepository     = (*fakeStore)(nil)
	_ CommentRepository  = fakeComments{}
	_ CategoryRepository = fakeCategories{}
	_ LocationRepository = fakeLocations{}
	_ UserRepository     = fakeUsers{}
	_ ImageStore         = (*fakeImages)(nil)
)

// testNow is the fixed clock of every service test.
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestPostService(store *fakeStore) (*PostService, *fakeImages) {
	images := &fakeImages{}
	s := NewPostService(store, fakeCategories{store}, fakeLocations{store}, fakeUsers{store}, fakeComments{store}, images)
	s.now = func() time.Time { return testNow }
	return s, images
}

func newTestCommentService(store *fakeStore) *CommentService {
	s := NewCommentService(store, fakeComments{store})
	s.now = func() time.Time { return testNow }
	return s
}

func viewerOf(u *data.User) Viewer {
	return Viewer{ID: u.ID, Username: u.Username}
}
