package service

import (
	"blogicum/internal/data"
	"context"
	"errors"
	"fmt"
	"time"
)

// PostRepository defines the interface for database operations on posts.
type PostRepository interface {
	Create(ctx context.Context, post *data.Post) error
	GetByID(ctx context.Context, id int64) (*data.Post, error)
	Update(ctx context.Context, post *data.Post) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f data.PostFilter) ([]*data.Post, error)
	Count(ctx context.Context, f data.PostFilter) (int, error)
}

// CategoryRepository defines the category lookups the blog needs.
type CategoryRepository interface {
	GetBySlug(ctx context.Context, slug string) (*data.Category, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
	GetAll(ctx context.Context, onlyPublished bool) ([]*data.Category, error)
}

// LocationRepository defines the location lookups the blog needs.
type LocationRepository interface {
	GetByID(ctx context.Context, id int64) (*data.Location, error)
	GetAll(ctx context.Context, onlyPublished bool) ([]*data.Location, error)
}

// CommentRepository defines the interface for database operations on comments.
type CommentRepository interface {
	Create(ctx context.Context, comment *data.Comment) error
	GetByID(ctx context.Context, id int64) (*data.Comment, error)
	Update(ctx context.Context, comment *data.Comment) error
	Delete(ctx context.Context, id int64) error
	ListByPost(ctx context.Context, postID int64) ([]*data.Comment, error)
}

// UserRepository defines the interface for database operations on users.
type UserRepository interface {
	Create(ctx context.Context, user *data.User) (int64, error)
	GetByID(ctx context.Context, id int64) (*data.User, error)
	GetByUsername(ctx context.Context, username string) (*data.User, error)
	GetByOIDCSubject(ctx context.Context, subject string) (*data.User, error)
	UpdateProfile(ctx context.Context, user *data.User) error
}

// PostServicer defines the interface for interacting with posts.
type PostServicer interface {
	Feed(ctx context.Context, v Viewer, page int) (*Page, error)
	CategoryFeed(ctx context.Context, v Viewer, slug string, page int) (*data.Category, *Page, error)
	ProfileFeed(ctx context.Context, v Viewer, username string, page int) (*data.User, *Page, error)
	PostDetail(ctx context.Context, v Viewer, id int64) (*PostDetail, error)
	CreatePost(ctx context.Context, v Viewer, in PostInput) (*data.Post, error)
	PostForEdit(ctx context.Context, v Viewer, id int64) (*data.Post, error)
	UpdatePost(ctx context.Context, v Viewer, id int64, in PostInput) (*data.Post, error)
	DeletePost(ctx context.Context, v Viewer, id int64) error
	FormOptions(ctx context.Context) (*FormOptions, error)
	Sitemap(ctx context.Context) ([]*data.Post, error)
}

// PostDetail is a single post with its comments in creation order.
type PostDetail struct {
	Post     *data.Post
	Comments []*data.Comment
}

// FormOptions lists the choices offered by the post form.
type FormOptions struct {
	Categories []*data.Category
	Locations  []*data.Location
}

// PostService provides business logic for posts and feeds.
type PostService struct {
	posts      PostRepository
	categories CategoryRepository
	locations  LocationRepository
	users      UserRepository
	comments   CommentRepository
	images     ImageStore
	content    *ContentRenderer
	now        func() time.Time
}

// NewPostService creates a new PostService.
func NewPostService(posts PostRepository, categories CategoryRepository, locations LocationRepository,
	users UserRepository, comments CommentRepository, images ImageStore) *PostService {
	return &PostService{
		posts:      posts,
		categories: categories,
		locations:  locations,
		users:      users,
		comments:   comments,
		images:     images,
		content:    NewContentRenderer(),
		now:        time.Now,
	}
}

// Feed returns a page of the global feed.
func (s *PostService) Feed(ctx context.Context, v Viewer, page int) (*Page, error) {
	return s.list(ctx, visibleFilter(v, nil, nil, s.now()), page)
}

// CategoryFeed returns a page of posts in a published category.
// Missing and unpublished categories are both ErrNotFound.
func (s *PostService) CategoryFeed(ctx context.Context, v Viewer, slug string, page int) (*data.Category, *Page, error) {
	category, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, nil, notFound(err)
	}
	if !category.IsPublished {
		return nil, nil, ErrNotFound
	}
	p, err := s.list(ctx, visibleFilter(v, nil, &category.ID, s.now()), page)
	if err != nil {
		return nil, nil, err
	}
	return category, p, nil
}

// ProfileFeed returns a page of a user's posts. The owner sees all of them.
func (s *PostService) ProfileFeed(ctx context.Context, v Viewer, username string, page int) (*data.User, *Page, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, nil, notFound(err)
	}
	p, err := s.list(ctx, visibleFilter(v, &user.ID, nil, s.now()), page)
	if err != nil {
		return nil, nil, err
	}
	return user, p, nil
}

func (s *PostService) list(ctx context.Context, f data.PostFilter, number int) (*Page, error) {
	total, err := s.posts.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	offset, pages, err := pageBounds(number, total)
	if err != nil {
		return nil, err
	}
	f.Limit = PageSize
	f.Offset = offset
	posts, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Page{Number: number, TotalPages: pages, TotalCount: total, Posts: posts}, nil
}

// PostDetail returns a post and its comments. Posts the viewer may not see are ErrNotFound.
func (s *PostService) PostDetail(ctx context.Context, v Viewer, id int64) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !CanView(v, post, s.now()) {
		return nil, ErrNotFound
	}
	if post.HTMLText, err = s.content.Render(post.Text); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments}, nil
}

// CreatePost publishes a new post authored by the viewer.
func (s *PostService) CreatePost(ctx context.Context, v Viewer, in PostInput) (*data.Post, error) {
	if v.IsAnonymous() {
		return nil, ErrAuthorizationDenied
	}
	post := &data.Post{AuthorID: v.ID}
	saved, err := s.apply(ctx, post, &in)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, s.discardImage(saved, err)
	}
	return post, nil
}

// PostForEdit returns a post its author is about to edit or delete.
func (s *PostService) PostForEdit(ctx context.Context, v Viewer, id int64) (*data.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if err := Authorize(v, post.AuthorID); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost replaces the editable fields of the viewer's post.
func (s *PostService) UpdatePost(ctx context.Context, v Viewer, id int64, in PostInput) (*data.Post, error) {
	post, err := s.PostForEdit(ctx, v, id)
	if err != nil {
		return nil, err
	}
	saved, err := s.apply(ctx, post, &in)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, s.discardImage(saved, err)
	}
	return post, nil
}

// DeletePost removes the viewer's post together with its comments.
func (s *PostService) DeletePost(ctx context.Context, v Viewer, id int64) error {
	if _, err := s.PostForEdit(ctx, v, id); err != nil {
		return err
	}
	return notFound(s.posts.Delete(ctx, id))
}

// FormOptions returns the published categories and locations a post may reference.
func (s *PostService) FormOptions(ctx context.Context) (*FormOptions, error) {
	categories, err := s.categories.GetAll(ctx, true)
	if err != nil {
		return nil, err
	}
	locations, err := s.locations.GetAll(ctx, true)
	if err != nil {
		return nil, err
	}
	return &FormOptions{Categories: categories, Locations: locations}, nil
}

// Sitemap returns every publicly visible post.
func (s *PostService) Sitemap(ctx context.Context) ([]*data.Post, error) {
	return s.posts.List(ctx, visibleFilter(Anonymous(), nil, nil, s.now()))
}

// apply validates the input and copies it onto post. The author is never taken from input.
// It returns the path of a newly stored image, if any.
func (s *PostService) apply(ctx context.Context, post *data.Post, in *PostInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.CategoryID != nil {
		category, err := s.categories.GetByID(ctx, *in.CategoryID)
		if errors.Is(err, data.ErrNoRecord) || (err == nil && !category.IsPublished) {
			return "", fieldError("category", "Select a valid category.")
		}
		if err != nil {
			return "", err
		}
	}
	if in.LocationID != nil {
		if _, err := s.locations.GetByID(ctx, *in.LocationID); err != nil {
			if errors.Is(err, data.ErrNoRecord) {
				return "", fieldError("location", "Select a valid location.")
			}
			return "", err
		}
	}
	var saved string
	if in.Image != nil {
		if s.images == nil {
			return "", fmt.Errorf("image uploads are not configured")
		}
		rel, err := s.images.Save(in.Image.Filename, in.Image.Content)
		if err != nil {
			return "", err
		}
		post.Image = rel
		saved = rel
	}
	post.Title = in.Title
	post.Text = in.Text
	post.PubDate = in.PubDate
	post.CategoryID = in.CategoryID
	post.LocationID = in.LocationID
	post.IsPublished = in.IsPublished
	return saved, nil
}

// discardImage removes an image stored for a write that failed, then returns the write error.
func (s *PostService) discardImage(rel string, err error) error {
	if rel == "" {
		return err
	}
	if rerr := s.images.Remove(rel); rerr != nil {
		return errors.Join(err, rerr)
	}
	return err
}

// notFound maps a repository miss to ErrNotFound and passes other errors through.
func notFound(err error) error {
	if errors.Is(err, data.ErrNoRecord) {
		return ErrNotFound
	}
	return err
}
