package service

import (
	"blogicum/internal/data"
	"time"
)

// IsPubliclyVisible reports whether any viewer may see the post: it is published,
// its publication time has come, and its category (if any) is published.
func IsPubliclyVisible(p *data.Post, now time.Time) bool {
	if !p.IsPublished || p.PubDate.After(now) {
		return false
	}
	return p.CategoryID == nil || p.HasPublishedCategory()
}

// SelfView reports whether the viewer is the author, who sees their own content unconditionally.
func SelfView(v Viewer, authorID int64) bool {
	return !v.IsAnonymous() && v.ID == authorID
}

// CanView reports whether the viewer may see the post.
func CanView(v Viewer, p *data.Post, now time.Time) bool {
	return SelfView(v, p.AuthorID) || IsPubliclyVisible(p, now)
}

// visibleFilter narrows a listing to what the viewer may see. The publication checks
// are lifted only when the listing targets a single author who is the viewer.
func visibleFilter(v Viewer, authorID, categoryID *int64, now time.Time) data.PostFilter {
	return data.PostFilter{
		AuthorID:      authorID,
		CategoryID:    categoryID,
		Now:           now,
		IncludeHidden: authorID != nil && SelfView(v, *authorID),
	}
}
