package service

import "blogicum/internal/data"

// PageSize is the number of posts on every feed page.
const PageSize = 10

// Page is one page of a post feed.
type Page struct {
	Number     int
	TotalPages int
	TotalCount int
	Posts      []*data.Post
}

func (p *Page) HasPrevious() bool { return p.Number > 1 }
func (p *Page) HasNext() bool     { return p.Number < p.TotalPages }
func (p *Page) Previous() int     { return p.Number - 1 }
func (p *Page) Next() int         { return p.Number + 1 }

// pageBounds validates a 1-based page number against a total count and returns the offset.
// An empty listing still has page 1.
func pageBounds(number, total int) (offset, pages int, err error) {
	pages = (total + PageSize - 1) / PageSize
	if pages == 0 {
		pages = 1
	}
	if number < 1 || number > pages {
		return 0, 0, ErrNotFound
	}
	return (number - 1) * PageSize, pages, nil
}
