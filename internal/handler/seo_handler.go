package handler

import (
	"blogicum/internal/service"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	posts   service.PostServicer
	baseURL string
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public address of the site.
func NewSeoHandler(ps service.PostServicer, baseURL string) *SeoHandler {
	return &SeoHandler{posts: ps, baseURL: strings.TrimRight(baseURL, "/")}
}

// robotsHandler serves robots.txt. Account and authoring pages are not indexed.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /auth/")
	fmt.Fprintln(w, "Disallow: /posts/create/")
	fmt.Fprintln(w, "Disallow: /profile/edit/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler lists the feed and every publicly visible post.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.Sitemap(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve posts for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(posts)+1),
	}
	sitemap.URLs = append(sitemap.URLs, sitemapURL{Loc: h.baseURL + "/"})
	for _, post := range posts {
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:     h.baseURL + postURL(post.ID),
			LastMod: post.PubDate.UTC().Format(sitemapDateFormat),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
