package service

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// ContentRenderer turns user-written Markdown into HTML that is safe to embed in a page.
type ContentRenderer struct {
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewContentRenderer creates a renderer with the user-generated-content policy.
func NewContentRenderer() *ContentRenderer {
	return &ContentRenderer{
		markdown:  goldmark.New(),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render converts Markdown to sanitized HTML.
func (r *ContentRenderer) Render(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return template.HTML(r.sanitizer.SanitizeBytes(buf.Bytes())), nil
}
