package view

import (
	"blogicum/internal/middleware"
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// View represents a collection of parsed HTML templates.
type View struct {
	templates map[string]*template.Template
}

// Funcs are the helpers available to every template.
var Funcs = template.FuncMap{
	"date":          formatDate,
	"datetimeLocal": func(t time.Time) string { return t.Format(DateTimeLocalLayout) },
	"truncateWords": truncateWords,
	"mediaURL":      func(rel string) string { return "/media/" + rel },
	"selected": func(id int64, current *int64) bool {
		return current != nil && *current == id
	},
}

// DateTimeLocalLayout matches the value of an <input type="datetime-local">.
const DateTimeLocalLayout = "2006-01-02T15:04"

func formatDate(t time.Time) string {
	return t.Format("2 January 2006, 15:04")
}

func truncateWords(s string, n int) string {
	words := strings.Fields(s)
	if len(words) <= n {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:n], " ") + " …"
}

// New creates a new View by parsing all templates from the given filesystem.
func New(templateFS fs.FS) (*View, error) {
	v := &View{
		templates: make(map[string]*template.Template),
	}

	layouts, err := fs.Glob(templateFS, "templates/layouts/*.html")
	if err != nil {
		return nil, err
	}
	partials, err := fs.Glob(templateFS, "templates/partials/*.html")
	if err != nil {
		return nil, err
	}
	pages, err := fs.Glob(templateFS, "templates/pages/*.html")
	if err != nil {
		return nil, err
	}

	// Each page is parsed together with the layouts and partials.
	for _, page := range pages {
		files := append(append([]string{}, layouts...), partials...)
		files = append(files, page)
		name := filepath.Base(page)
		ts, err := template.New(name).Funcs(Funcs).ParseFS(templateFS, files...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		v.templates[name] = ts
	}

	return v, nil
}

// Render executes a specific template by name. The current viewer is added to the data as "Viewer".
func (v *View) Render(w io.Writer, r *http.Request, name string, data map[string]interface{}) error {
	ts, ok := v.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	if data == nil {
		data = make(map[string]interface{})
	}
	data["Viewer"] = middleware.ViewerFrom(r.Context())
	data["Year"] = time.Now().Year()

	// Execute into a buffer first so a template error does not leave a half-written page.
	buf := new(bytes.Buffer)
	if err := ts.Execute(buf, data); err != nil {
		return err
	}

	_, err := buf.WriteTo(w)
	return err
}
