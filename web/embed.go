// Package web embeds the blog's HTML templates and static assets into the binary.
package web

import (
	"embed"
	"io/fs"
)

//go:embed all:templates
var templateFS embed.FS

//go:embed all:static
var staticFS embed.FS

// TemplateFS holds templates/{layouts,partials,pages}/*.html.
var TemplateFS fs.FS = templateFS

// StaticFS holds static/ (stylesheets); serve it through fs.Sub(StaticFS, "static").
var StaticFS fs.FS = staticFS
