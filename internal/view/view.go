// Package view holds the HTML pages, embedded into the binary.
package view

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	IndexPage    = "index.html"
	AddPage      = "add.html"
	UpdatePage   = "update.html"
	NotFoundPage = "not_found.html"
)

// Templates parses every page together with the shared layout blocks.
func Templates() (*template.Template, error) {
	return template.ParseFS(templatesFS, "templates/*.html")
}
