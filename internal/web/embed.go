package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
)

//go:embed static
var staticFiles embed.FS

//go:embed templates
var templateFiles embed.FS

// StaticFS is the embedded static file system with the "static/" prefix stripped.
var StaticFS fs.FS

// Templates is the compiled template set for the receiver pages.
var Templates *template.Template

// SendTemplate is the auto-submitting page written for the browser. It is a
// plain placeholder document ({TITLE}, {URL}, {FORM_DATA}), not an html/template.
var SendTemplate string

func init() {
	var err error

	StaticFS, err = fs.Sub(staticFiles, "static")
	if err != nil {
		slog.Error("web: failed to create static FS", "err", err)
		panic(err)
	}

	Templates, err = template.New("").Funcs(template.FuncMap{
		"kb": func(n int) string { return formatKB(n) },
	}).ParseFS(templateFiles, "templates/receiver_*.html")
	if err != nil {
		slog.Error("web: failed to parse templates", "err", err)
		panic(err)
	}

	raw, err := templateFiles.ReadFile("templates/send.html")
	if err != nil {
		slog.Error("web: failed to read send template", "err", err)
		panic(err)
	}
	SendTemplate = string(raw)
}
