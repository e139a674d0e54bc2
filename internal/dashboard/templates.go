package dashboard

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*
var templateFS embed.FS

var tmpl = template.Must(template.ParseFS(templateFS, "templates/*.html"))

func renderIndex(w io.Writer, data PageData) error {
	return tmpl.ExecuteTemplate(w, "index.html", data)
}
