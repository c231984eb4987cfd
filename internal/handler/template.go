package handler

import (
	"html/template"
	"log/slog"
	"net/http"

	"github.com/vraj-maheshwari/pollapp/web"
)

// ParseTemplates loads the embedded page templates.
func ParseTemplates() *template.Template {
	return template.Must(template.ParseFS(web.Templates, "templates/*.html"))
}

func render(w http.ResponseWriter, templates *template.Template, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("render template", "template", name, "error", err)
	}
}
