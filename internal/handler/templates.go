package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	appI18n "github.com/aivira/grantdna/internal/i18n"
	"github.com/aivira/grantdna/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// render parses base.html plus the named page template and executes the
// "base" template into a buffer, so a render error never sends a half page.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, page string, data any) {
	ctx := r.Context()
	t, err := template.New(page).Funcs(template.FuncMap{
		"T": func(msgID string) string {
			return appI18n.T(ctx, msgID)
		},
		"Td": func(msgID string, data map[string]any) string {
			return appI18n.Td(ctx, msgID, data)
		},
		"path": h.path,
		"csrf": func() template.HTML {
			field := fmt.Sprintf(`<input type="hidden" name="csrf_token" value="%s"/>`,
				model.CSRFTokenFromContext(ctx))
			return template.HTML(field)
		},
		"dict": dict,
		"list": func(items ...string) []string { return items },
		"has": func(items []string, v string) bool {
			for _, it := range items {
				if it == v {
					return true
				}
			}
			return false
		},
	}).ParseFS(templateFS, "templates/base.html", "templates/"+page+".html")
	if err != nil {
		slog.Error("parse template", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	buf := new(bytes.Buffer)
	if err := t.ExecuteTemplate(buf, "base", data); err != nil {
		slog.Error("execute template", "page", page, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// dict builds a map inside a template, for Td calls with template data.
func dict(pairs ...any) map[string]any {
	m := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			continue
		}
		m[key] = pairs[i+1]
	}
	return m
}
