package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"net/url"
	"time"

	"kinly/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*.css
var staticFS embed.FS

type Templates struct {
	all *template.Template
}

func ParseTemplates() (*Templates, error) {
	t := template.New("").Funcs(template.FuncMap{
		"dict": func(values ...any) (map[string]any, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("dict requires even number of arguments")
			}
			out := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				out[key] = values[i+1]
			}
			return out, nil
		},
		"excerpt":    model.Excerpt,
		"date":       formatDate,
		"builderURL": builderURL,
	})
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	t, err = t.ParseFS(sub, "*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Templates{all: t}, nil
}

// RenderPage executes the content template and wraps it in the base
// layout. Nothing is written until both succeed.
func (t *Templates) RenderPage(w http.ResponseWriter, status int, data ViewData) error {
	var content bytes.Buffer
	if err := t.all.ExecuteTemplate(&content, data.ContentTemplate, data); err != nil {
		return fmt.Errorf("render %s: %w", data.ContentTemplate, err)
	}
	data.ContentHTML = template.HTML(content.String())
	var page bytes.Buffer
	if err := t.all.ExecuteTemplate(&page, "base", data); err != nil {
		return fmt.Errorf("render base: %w", err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := page.WriteTo(w)
	return err
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("Jan 2, 2006")
}

func builderURL(ipID, worldID, section string) string {
	q := url.Values{}
	if worldID != "" {
		q.Set("world", worldID)
	}
	if section != "" {
		q.Set("section", section)
	}
	u := "/builder/" + url.PathEscape(ipID)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}
