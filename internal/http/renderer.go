package httpx

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// TemplateRenderer renders the storefront's HTML pages. Each page template is
// parsed into its own clone of the layout so every page can define "content".
type TemplateRenderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// TemplateRendererConfig holds configuration for creating a TemplateRenderer.
type TemplateRendererConfig struct {
	TemplateFS fs.FS        // Filesystem containing layout.tmpl and pages/*.tmpl (required)
	Logger     *slog.Logger // Logger for template errors (optional)
}

// NewTemplateRenderer parses the layout and every page template.
func NewTemplateRenderer(cfg TemplateRendererConfig) (*TemplateRenderer, error) {
	if cfg.TemplateFS == nil {
		return nil, errors.New("TemplateFS is required")
	}

	base, err := template.New("root").Funcs(templateFuncs()).ParseFS(cfg.TemplateFS, "layout.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := fs.Glob(cfg.TemplateFS, "pages/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	if len(files) == 0 {
		return nil, errors.New("no page templates found")
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		clone, cloneErr := base.Clone()
		if cloneErr != nil {
			return nil, fmt.Errorf("clone layout: %w", cloneErr)
		}
		t, parseErr := clone.ParseFS(cfg.TemplateFS, f)
		if parseErr != nil {
			if cfg.Logger != nil {
				cfg.Logger.Error("template parsing failed",
					slog.String("template", f),
					slog.Any("error", parseErr),
				)
			}
			return nil, fmt.Errorf("parse %s: %w", f, parseErr)
		}
		pages[strings.TrimSuffix(path.Base(f), ".tmpl")] = t
	}

	return &TemplateRenderer{pages: pages, logger: cfg.Logger}, nil
}

// Render executes the named page inside the layout and writes it with status.
// Output is buffered so a template error never produces a partial page.
func (r *TemplateRenderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		if r.logger != nil {
			r.logger.Error("template execution failed",
				slog.String("template", page),
				slog.Any("error", err),
			)
		}
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
