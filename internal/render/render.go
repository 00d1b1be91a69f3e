// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render parses the embedded html/template pages and renders them
// inside the public or admin layout.
package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/olegiv/muthawwif-go/internal/middleware"
	"github.com/olegiv/muthawwif-go/internal/model"
	"github.com/olegiv/muthawwif-go/internal/session"
	"github.com/olegiv/muthawwif-go/internal/uikit"
)

// Flash types.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

// SettingsLoader returns the public site settings shown in every layout.
type SettingsLoader interface {
	Public(ctx context.Context) (model.Settings, error)
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	settings       SettingsLoader
	isDev          bool
	now            func() time.Time
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	SessionManager *scs.SessionManager
	Settings       SettingsLoader
	IsDev          bool
}

// template groups: directory, layout file and name prefix.
var templateGroups = []struct {
	dir    string
	layout string
}{
	{"pages", "layouts/public.html"},
	{"auth", "layouts/public.html"},
	{"admin", "layouts/admin.html"},
}

const baseLayout = "layouts/base.html"

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		settings:       cfg.Settings,
		isDev:          cfg.IsDev,
		now:            time.Now,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page template together with the base layout,
// its group layout and all partials. Pages are keyed "group/name".
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := templateFiles(templatesFS, "partials")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	for _, group := range templateGroups {
		pages, err := templateFiles(templatesFS, group.dir)
		if err != nil {
			return fmt.Errorf("getting %s templates: %w", group.dir, err)
		}

		for _, tmplPath := range pages {
			name := group.dir + "/" + strings.TrimSuffix(path.Base(tmplPath), ".html")

			files := []string{baseLayout, group.layout}
			files = append(files, partials...)
			files = append(files, tmplPath)

			tmpl, err := template.New("").Funcs(TemplateFuncs()).ParseFS(templatesFS, files...)
			if err != nil {
				return fmt.Errorf("parsing template %s: %w", name, err)
			}
			r.templates[name] = tmpl
		}
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no templates found")
	}
	return nil
}

// templateFiles returns all .html files in a directory. A missing directory
// yields no files.
func templateFiles(templatesFS fs.FS, dir string) ([]string, error) {
	entries, err := fs.ReadDir(templatesFS, dir)
	if err != nil {
		return nil, nil
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".html") {
			files = append(files, path.Join(dir, entry.Name()))
		}
	}
	return files, nil
}

// Has reports whether a template with the given name was parsed.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// TemplateFuncs returns the uikit helpers plus rendering functions that
// depend on this package.
func TemplateFuncs() template.FuncMap {
	funcs := uikit.TemplateFuncs()
	funcs["markdown"] = Markdown
	funcs["plainText"] = PlainText
	funcs["isActivePath"] = func(current, prefix string) bool {
		if prefix == "/" || prefix == "/admin" {
			return current == prefix
		}
		return current == prefix || strings.HasPrefix(current, prefix+"/")
	}
	return funcs
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	Description string
	Data        any
	Flash       string
	FlashType   string
	CurrentYear int
	CurrentPath string
	Session     middleware.Session
	Settings    model.Settings
	Breadcrumbs []uikit.Breadcrumb
	Errors      map[string]string
	Form        map[string]string
	IsDev       bool
}

// SiteName returns the configured site name.
func (d TemplateData) SiteName() string {
	if name := d.Settings.Get(model.SettingSiteInfo, "site_name"); name != "" {
		return name
	}
	return "Muthawwif"
}

// FieldError returns the validation message for a form field.
func (d TemplateData) FieldError(field string) string {
	return d.Errors[field]
}

// Value returns the submitted value of a form field.
func (d TemplateData) Value(field string) string {
	return d.Form[field]
}

// Render renders a template with status 200.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData) error {
	return r.RenderStatus(w, req, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given data and status code.
func (r *Renderer) RenderStatus(w http.ResponseWriter, req *http.Request, status int, name string, data TemplateData) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	r.fillDefaults(req, &data)

	// Render to buffer first to catch errors
	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
	return nil
}

func (r *Renderer) fillDefaults(req *http.Request, data *TemplateData) {
	ctx := req.Context()

	data.CurrentYear = r.now().Year()
	data.CurrentPath = req.URL.Path
	data.IsDev = r.isDev
	if !data.Session.SignedIn() {
		data.Session = middleware.SessionFrom(ctx)
	}

	if data.Settings == nil && r.settings != nil {
		settings, err := r.settings.Public(ctx)
		if err != nil {
			slog.Warn("failed to load public settings for layout", "error", err)
		}
		data.Settings = settings
	}

	if r.sessionManager != nil && data.Flash == "" {
		if flash := r.sessionManager.PopString(ctx, session.KeyFlash); flash != "" {
			data.Flash = flash
			data.FlashType = r.sessionManager.PopString(ctx, session.KeyFlashType)
			if data.FlashType == "" {
				data.FlashType = FlashInfo
			}
		}
	}
}

// SetFlash sets a flash message in the session.
func (r *Renderer) SetFlash(req *http.Request, message, flashType string) {
	if r.sessionManager != nil {
		r.sessionManager.Put(req.Context(), session.KeyFlash, message)
		r.sessionManager.Put(req.Context(), session.KeyFlashType, flashType)
	}
}

// NotFound renders the 404 page, falling back to plain text.
func (r *Renderer) NotFound(w http.ResponseWriter, req *http.Request) {
	r.renderError(w, req, http.StatusNotFound, "Halaman tidak ditemukan")
}

// ServerError renders the 500 page, falling back to plain text.
func (r *Renderer) ServerError(w http.ResponseWriter, req *http.Request) {
	r.renderError(w, req, http.StatusInternalServerError, "Terjadi kesalahan pada server")
}

func (r *Renderer) renderError(w http.ResponseWriter, req *http.Request, status int, message string) {
	data := TemplateData{
		Title: message,
		Data:  map[string]any{"Status": status, "Message": message},
	}
	if err := r.RenderStatus(w, req, status, "pages/error", data); err != nil {
		slog.Error("failed to render error page", "error", err, "status", status)
		http.Error(w, message, status)
	}
}
