// Package handler contains the HTTP handlers of the blog.
//
// HANDLER RESPONSIBILITIES:
//  1. Resolve who is calling (auth.CallerFromContext) and check the guard
//  2. Decode and validate the form (package form)
//  3. Call the service and map its errors to a page, a redirect or a flash
//  4. Render a template, or redirect with 303 See Other after a successful POST
//
// Handlers do NOT contain business rules: the admin check is repeated inside
// the service, and the store enforces uniqueness.
package handler

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/portfolio-blog/internal/auth"
	"github.com/sakif/portfolio-blog/internal/form"
)

// pages lists every page template. Each is parsed together with base.html
// into its own set, so every page can define "content" independently.
var pages = []string{
	"index.html",
	"about.html",
	"contact.html",
	"register.html",
	"login.html",
	"post.html",
	"make-post.html",
	"error.html",
}

// Page is the data every template receives.
type Page struct {
	Title     string
	Caller    auth.Caller
	IsAdmin   bool
	CSRFToken string
	Flash     string
	Form      any         // the page's form struct, for re-rendering values
	Errors    form.Errors // field name → message
	Data      any         // page-specific payload
}

// Renderer holds the parsed templates. Parsing happens once at startup.
type Renderer struct {
	templates     map[string]*template.Template
	logger        *slog.Logger
	secureCookies bool
}

// NewRenderer parses base.html plus each page from files.
func NewRenderer(files fs.FS, secureCookies bool, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"gravatar": gravatarURL,
		// Post bodies are written by the admin in a rich-text editor and are
		// rendered as HTML. Comments and every other field stay escaped.
		"safeHTML": func(s string) template.HTML { return template.HTML(s) },
		"year":     func() int { return time.Now().Year() },
	}

	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		t, err := template.New(page).Funcs(funcs).ParseFS(files, "base.html", page)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		templates[page] = t
	}

	return &Renderer{templates: templates, logger: logger, secureCookies: secureCookies}, nil
}

// render executes page with status. The common Page fields are filled in from
// the request; the flash message, if any, is consumed.
//
// The template is executed into a buffer first: a template error then still
// produces a clean 500 instead of half a page.
func (v *Renderer) render(w http.ResponseWriter, r *http.Request, status int, page string, p Page) {
	t, ok := v.templates[page]
	if !ok {
		v.logger.Error("template not found", slog.String("template", page))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	p.Caller = auth.CallerFromContext(r.Context())
	p.IsAdmin = auth.IsAdmin(p.Caller)
	p.CSRFToken = auth.CSRFTokenFromContext(r.Context())
	if p.Flash == "" {
		p.Flash = popFlash(w, r, v.secureCookies)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", p); err != nil {
		v.logger.Error("failed to render template",
			slog.String("template", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		v.logger.Debug("writing response", slog.String("error", err.Error()))
	}
}

// gravatarURL returns the avatar image URL for an email address.
// Gravatar keys avatars by the MD5 of the trimmed, lowercased address.
func gravatarURL(email string, size int) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%x?s=%d&d=retro&r=g", sum, size)
}
