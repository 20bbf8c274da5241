package site

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"time"

	"github.com/okian/auscript/pkg/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names understood by the Renderer.
const (
	PageIndex    = "index"
	PageContact  = "contact"
	PageAbout    = "about"
	PagePictures = "pictures"
)

var pageNames = []string{PageIndex, PageContact, PageAbout, PagePictures}

// PageData is the value every page template executes against. Debug and
// Year are filled in by the Renderer.
type PageData struct {
	Title   string
	Message string
	Extra   string
	Sent    bool

	Debug bool
	Year  int
}

// Renderer executes the layout plus one page template.
type Renderer struct {
	pages map[string]*template.Template
	debug bool
	now   func() time.Time
	fsys  fs.FS
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithDebug sets the Debug flag injected into every page.
func WithDebug(debug bool) RendererOption {
	return func(r *Renderer) { r.debug = debug }
}

// WithClock replaces time.Now for the footer year.
func WithClock(now func() time.Time) RendererOption {
	return func(r *Renderer) {
		if now != nil {
			r.now = now
		}
	}
}

// WithTemplates parses templates from fsys instead of the embedded set.
// fsys must hold templates/layout.html and templates/<page>.html.
func WithTemplates(fsys fs.FS) RendererOption {
	return func(r *Renderer) {
		if fsys != nil {
			r.fsys = fsys
		}
	}
}

// NewRenderer parses every page up front so a broken template fails startup.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	const op = "site.new_renderer"

	r := &Renderer{
		pages: make(map[string]*template.Template, len(pageNames)),
		now:   time.Now,
		fsys:  templateFS,
	}
	for _, opt := range opts {
		opt(r)
	}

	for _, page := range pageNames {
		// layout first so the page's blocks override the layout defaults
		tmpl, err := template.ParseFS(r.fsys, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, WrapKind(op, ErrRender, fmt.Errorf("parse %s: %w", page, err))
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render executes page into a buffer and copies it to w only on success, so
// a failed render never leaves a partial page behind.
func (r *Renderer) Render(w io.Writer, page string, data PageData) error { //nolint:gocritic // hugeParam
	const op = "site.render"

	tmpl, ok := r.pages[page]
	if !ok {
		metrics.RecordPageRender(page, "unknown")
		return WrapKind(op, ErrUnknownPage, fmt.Errorf("%q", page))
	}

	data.Debug = r.debug
	data.Year = r.now().Year()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		metrics.RecordPageRender(page, "error")
		return WrapKind(op, ErrRender, err)
	}
	metrics.RecordPageRender(page, "ok")

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("%s: write: %w", op, err)
	}
	return nil
}
