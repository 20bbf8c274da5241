// Package site serves the HTML pages, the contact form endpoint and the
// static assets those pages load.
package site

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net/http"

	"github.com/okian/auscript/internal/adapters/http/middleware"
	"github.com/okian/auscript/internal/domain/contact"
	"github.com/okian/auscript/pkg/logger"
)

//go:embed static
var staticFS embed.FS

// Page copy.
const (
	homeTitle = "Home Page"

	contactTitle   = "A Form Example"
	contactMessage = "Powered by Aurelia Script and Aurelia Validation"

	sentTitle   = "I have been Sent thanks!"
	sentMessage = "If you have another inquiry you can contact us again"

	// AckMessage is the JSON reply to a JSON contact submission.
	AckMessage = "Thanks! we have your message now!"

	aboutTitle   = "About"
	aboutMessage = "Your application description page."
	aboutExtra   = "AAAAAAA Prro trais el piton"

	picturesTitle = "Pictures"
)

// PageRenderer renders a named page. *Renderer satisfies it.
type PageRenderer interface {
	Render(w io.Writer, page string, data PageData) error
}

// Observer receives every accepted contact submission.
type Observer interface {
	Observe(ctx context.Context, sub contact.Submission) error
}

// Server wires the site routes.
type Server struct {
	renderer     PageRenderer
	observer     Observer
	maxBodyBytes int64
	logger       logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithObserver sets the submission observer. Without one, submissions are
// answered but not recorded anywhere.
func WithObserver(o Observer) Option {
	return func(s *Server) { s.observer = o }
}

// WithMaxBodyBytes caps the contact request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// WithLogger sets the logger for handlers and middleware.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a site server backed by renderer.
func NewServer(renderer PageRenderer, opts ...Option) *Server {
	s := &Server{
		renderer:     renderer,
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("site")
	}
	return s
}

// Register attaches the page, contact and static routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /{$}", s.wrap(s.page(PageIndex, PageData{Title: homeTitle}), "home"))
	mux.Handle("GET /home", s.wrap(s.page(PageIndex, PageData{Title: homeTitle}), "home"))
	mux.Handle("GET /contact", s.wrap(s.page(PageContact, PageData{Title: contactTitle, Message: contactMessage}), "contact"))
	mux.Handle("POST /contact", s.wrap(http.HandlerFunc(s.HandlePostContact), "contact_post"))
	mux.Handle("GET /about", s.wrap(s.page(PageAbout, PageData{
		Title:   aboutTitle,
		Message: aboutMessage,
		Extra:   aboutExtra,
	}), "about"))
	mux.Handle("GET /pictures", s.wrap(s.page(PagePictures, PageData{Title: picturesTitle}), "pictures"))
	mux.Handle("GET /static/", s.wrap(http.StripPrefix("/static/", http.FileServer(StaticFS())), "static"))
}

func (s *Server) wrap(h http.Handler, endpoint string) http.Handler {
	return middleware.Chain(h, endpoint, s.logger)
}

// page returns a handler that renders a fixed page.
func (s *Server) page(name string, data PageData) http.Handler { //nolint:gocritic // hugeParam
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, name, data)
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data PageData) { //nolint:gocritic // hugeParam
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, name, data); err != nil {
		s.logger.Error(r.Context(), "page render failed",
			logger.String("page", name),
			logger.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// HandlePostContact handles POST /contact.
func (s *Server) HandlePostContact(w http.ResponseWriter, r *http.Request) {
	const op = "site.post_contact"

	sub, err := contact.Decode(w, r, s.maxBodyBytes)
	if err != nil {
		status, code, kind := http.StatusBadRequest, "bad_request", ErrBadRequest
		if errors.Is(err, contact.ErrBodyTooLarge) {
			status, code, kind = http.StatusRequestEntityTooLarge, "payload_too_large", ErrPayloadTooLarge
		}
		s.logger.Warn(r.Context(), "contact submission rejected",
			logger.Int("status", status),
			logger.Error(WrapKind(op, kind, err)),
		)
		writeError(w, status, code, kind)
		return
	}

	if s.observer != nil {
		if err := s.observer.Observe(r.Context(), sub); err != nil {
			s.logger.Warn(r.Context(), "contact submission not observed",
				logger.String("id", sub.ID),
				logger.Error(err),
			)
		}
	}

	s.writeContactResponse(w, r, sub)
}

// writeContactResponse picks the reply shape from the submission kind.
func (s *Server) writeContactResponse(w http.ResponseWriter, r *http.Request, sub contact.Submission) { //nolint:gocritic // hugeParam
	switch sub.Kind {
	case contact.KindJSON:
		writeJSON(w, http.StatusOK, ackResponse{Message: AckMessage})
	case contact.KindForm, contact.KindAbsent:
		s.render(w, r, PageContact, PageData{Title: sentTitle, Message: sentMessage, Sent: true})
	}
}

// StaticFS returns the embedded assets rooted at the static directory.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		return http.FS(staticFS)
	}
	return http.FS(sub)
}

type ackResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
