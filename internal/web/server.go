package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"kinly/internal/markdown"
	"kinly/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Options struct {
	Accounts  *service.Accounts
	Portfolio *service.Portfolio
	Store     Pinger
	Markdown  *markdown.Renderer
	// CreateRedirectDelay is how long the "IP created" notice stays up
	// before the page returns to the dashboard.
	CreateRedirectDelay time.Duration
	SecureCookies       bool
	Version             string
}

type Server struct {
	opts    Options
	router  chi.Router
	views   *Templates
	flashes *flashStore
}

func NewServer(opts Options) (*Server, error) {
	if opts.Accounts == nil || opts.Portfolio == nil {
		return nil, errors.New("web: accounts and portfolio are required")
	}
	if opts.Markdown == nil {
		opts.Markdown = markdown.New(markdown.DefaultStyle)
	}
	if opts.CreateRedirectDelay <= 0 {
		opts.CreateRedirectDelay = 1500 * time.Millisecond
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	views, err := ParseTemplates()
	if err != nil {
		return nil, err
	}
	s := &Server{
		opts:    opts,
		router:  chi.NewRouter(),
		views:   views,
		flashes: newFlashStore(flashTTL),
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(s.loadSession, logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/static/*", http.FileServer(http.FS(staticFS)))

	r.Get("/", s.handleHome)
	r.Get("/login", s.handleLoginForm)
	r.Post("/login", s.handleLogin)
	r.Post("/logout", s.handleLogout)
	r.Get("/auth-confirm", s.handleAuthConfirm)

	r.Group(func(r chi.Router) {
		r.Use(requireUser)

		r.Get("/dashboard", s.handleDashboard)
		r.Get("/create-ip", s.handleCreateIPForm)
		r.Post("/create-ip", s.handleCreateIP)
		r.Get("/ips/{id}/edit", s.handleEditIPForm)
		r.Post("/ips/{id}/edit", s.handleEditIP)
		r.Get("/ips/{id}/delete", s.handleDeleteIPConfirm)
		r.Post("/ips/{id}/delete", s.handleDeleteIP)

		r.Get("/builder/{id}", s.handleBuilder)
		r.Post("/builder/{id}/worlds", s.handleCreateWorld)
		r.Post("/builder/{id}/items", s.handleCreateItem)
		r.Get("/builder/{id}/items/{itemID}/delete", s.handleDeleteItemConfirm)
		r.Post("/builder/{id}/items/{itemID}/delete", s.handleDeleteItem)

		r.Get("/settings", s.handleSettings)
		r.Post("/settings/theme", s.handleToggleTheme)
		r.Get("/settings/delete-account", s.handleDeleteAccountConfirm)
		r.Post("/settings/delete-account", s.handleDeleteAccount)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.opts.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Store.Ping(ctx); err != nil {
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
