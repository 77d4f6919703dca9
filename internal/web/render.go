package web

import (
	"errors"
	"log/slog"
	"net/http"

	"kinly/internal/store"
)

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data ViewData) {
	if user, ok := CurrentUser(r.Context()); ok {
		data.User = &user
		data.Flashes = s.flashes.Take(user.ID)
	}
	data.Theme = themeFromRequest(r)
	data.Version = s.opts.Version
	if err := s.views.RenderPage(w, status, data); err != nil {
		slog.Error("render page", "path", r.URL.Path, "template", data.ContentTemplate, "err", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) notFound(w http.ResponseWriter, r *http.Request, msg string) {
	s.render(w, r, http.StatusNotFound, ViewData{Title: "Not found", ContentTemplate: "error", Error: msg})
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "user", currentUserID(r.Context()), "err", err)
	s.render(w, r, http.StatusInternalServerError, ViewData{
		Title:           "Something went wrong",
		ContentTemplate: "error",
		Error:           "Something went wrong. Please try again.",
	})
}

// fail maps store lookups that miss to a 404 page and everything else to
// a logged 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		s.notFound(w, r, notFoundMsg)
		return
	}
	s.serverError(w, r, err)
}
