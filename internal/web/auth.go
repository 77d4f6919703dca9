package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"kinly/internal/auth"
	"kinly/internal/model"
	"kinly/internal/service"
	"kinly/internal/store"
)

const (
	msgCheckEmail    = "Check your email to confirm signup."
	msgBadLogin      = "Invalid login credentials"
	msgNotConfirmed  = "Email not confirmed"
	msgUserExists    = "User already registered"
	msgBadConfirm    = "Email link is invalid or has expired"
	msgAccountPurged = "Your data has been deleted. Please contact support to complete account deletion."
)

// loadSession attaches the signed-in user to the request context. A stale
// or forged cookie is cleared and the request continues anonymously.
func (s *Server) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil || c.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, err := s.opts.Accounts.Session(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, auth.ErrTokenInvalid) && !errors.Is(err, auth.ErrTokenExpired) {
				slog.Warn("load session", "path", r.URL.Path, "err", err)
			}
			s.clearCookie(w, sessionCookie)
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	s.render(w, r, http.StatusOK, ViewData{ContentTemplate: "landing"})
}

func loginMode(v string) string {
	if v == "signup" {
		return "signup"
	}
	return "login"
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	data := ViewData{
		Title:           "Sign in",
		ContentTemplate: "login",
		Page:            loginPage{Mode: loginMode(r.URL.Query().Get("mode"))},
	}
	if r.URL.Query().Get("deleted") == "1" {
		data.Message = msgAccountPurged
	}
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	creds := model.Credentials{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}
	mode := loginMode(r.PostForm.Get("mode"))
	page := loginPage{Mode: mode, Email: creds.Email}
	fail := func(status int, msg string) {
		s.render(w, r, status, ViewData{Title: "Sign in", ContentTemplate: "login", Error: msg, Page: page})
	}

	if mode == "signup" {
		res, err := s.opts.Accounts.SignUp(r.Context(), creds)
		var verr *model.ValidationError
		switch {
		case errors.As(err, &verr):
			fail(http.StatusBadRequest, verr.Msg)
			return
		case errors.Is(err, store.ErrConflict):
			fail(http.StatusConflict, msgUserExists)
			return
		case err != nil:
			s.serverError(w, r, err)
			return
		}
		if res.NeedsConfirm {
			s.render(w, r, http.StatusOK, ViewData{
				Title:           "Sign in",
				ContentTemplate: "login",
				Message:         msgCheckEmail,
				Page:            loginPage{Mode: "login", Email: creds.Email},
			})
			return
		}
		s.setSession(w, res.Session)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	_, token, err := s.opts.Accounts.SignIn(r.Context(), creds)
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		fail(http.StatusUnauthorized, msgBadLogin)
		return
	case errors.Is(err, service.ErrEmailNotConfirmed):
		fail(http.StatusUnauthorized, msgNotConfirmed)
		return
	case err != nil:
		s.serverError(w, r, err)
		return
	}
	s.setSession(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleAuthConfirm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if desc := firstNonEmpty(q.Get("error_description"), q.Get("error")); desc != "" {
		s.render(w, r, http.StatusBadRequest, ViewData{Title: "Email confirmation", ContentTemplate: "auth_confirm", Error: desc})
		return
	}
	if token := q.Get("token"); token != "" {
		_, session, err := s.opts.Accounts.Confirm(r.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrTokenInvalid) && !errors.Is(err, auth.ErrTokenExpired) {
				s.serverError(w, r, err)
				return
			}
			s.render(w, r, http.StatusBadRequest, ViewData{Title: "Email confirmation", ContentTemplate: "auth_confirm", Error: msgBadConfirm})
			return
		}
		s.setSession(w, session)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if _, ok := CurrentUser(r.Context()); ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
