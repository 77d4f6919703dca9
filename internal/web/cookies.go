package web

import (
	"net/http"
	"time"
)

const (
	sessionCookie = "kinly_session"
	themeCookie   = "kinly_theme"
	viewCookie    = "kinly_view"

	themeDark  = "dark"
	themeLight = "light"

	viewGrid  = "grid"
	viewTable = "table"

	prefCookieAge = 365 * 24 * time.Hour
)

func (s *Server) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) setSession(w http.ResponseWriter, token string) {
	s.setCookie(w, sessionCookie, token, s.opts.Accounts.SessionTTL())
}

func themeFromRequest(r *http.Request) string {
	if c, err := r.Cookie(themeCookie); err == nil && c.Value == themeLight {
		return themeLight
	}
	return themeDark
}

// viewFromRequest prefers the query parameter and falls back to the
// remembered cookie.
func viewFromRequest(r *http.Request) (view string, fromQuery bool) {
	switch v := r.URL.Query().Get("view"); v {
	case viewGrid, viewTable:
		return v, true
	}
	if c, err := r.Cookie(viewCookie); err == nil && c.Value == viewTable {
		return viewTable, false
	}
	return viewGrid, false
}
