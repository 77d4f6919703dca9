package web

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"kinly/internal/model"
)

const (
	msgIPNotFound = "IP not found"
	msgIPCreated  = "IP created successfully."
	msgIPUpdated  = "IP updated successfully!"
	msgIPDeleted  = "IP deleted."
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, fromQuery := viewFromRequest(r)
	if fromQuery {
		s.setCookie(w, viewCookie, view, prefCookieAge)
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	dash, err := s.opts.Portfolio.Dashboard(r.Context(), currentUserID(r.Context()), query)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.render(w, r, http.StatusOK, ViewData{
		Title:           "Dashboard",
		ContentTemplate: "dashboard",
		Page: dashboardPage{
			IPs:      dash.IPs,
			Query:    dash.Query,
			View:     view,
			Stats:    dash.Stats,
			ListErr:  dash.ListErr,
			StatsErr: dash.StatsErr,
		},
	})
}

// ipFormInput reads the three IP fields. Only a field absent from the
// form body is an error; blank values pass.
func ipFormInput(r *http.Request) (model.IPInput, error) {
	if err := r.ParseForm(); err != nil {
		return model.IPInput{}, err
	}
	for _, field := range []string{"title", "description", "owner"} {
		if _, ok := r.PostForm[field]; !ok {
			return model.IPInput{}, &model.ValidationError{Field: field, Msg: field + " is required"}
		}
	}
	return model.IPInput{
		Title:       r.PostForm.Get("title"),
		Description: r.PostForm.Get("description"),
		Owner:       r.PostForm.Get("owner"),
	}, nil
}

func (s *Server) renderIPForm(w http.ResponseWriter, r *http.Request, status int, page ipFormPage, data ViewData) {
	data.ContentTemplate = "ip_form"
	data.Page = page
	if page.IP == nil {
		data.Title = "Create an IP"
	} else {
		data.Title = "Edit IP"
	}
	s.render(w, r, status, data)
}

func (s *Server) handleCreateIPForm(w http.ResponseWriter, r *http.Request) {
	s.renderIPForm(w, r, http.StatusOK, ipFormPage{Action: "/create-ip"}, ViewData{})
}

func (s *Server) handleCreateIP(w http.ResponseWriter, r *http.Request) {
	in, err := ipFormInput(r)
	page := ipFormPage{Action: "/create-ip", Input: in}
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		s.renderIPForm(w, r, http.StatusBadRequest, page, ViewData{Error: verr.Msg})
		return
	}
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, err := s.opts.Portfolio.CreateIP(r.Context(), currentUserID(r.Context()), in); err != nil {
		if errors.As(err, &verr) {
			s.renderIPForm(w, r, http.StatusBadRequest, page, ViewData{Error: verr.Msg})
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.renderIPForm(w, r, http.StatusOK, ipFormPage{Action: "/create-ip"}, ViewData{
		Message:        msgIPCreated,
		RefreshURL:     "/dashboard",
		RefreshSeconds: int(math.Ceil(s.opts.CreateRedirectDelay.Seconds())),
	})
}

func (s *Server) handleEditIPForm(w http.ResponseWriter, r *http.Request) {
	ip, err := s.opts.Portfolio.GetIP(r.Context(), currentUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	s.renderIPForm(w, r, http.StatusOK, editPage(ip, ip.Title, ip.Description, ip.Owner), ViewData{})
}

func editPage(ip model.IP, title, description, owner string) ipFormPage {
	return ipFormPage{
		IP:     &ip,
		Input:  model.IPInput{Title: title, Description: description, Owner: owner},
		Action: "/ips/" + url.PathEscape(ip.ID) + "/edit",
	}
}

func (s *Server) handleEditIP(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	ip, err := s.opts.Portfolio.GetIP(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	in, err := ipFormInput(r)
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		s.renderIPForm(w, r, http.StatusBadRequest, editPage(ip, in.Title, in.Description, in.Owner), ViewData{Error: verr.Msg})
		return
	}
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	updated, err := s.opts.Portfolio.UpdateIP(r.Context(), userID, ip.ID, in)
	if err != nil {
		if errors.As(err, &verr) {
			s.renderIPForm(w, r, http.StatusBadRequest, editPage(ip, in.Title, in.Description, in.Owner), ViewData{Error: verr.Msg})
			return
		}
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	s.renderIPForm(w, r, http.StatusOK, editPage(updated, updated.Title, updated.Description, updated.Owner), ViewData{Message: msgIPUpdated})
}

func (s *Server) handleDeleteIPConfirm(w http.ResponseWriter, r *http.Request) {
	ip, err := s.opts.Portfolio.GetIP(r.Context(), currentUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	s.render(w, r, http.StatusOK, ViewData{
		Title:           "Delete IP",
		ContentTemplate: "confirm",
		Page: confirmPage{
			Heading:   "Delete IP",
			Prompt:    "Delete “" + ip.Title + "”? All of its worlds and content items will be removed. This cannot be undone.",
			Action:    "/ips/" + url.PathEscape(ip.ID) + "/delete",
			Submit:    "Delete IP",
			CancelURL: "/dashboard",
		},
	})
}

func (s *Server) handleDeleteIP(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Portfolio.DeleteIP(r.Context(), currentUserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	s.flash(r, "success", msgIPDeleted)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, ViewData{Title: "Settings", ContentTemplate: "settings"})
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	next := themeLight
	if themeFromRequest(r) == themeLight {
		next = themeDark
	}
	s.setCookie(w, themeCookie, next, prefCookieAge)
	http.Redirect(w, r, sameOriginReferer(r, "/dashboard"), http.StatusSeeOther)
}

// sameOriginReferer returns the Referer's path and query when it points
// back at this host.
func sameOriginReferer(r *http.Request, fallback string) string {
	ref := r.Referer()
	if ref == "" {
		return fallback
	}
	u, err := url.Parse(ref)
	if err != nil || (u.Host != "" && u.Host != r.Host) || !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") {
		return fallback
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}

func (s *Server) handleDeleteAccountConfirm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, ViewData{
		Title:           "Delete account",
		ContentTemplate: "confirm",
		Page: confirmPage{
			Heading:   "Delete Account",
			Prompt:    "Are you sure you want to delete your account? All your IPs, worlds and content will be permanently deleted.",
			Action:    "/settings/delete-account",
			Submit:    "Delete Account",
			CancelURL: "/settings",
		},
	})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Portfolio.DeleteAccountData(r.Context(), currentUserID(r.Context())); err != nil {
		s.serverError(w, r, err)
		return
	}
	s.clearCookie(w, sessionCookie)
	http.Redirect(w, r, "/login?deleted=1", http.StatusSeeOther)
}
