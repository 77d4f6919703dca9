package web

import (
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"kinly/internal/model"
	"kinly/internal/service"
)

const msgItemNotFound = "Content item not found"

func cursorFrom(values url.Values) service.Cursor {
	return service.Cursor{WorldID: values.Get("world"), Section: values.Get("section")}
}

func (s *Server) handleBuilder(w http.ResponseWriter, r *http.Request) {
	s.renderBuilder(w, r, http.StatusOK, cursorFrom(r.URL.Query()), builderPage{})
}

// renderBuilder loads the builder for cur and merges in the form state
// carried by extra.
func (s *Server) renderBuilder(w http.ResponseWriter, r *http.Request, status int, cur service.Cursor, extra builderPage) {
	b, err := s.opts.Portfolio.Builder(r.Context(), currentUserID(r.Context()), chi.URLParam(r, "id"), cur)
	if err != nil {
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	page := extra
	page.IP = b.IP
	page.Worlds = b.Worlds
	page.World = b.World
	page.Section = b.Section
	page.Categories = s.sectionGroups(b)
	page.Items = s.itemViews(b)
	s.render(w, r, status, ViewData{Title: b.IP.Title, ContentTemplate: "builder", Page: page})
}

func (s *Server) sectionGroups(b service.Builder) []sectionGroup {
	worldID := ""
	if b.World != nil {
		worldID = b.World.ID
	}
	var groups []sectionGroup
	for _, c := range s.opts.Portfolio.Taxonomy().Categories() {
		g := sectionGroup{Name: c.Name}
		for _, name := range c.Sections {
			g.Sections = append(g.Sections, sectionTile{
				Name:     name,
				Count:    b.Counts[name],
				Selected: name == b.Section,
				URL:      builderURL(b.IP.ID, worldID, name),
			})
		}
		groups = append(groups, g)
	}
	return groups
}

func (s *Server) itemViews(b service.Builder) []itemView {
	out := make([]itemView, 0, len(b.Items))
	for _, it := range b.Items {
		html, err := s.opts.Markdown.Render(it.Body)
		if err != nil {
			slog.Warn("render item body", "item", it.ID, "err", err)
			html = template.HTML("<pre>" + template.HTMLEscapeString(it.Body) + "</pre>")
		}
		q := url.Values{"world": {it.WorldID}, "section": {it.Section}}
		out = append(out, itemView{
			ID:        it.ID,
			Title:     it.Title,
			HTML:      html,
			CreatedAt: it.CreatedAt,
			DeleteURL: "/builder/" + url.PathEscape(b.IP.ID) + "/items/" + url.PathEscape(it.ID) + "/delete?" + q.Encode(),
		})
	}
	return out
}

func (s *Server) handleCreateWorld(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ipID := chi.URLParam(r, "id")
	section := r.PostForm.Get("section")
	name := r.PostForm.Get("name")
	world, err := s.opts.Portfolio.CreateWorld(r.Context(), currentUserID(r.Context()), ipID, model.WorldInput{Name: name})
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		s.renderBuilder(w, r, http.StatusBadRequest, service.Cursor{WorldID: r.PostForm.Get("world"), Section: section}, builderPage{WorldName: name, WorldError: verr.Msg})
		return
	case err != nil:
		s.fail(w, r, err, msgIPNotFound)
		return
	}
	http.Redirect(w, r, builderURL(ipID, world.ID, section), http.StatusSeeOther)
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	ipID := chi.URLParam(r, "id")
	in := model.ItemInput{
		WorldID: r.PostForm.Get("world"),
		Section: r.PostForm.Get("section"),
		Title:   r.PostForm.Get("title"),
		Body:    r.PostForm.Get("body"),
	}
	it, err := s.opts.Portfolio.CreateItem(r.Context(), currentUserID(r.Context()), ipID, in)
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		cur := service.Cursor{WorldID: in.WorldID, Section: in.Section}
		s.renderBuilder(w, r, http.StatusBadRequest, cur, builderPage{ItemTitle: in.Title, ItemBody: in.Body, ItemError: verr.Msg})
		return
	case err != nil:
		s.fail(w, r, err, "World not found")
		return
	}
	http.Redirect(w, r, builderURL(ipID, it.WorldID, it.Section), http.StatusSeeOther)
}

func (s *Server) handleDeleteItemConfirm(w http.ResponseWriter, r *http.Request) {
	ipID := chi.URLParam(r, "id")
	it, err := s.opts.Portfolio.Item(r.Context(), currentUserID(r.Context()), ipID, chi.URLParam(r, "itemID"), cursorFrom(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, msgItemNotFound)
		return
	}
	q := url.Values{"world": {it.WorldID}, "section": {it.Section}}
	s.render(w, r, http.StatusOK, ViewData{
		Title:           "Delete item",
		ContentTemplate: "confirm",
		Page: confirmPage{
			Heading:   "Delete content item",
			Prompt:    "Delete “" + it.Title + "” from " + it.Section + "?",
			Action:    r.URL.Path + "?" + q.Encode(),
			Submit:    "Delete",
			CancelURL: builderURL(ipID, it.WorldID, it.Section),
		},
	})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	userID := currentUserID(r.Context())
	ipID := chi.URLParam(r, "id")
	it, err := s.opts.Portfolio.Item(r.Context(), userID, ipID, chi.URLParam(r, "itemID"), cursorFrom(r.URL.Query()))
	if err != nil {
		s.fail(w, r, err, msgItemNotFound)
		return
	}
	if err := s.opts.Portfolio.DeleteItem(r.Context(), userID, it.ID); err != nil {
		s.fail(w, r, err, msgItemNotFound)
		return
	}
	http.Redirect(w, r, builderURL(ipID, it.WorldID, it.Section), http.StatusSeeOther)
}
