package web

import (
	"html/template"
	"time"

	"kinly/internal/model"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	User            *model.User
	Theme           string
	Version         string
	Flashes         []Flash
	Error           string
	Message         string
	RefreshURL      string
	RefreshSeconds  int
	// Page carries the per-template model.
	Page any
}

type loginPage struct {
	Mode  string
	Email string
}

type dashboardPage struct {
	IPs      []model.IP
	Query    string
	View     string
	Stats    model.Stats
	ListErr  error
	StatsErr error
}

type ipFormPage struct {
	// IP is nil on the create form.
	IP     *model.IP
	Input  model.IPInput
	Action string
}

type confirmPage struct {
	Heading   string
	Prompt    string
	Action    string
	Submit    string
	CancelURL string
}

type builderPage struct {
	IP         model.IP
	Worlds     []model.World
	World      *model.World
	Section    string
	Categories []sectionGroup
	Items      []itemView

	WorldName  string
	WorldError string
	ItemTitle  string
	ItemBody   string
	ItemError  string
}

type sectionGroup struct {
	Name     string
	Sections []sectionTile
}

type sectionTile struct {
	Name     string
	Count    int
	Selected bool
	URL      string
}

type itemView struct {
	ID        string
	Title     string
	HTML      template.HTML
	CreatedAt time.Time
	DeleteURL string
}
