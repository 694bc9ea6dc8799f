package handlers

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/session"
	"github.com/gimaevra94/serviceflow-console/structs"
	"github.com/gimaevra94/serviceflow-console/views"
)

// API is the backend as the console pages use it.
type API interface {
	views.API
	session.Identity
}

type Handler struct {
	tmpl     *template.Template
	api      API
	sessions *session.Manager
	health   *HealthProbe
}

type Page struct {
	Title string
	// Path selects the active nav link; Target is where connect and disconnect
	// return to, query included.
	Path   string
	Target string
	Conn   session.Snapshot
	Health string
	View   any
}

func New(tmpl *template.Template, api API, sessions *session.Manager, health *HealthProbe) *Handler {
	return &Handler{tmpl: tmpl, api: api, sessions: sessions, health: health}
}

// current is the connection pages read. Views are built per request on top of
// it, so nothing fetched outlives the navigation that fetched it.
func (h *Handler) current(r *http.Request) *session.Connection {
	return h.sessions.Get(r.Context(), session.ID(r.Context()))
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, conn *session.Connection, view any) {
	page := Page{
		Title:  title,
		Path:   r.URL.Path,
		Target: r.URL.RequestURI(),
		Conn:   conn.Snapshot(),
		Health: h.health.Status(),
		View:   view,
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, name, page); err != nil {
		errs.RenderError(w, name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		logrus.WithError(err).Debug("write response")
	}
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	conn := h.current(r)
	v := views.NewDashboard(conn, h.api)
	v.Load(r.Context())
	h.render(w, r, consts.DashboardHTML, "Overview", conn, v.View())
}

func (h *Handler) Requests(w http.ResponseWriter, r *http.Request) {
	conn := h.current(r)
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get(consts.LimitParam))
	v := views.NewRequests(conn, h.api)
	v.Apply(r.Context(), q.Get(consts.StatusParam), limit)
	h.render(w, r, consts.RequestsHTML, "All requests", conn, v.View())
}

func (h *Handler) MyRequests(w http.ResponseWriter, r *http.Request) {
	conn := h.current(r)
	v := views.NewMyRequests(conn, h.api)
	v.Load(r.Context())
	h.render(w, r, consts.MyRequestsHTML, "My requests", conn, v.View())
}

// CreateRequest renders the outcome straight away: the typed form on failure,
// the cleared form and the reloaded list on success.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	conn := h.current(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	v := views.NewMyRequests(conn, h.api)
	if !v.Submit(r.Context(), r.PostFormValue(consts.Title), r.PostFormValue(consts.Description)) {
		v.Load(r.Context())
	}
	h.render(w, r, consts.MyRequestsHTML, "My requests", conn, v.View())
}

func (h *Handler) Queue(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, consts.QueueHTML, "Queue", h.api.ListQueue)
}

func (h *Handler) Assigned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, consts.AssignedHTML, "Assigned to me", h.api.ListAssignedToMe)
}

func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	conn := h.current(r)
	v := views.NewList(conn, h.api.ListUsers)
	v.Load(r.Context())
	h.render(w, r, consts.UsersHTML, "Users", conn, v.Snapshot())
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request, name, title string, fetch func(context.Context, string) ([]structs.Request, error)) {
	conn := h.current(r)
	v := views.NewList(conn, fetch)
	v.Load(r.Context())
	h.render(w, r, name, title, conn, v.Snapshot())
}

func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, consts.RequestID))
	if err != nil || id < 1 {
		h.NotFound(w, r)
		return
	}
	conn := h.current(r)
	v := views.NewDetail(conn, h.api, id)
	v.Load(r.Context())
	h.render(w, r, consts.DetailHTML, "Request #"+strconv.Itoa(id), conn, v.View())
}

func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	conn := h.sessions.Attach(r.Context(), session.ID(r.Context()))
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	apiKey := strings.TrimSpace(r.PostFormValue(consts.APIKey))
	// The connect result must not depend on the browser staying around.
	conn.Connect(context.WithoutCancel(r.Context()), h.api, apiKey)
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	conn := h.sessions.Attach(r.Context(), session.ID(r.Context()))
	conn.Disconnect()
	http.Redirect(w, r, redirectTarget(r), http.StatusSeeOther)
}

func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, consts.Dashboard, http.StatusSeeOther)
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", consts.JSONContentType)
	w.Write([]byte(`{"status":"ok"}`))
}

// redirectTarget only follows local paths.
func redirectTarget(r *http.Request) string {
	target := r.PostFormValue("next")
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, "\\") {
		return consts.Dashboard
	}
	return target
}
