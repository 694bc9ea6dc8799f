package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/session"
)

func (h *Handler) Router(cookieName string, metrics bool) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get(consts.Healthz, Healthz)
	if metrics {
		r.Handle(consts.Metrics, promhttp.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(cookieName))
		r.Get(consts.Dashboard, h.Dashboard)
		r.Get(consts.Requests, h.Requests)
		r.Get(consts.MyRequests, h.MyRequests)
		r.Post(consts.MyRequests, h.CreateRequest)
		r.Get(consts.Queue, h.Queue)
		r.Get(consts.Assigned, h.Assigned)
		r.Get(consts.Detail, h.Detail)
		r.Get(consts.Users, h.Users)
		r.Post(consts.Connect, h.Connect)
		r.Post(consts.Disconnect, h.Disconnect)
	})
	r.NotFound(h.NotFound)
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logrus.WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start),
			"request_id": middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}
