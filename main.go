package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/apiclient"
	"github.com/gimaevra94/serviceflow-console/config"
	"github.com/gimaevra94/serviceflow-console/handlers"
	"github.com/gimaevra94/serviceflow-console/session"
	"github.com/gimaevra94/serviceflow-console/storage"
	"github.com/gimaevra94/serviceflow-console/templates"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("%+v", err)
	}
	initLogger(cfg)
	logrus.WithFields(logrus.Fields{
		"http_addr": cfg.HTTPAddr,
		"api_url":   cfg.APIURL,
		"store":     cfg.StoreScheme(),
		"metrics":   cfg.MetricsEnabled,
	}).Info("config loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	local := initStore(ctx, cfg)

	tmpl, err := templates.Parse()
	if err != nil {
		logrus.Fatalf("%+v", err)
	}

	client := apiclient.New(cfg.APIURL, cfg.APITimeout)
	sessions := session.NewManager(local)
	sessions.StartSweeper(ctx, time.Hour, cfg.SessionIdle)

	health := handlers.NewHealthProbe(client)
	health.Run(ctx, cfg.HealthInterval, cfg.APITimeout)

	h := handlers.New(tmpl, client, sessions, health)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h.Router(cfg.SessionCookie, cfg.MetricsEnabled),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Errorf("shutdown: %v", err)
		}
	}()

	logrus.WithField("addr", cfg.HTTPAddr).Info("console listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logrus.Fatalf("%+v", errors.WithStack(err))
	}
}

func initLogger(cfg config.Config) {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
	if cfg.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// initStore falls back to no persistent medium when the store is unavailable;
// the console still works, keys just do not survive a restart.
func initStore(ctx context.Context, cfg config.Config) *storage.Local {
	openCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	backend, err := storage.Open(openCtx, cfg.StoreURL)
	if err != nil {
		logrus.Warnf("store unavailable, api keys will not persist: %+v", err)
		return storage.NewLocal(nil)
	}
	go func() {
		<-ctx.Done()
		if err := backend.Close(); err != nil {
			logrus.Errorf("store close: %v", err)
		}
	}()
	return storage.NewLocal(backend)
}
