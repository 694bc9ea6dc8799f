package handlers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/structs"
)

const healthUnknown = "unknown"

type HealthChecker interface {
	Health(ctx context.Context) (*structs.Health, error)
}

// HealthProbe polls the API health endpoint in the background so page renders
// never wait on it.
type HealthProbe struct {
	checker HealthChecker
	mu      sync.RWMutex
	status  string
}

func NewHealthProbe(checker HealthChecker) *HealthProbe {
	return &HealthProbe{checker: checker, status: healthUnknown}
}

func (p *HealthProbe) Status() string {
	if p == nil {
		return healthUnknown
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *HealthProbe) Check(ctx context.Context) string {
	status := "unreachable"
	if h, err := p.checker.Health(ctx); err == nil {
		status = h.Status
		if h.Database != "" && h.Database != "ok" {
			status += " (database " + h.Database + ")"
		}
	}
	p.mu.Lock()
	changed := p.status != status
	p.status = status
	p.mu.Unlock()
	if changed {
		logrus.WithField("status", status).Info("api health changed")
	}
	return status
}

func (p *HealthProbe) Run(ctx context.Context, interval, timeout time.Duration) {
	if interval <= 0 {
		return
	}
	check := func() {
		checkCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		p.Check(checkCtx)
	}
	check()
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				check()
			}
		}
	}()
}
