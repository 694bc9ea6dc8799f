package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/storage"
)

type entry struct {
	conn     *Connection
	lastSeen time.Time
}

// Manager keeps the Connection of every browser session that has something to
// remember: a stored key or a connect attempt.
type Manager struct {
	mu      sync.Mutex
	local   *storage.Local
	entries map[string]*entry
	now     func() time.Time
}

func NewManager(local *storage.Local) *Manager {
	return &Manager{
		local:   local,
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Get returns the session's connection. A session with no stored key is not
// kept; it gets a fresh disconnected connection on every request.
func (m *Manager) Get(ctx context.Context, id string) *Connection {
	if conn := m.lookup(id); conn != nil {
		return conn
	}
	if IsNew(ctx) {
		return NewConnection(storage.NewValue(ctx, nil, "", ""))
	}
	conn := m.load(ctx, id)
	if conn.APIKey() == "" {
		return conn
	}
	return m.insert(id, conn)
}

// Attach returns the session's connection and keeps it for later requests.
func (m *Manager) Attach(ctx context.Context, id string) *Connection {
	if conn := m.lookup(id); conn != nil {
		return conn
	}
	return m.insert(id, m.load(ctx, id))
}

func (m *Manager) lookup(id string) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil
	}
	e.lastSeen = m.now()
	return e.conn
}

// load reads the stored key without holding m.mu; a slow store only delays
// its own session.
func (m *Manager) load(ctx context.Context, id string) *Connection {
	return NewConnection(storage.NewValue(ctx, m.local, storage.Key(consts.APIKeyStorageKey, id), ""))
}

// insert keeps conn unless another request got there first.
func (m *Manager) insert(id string, conn *Connection) *Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.lastSeen = m.now()
		return e.conn
	}
	m.entries[id] = &entry{conn: conn, lastSeen: m.now()}
	return conn
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops sessions idle for longer than idle. Their keys stay in storage.
func (m *Manager) Sweep(idle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-idle)
	removed := 0
	for id, e := range m.entries {
		if e.lastSeen.Before(cutoff) {
			delete(m.entries, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) StartSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := m.Sweep(idle); n > 0 {
					logrus.WithField("sessions", n).Debug("idle sessions dropped")
				}
			}
		}
	}()
}
