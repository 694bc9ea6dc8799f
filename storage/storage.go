// Package storage is the durable key/value medium behind the console's
// per-browser state. Backends report errors; Local never does.
package storage

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotFound is returned by backends for a missing key.
var ErrNotFound = errors.New("storage: key not found")

type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Open picks a backend by the scheme of storeURL.
func Open(ctx context.Context, storeURL string) (Backend, error) {
	scheme, rest, ok := strings.Cut(storeURL, "://")
	if !ok {
		return nil, errors.Errorf("storage: malformed store url %q", storeURL)
	}

	var (
		b   Backend
		err error
	)
	switch scheme {
	case "memory":
		return NewMemory(), nil
	case "file":
		b, err = NewFile(rest)
	case "mysql":
		b, err = DBConn(ctx, MySQL, rest)
	case "postgres", "postgresql":
		b, err = DBConn(ctx, Postgres, storeURL)
	case "redis", "rediss":
		b, err = NewRedis(ctx, storeURL)
	default:
		return nil, errors.Errorf("storage: unsupported scheme %q", scheme)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Local is the get-with-default / set helper the console state sits on. A nil
// backend means no persistent medium: Get yields the default and Set is skipped.
type Local struct {
	backend Backend
}

func NewLocal(b Backend) *Local {
	return &Local{backend: b}
}

func (l *Local) Available() bool {
	return l != nil && l.backend != nil
}

func (l *Local) Get(ctx context.Context, key, def string) string {
	if !l.Available() {
		return def
	}
	val, err := l.backend.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logrus.WithField("key", key).Warnf("storage get failed: %v", err)
		}
		return def
	}
	return val
}

func (l *Local) Set(ctx context.Context, key, value string) {
	if !l.Available() {
		return
	}
	if err := l.backend.Set(ctx, key, value); err != nil {
		logrus.WithField("key", key).Warnf("storage set failed: %v", err)
	}
}

// Value is a single tracked string: read once at creation, every Set is
// written through to the store. Get never waits on a write in flight.
type Value struct {
	local *Local
	key   string

	mu      sync.RWMutex
	current string
	write   sync.Mutex
}

func NewValue(ctx context.Context, local *Local, key, def string) *Value {
	return &Value{local: local, key: key, current: local.Get(ctx, key, def)}
}

func (v *Value) Get() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.current
}

// Set updates the value at once and then writes it through. Concurrent writes
// are serialized and the store ends up with the latest value.
func (v *Value) Set(ctx context.Context, value string) {
	v.mu.Lock()
	v.current = value
	v.mu.Unlock()

	v.write.Lock()
	defer v.write.Unlock()
	v.local.Set(ctx, v.key, v.Get())
}

// Key joins a fixed storage key with a per-browser namespace.
func Key(name, namespace string) string {
	return name + ":" + url.PathEscape(namespace)
}
