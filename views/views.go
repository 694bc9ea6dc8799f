// Package views builds each console page for one navigation: the fetched
// collection, the load error and any filter or form input. A view is created
// per request and never outlives it.
package views

import (
	"context"
	"sync"

	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/structs"
)

// Conn is the shared connection state handed to every view.
type Conn interface {
	APIKey() string
	User() *structs.User
}

type API interface {
	ListRequests(ctx context.Context, apiKey, query string) ([]structs.Request, error)
	ListQueue(ctx context.Context, apiKey string) ([]structs.Request, error)
	ListMyRequests(ctx context.Context, apiKey string) ([]structs.Request, error)
	ListAssignedToMe(ctx context.Context, apiKey string) ([]structs.Request, error)
	ListUsers(ctx context.Context, apiKey string) ([]structs.User, error)
	CreateRequest(ctx context.Context, apiKey string, payload structs.NewRequest) (*structs.Request, error)
	GetRequest(ctx context.Context, apiKey string, id int) (*structs.Request, error)
	RequestHistory(ctx context.Context, apiKey string, id int) ([]structs.RequestLog, error)
}

type Snapshot[T any] struct {
	Items    []T
	Error    string
	NeedsKey bool
}

// state is one collection plus its load generation. Only the response of the
// most recently issued load is kept.
type state[T any] struct {
	mu     sync.Mutex
	items  []T
	errMsg string
	issued uint64
}

// load reports whether the response was applied.
func (s *state[T]) load(ctx context.Context, apiKey string, fetch func(context.Context, string) ([]T, error)) bool {
	if apiKey == "" {
		return false
	}
	s.mu.Lock()
	s.issued++
	gen := s.issued
	s.mu.Unlock()

	items, err := fetch(ctx, apiKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.issued || ctx.Err() != nil {
		return false
	}
	if err != nil {
		s.items = nil
		s.errMsg = errs.Message(err)
		return true
	}
	s.items = items
	s.errMsg = ""
	return true
}

func (s *state[T]) snapshot(apiKey string) Snapshot[T] {
	if apiKey == "" {
		return Snapshot[T]{NeedsKey: true}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot[T]{Items: s.items, Error: s.errMsg}
}

// List is a view that only fetches and shows one collection.
type List[T any] struct {
	conn  Conn
	fetch func(context.Context, string) ([]T, error)
	state state[T]
}

func NewList[T any](conn Conn, fetch func(context.Context, string) ([]T, error)) *List[T] {
	return &List[T]{conn: conn, fetch: fetch}
}

func (l *List[T]) Load(ctx context.Context) bool {
	return l.state.load(ctx, l.conn.APIKey(), l.fetch)
}

func (l *List[T]) Snapshot() Snapshot[T] {
	return l.state.snapshot(l.conn.APIKey())
}
