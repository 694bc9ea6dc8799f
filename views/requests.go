package views

import (
	"context"
	"sync"

	"github.com/gimaevra94/serviceflow-console/apiclient"
	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/structs"
)

// Requests lists all requests, optionally narrowed to one status.
type Requests struct {
	conn Conn
	api  API

	mu     sync.Mutex
	filter structs.Status
	limit  int

	state state[structs.Request]
}

type RequestsView struct {
	Snapshot[structs.Request]
	Filter   structs.Status
	Limit    int
	Statuses []structs.Status
}

func NewRequests(conn Conn, api API) *Requests {
	return &Requests{conn: conn, api: api}
}

// Apply sets the filter and loads with it. Unknown statuses mean all; a limit
// outside 1..100 means the API default.
func (v *Requests) Apply(ctx context.Context, status string, limit int) bool {
	v.mu.Lock()
	v.filter, _ = structs.ParseStatus(status)
	if limit < 1 || limit > consts.MaxListLimit {
		limit = 0
	}
	v.limit = limit
	query := v.queryLocked()
	v.mu.Unlock()

	return v.state.load(ctx, v.conn.APIKey(), func(ctx context.Context, key string) ([]structs.Request, error) {
		return v.api.ListRequests(ctx, key, query)
	})
}

func (v *Requests) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.queryLocked()
}

func (v *Requests) queryLocked() string {
	return apiclient.NewQuery().
		Set(consts.RequestStatusQuery, string(v.filter)).
		SetInt(consts.LimitQuery, v.limit).
		String()
}

func (v *Requests) View() RequestsView {
	v.mu.Lock()
	filter, limit := v.filter, v.limit
	v.mu.Unlock()
	return RequestsView{
		Snapshot: v.state.snapshot(v.conn.APIKey()),
		Filter:   filter,
		Limit:    limit,
		Statuses: structs.Statuses,
	}
}
