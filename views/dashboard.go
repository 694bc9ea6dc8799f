package views

import (
	"context"

	"github.com/gimaevra94/serviceflow-console/apiclient"
	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/structs"
)

type Dashboard struct {
	conn  Conn
	api   API
	state state[structs.Request]
}

type DashboardView struct {
	Snapshot[structs.Request]
	User       *structs.User
	Total      int
	Open       int
	InProgress int
}

func NewDashboard(conn Conn, api API) *Dashboard {
	return &Dashboard{conn: conn, api: api}
}

func (d *Dashboard) Load(ctx context.Context) bool {
	query := apiclient.NewQuery().SetInt(consts.LimitQuery, consts.DashboardLimit).String()
	return d.state.load(ctx, d.conn.APIKey(), func(ctx context.Context, key string) ([]structs.Request, error) {
		return d.api.ListRequests(ctx, key, query)
	})
}

func (d *Dashboard) View() DashboardView {
	snap := d.state.snapshot(d.conn.APIKey())
	v := DashboardView{Snapshot: snap, User: d.conn.User(), Total: len(snap.Items)}
	for _, r := range snap.Items {
		switch r.Status {
		case structs.StatusOpen:
			v.Open++
		case structs.StatusInProgress:
			v.InProgress++
		}
	}
	return v
}
