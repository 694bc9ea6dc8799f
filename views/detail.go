package views

import (
	"context"
	"sync"

	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/structs"
)

// Detail shows one request and its change history. Both come from the same
// load and are replaced together.
type Detail struct {
	conn Conn
	api  API

	id int

	mu      sync.Mutex
	request *structs.Request
	history []structs.RequestLog
	errMsg  string
	issued  uint64
}

type DetailView struct {
	ID       int
	Request  *structs.Request
	History  []structs.RequestLog
	Error    string
	NeedsKey bool
}

func NewDetail(conn Conn, api API, id int) *Detail {
	return &Detail{conn: conn, api: api, id: id}
}

func (d *Detail) Load(ctx context.Context) bool {
	apiKey := d.conn.APIKey()
	if apiKey == "" {
		return false
	}
	d.mu.Lock()
	d.issued++
	gen := d.issued
	d.mu.Unlock()

	req, err := d.api.GetRequest(ctx, apiKey, d.id)
	var history []structs.RequestLog
	if err == nil {
		history, err = d.api.RequestHistory(ctx, apiKey, d.id)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if gen != d.issued || ctx.Err() != nil {
		return false
	}
	if err != nil {
		d.request, d.history = nil, nil
		d.errMsg = errs.Message(err)
		return true
	}
	d.request, d.history, d.errMsg = req, history, ""
	return true
}

func (d *Detail) View() DetailView {
	if d.conn.APIKey() == "" {
		return DetailView{ID: d.id, NeedsKey: true}
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return DetailView{ID: d.id, Request: d.request, History: d.history, Error: d.errMsg}
}
