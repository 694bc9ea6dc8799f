package views

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/structs"
)

type Form struct {
	Title       string
	Description string
}

// MyRequests lists the caller's own requests and creates new ones.
type MyRequests struct {
	conn Conn
	api  API

	mu      sync.Mutex
	form    Form
	message string

	state state[structs.Request]
}

type MyRequestsView struct {
	Snapshot[structs.Request]
	Form    Form
	Message string
}

func NewMyRequests(conn Conn, api API) *MyRequests {
	return &MyRequests{conn: conn, api: api}
}

func (v *MyRequests) Load(ctx context.Context) bool {
	return v.state.load(ctx, v.conn.APIKey(), v.api.ListMyRequests)
}

// Submit creates a request. On success the form is cleared and the list is
// loaded once more; on failure the form keeps what was typed.
func (v *MyRequests) Submit(ctx context.Context, title, description string) bool {
	v.mu.Lock()
	v.form = Form{Title: title, Description: description}
	v.mu.Unlock()

	apiKey := v.conn.APIKey()
	switch {
	case apiKey == "":
		v.setMessage(consts.NeedKey)
		return false
	case strings.TrimSpace(title) == "":
		v.setMessage(consts.TitleRequired)
		return false
	}

	created, err := v.api.CreateRequest(ctx, apiKey, structs.NewRequest{Title: title, Description: description})
	if err != nil {
		v.setMessage(fmt.Sprintf(consts.CreateError, errs.Message(err)))
		return false
	}
	logrus.WithField("request_id", created.ID).Info("request created")

	v.mu.Lock()
	v.form = Form{}
	v.message = consts.RequestCreated
	v.mu.Unlock()

	v.Load(ctx)
	return true
}

func (v *MyRequests) setMessage(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.message = msg
}

func (v *MyRequests) View() MyRequestsView {
	v.mu.Lock()
	form, msg := v.form, v.message
	v.mu.Unlock()
	return MyRequestsView{Snapshot: v.state.snapshot(v.conn.APIKey()), Form: form, Message: msg}
}
