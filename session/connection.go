package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/gimaevra94/serviceflow-console/consts"
	"github.com/gimaevra94/serviceflow-console/errs"
	"github.com/gimaevra94/serviceflow-console/storage"
	"github.com/gimaevra94/serviceflow-console/structs"
)

type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	Failed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "disconnected"
	}
}

type Identity interface {
	GetMe(ctx context.Context, apiKey string) (*structs.User, error)
}

// Connection is the API key and resolved user shared by every view of one
// browser. It is the only writer of the persisted key.
type Connection struct {
	mu     sync.RWMutex
	key    *storage.Value
	user   *structs.User
	state  State
	status string
	gen    uint64
}

type Snapshot struct {
	APIKey string
	User   *structs.User
	State  State
	Status string
}

func (s Snapshot) Pending() bool {
	return s.State == Connecting
}

func NewConnection(key *storage.Value) *Connection {
	return &Connection{key: key}
}

func (c *Connection) APIKey() string {
	return c.key.Get()
}

func (c *Connection) User() *structs.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Connection) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{APIKey: c.key.Get(), User: c.user, State: c.state, Status: c.status}
}

// Connect stores apiKey and resolves the user behind it. An empty key never
// reaches the network. A failed lookup drops the user but keeps the key.
func (c *Connection) Connect(ctx context.Context, id Identity, apiKey string) State {
	if apiKey != c.key.Get() {
		c.key.Set(ctx, apiKey)
	}

	c.mu.Lock()
	if apiKey == "" {
		c.user = nil
		c.state = Disconnected
		c.status = consts.MissingKey
		c.mu.Unlock()
		return Disconnected
	}
	c.gen++
	gen := c.gen
	c.state = Connecting
	c.status = ""
	c.mu.Unlock()

	user, err := id.GetMe(ctx, apiKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return c.state
	}
	if err != nil {
		c.user = nil
		c.state = Failed
		c.status = fmt.Sprintf(consts.ConnectError, errs.Message(err))
		logrus.WithError(err).Info("connect failed")
		return Failed
	}
	c.user = user
	c.state = Connected
	c.status = fmt.Sprintf(consts.ConnectedAs, user.FullName)
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("connected")
	return Connected
}

// Disconnect forgets the user; the key stays for the next connect.
func (c *Connection) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.user = nil
	c.state = Disconnected
	c.status = consts.Disconnected
}
