package feed

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/gareth0712/hyperliquid-client/internal/schema"
)

var (
	ErrInvalidTransition = errors.New("invalid connection state transition")
	ErrStaleSession      = errors.New("event from a stale session")
)

// ConnState tracks the lifecycle of a feed connection.
type ConnState uint8

const (
	ConnStateDisconnected ConnState = iota
	ConnStateConnecting
	ConnStateConnected
	ConnStateSubscribing
	ConnStateReceiving
)

func (s ConnState) String() string {
	switch s {
	case ConnStateDisconnected:
		return "disconnected"
	case ConnStateConnecting:
		return "connecting"
	case ConnStateConnected:
		return "connected"
	case ConnStateSubscribing:
		return "subscribing"
	case ConnStateReceiving:
		return "receiving"
	default:
		return "unknown"
	}
}

// Conn holds the pool's view of one feed connection. Connections are created
// during partitioning and never removed, only marked disconnected. A Conn is
// owned by the orchestrator loop and is not safe for concurrent use.
//
// Every dial mints a fresh session id; events tagged with an older session
// are rejected with ErrStaleSession so a late close from a torn-down pump
// cannot disturb the current attempt.
type Conn struct {
	id       int
	accounts []schema.Account

	state     ConnState
	session   uuid.UUID
	attempts  int
	exhausted bool
	lastSeen  time.Time
}

// NewConn creates a connection in the disconnected state.
func NewConn(id int, accounts []schema.Account) *Conn {
	return &Conn{id: id, accounts: accounts}
}

func (c *Conn) ID() int                     { return c.id }
func (c *Conn) Accounts() []schema.Account  { return c.accounts }
func (c *Conn) State() ConnState            { return c.state }
func (c *Conn) Session() uuid.UUID          { return c.session }
func (c *Conn) Attempts() int               { return c.attempts }
func (c *Conn) Exhausted() bool             { return c.exhausted }
func (c *Conn) LastSeen() time.Time         { return c.lastSeen }
func (c *Conn) Owns(account string) bool {
	key := schema.NewAccount(account).Key()
	for _, a := range c.accounts {
		if a.Key() == key {
			return true
		}
	}
	return false
}

// Active reports whether the connection currently holds a transport.
func (c *Conn) Active() bool {
	switch c.state {
	case ConnStateConnected, ConnStateSubscribing, ConnStateReceiving:
		return true
	default:
		return false
	}
}

// SilentFor reports how long the connection has gone without an inbound
// frame. Zero when nothing was ever received on the current session.
func (c *Conn) SilentFor(now time.Time) time.Duration {
	if c.lastSeen.IsZero() {
		return 0
	}
	return now.Sub(c.lastSeen)
}

// ApplyDialing moves disconnected → connecting and mints the session id that
// tags every event of the new attempt.
func (c *Conn) ApplyDialing() (uuid.UUID, error) {
	if c.state != ConnStateDisconnected {
		return uuid.Nil, ErrInvalidTransition
	}
	c.state = ConnStateConnecting
	c.session = uuid.New()
	c.lastSeen = time.Time{}
	return c.session, nil
}

// ApplyOpened moves connecting → connected and resets the reconnect budget.
func (c *Conn) ApplyOpened(session uuid.UUID, at time.Time) error {
	if session != c.session {
		return ErrStaleSession
	}
	if c.state != ConnStateConnecting {
		return ErrInvalidTransition
	}
	c.state = ConnStateConnected
	c.attempts = 0
	c.exhausted = false
	c.lastSeen = at
	return nil
}

// ApplySubscribing marks subscription requests as issued.
func (c *Conn) ApplySubscribing(session uuid.UUID) error {
	if session != c.session {
		return ErrStaleSession
	}
	if c.state != ConnStateConnected {
		return ErrInvalidTransition
	}
	c.state = ConnStateSubscribing
	return nil
}

// ApplyMessage refreshes the heartbeat and, on the first frame after
// subscribing, moves the connection into receiving.
func (c *Conn) ApplyMessage(session uuid.UUID, at time.Time) error {
	if session != c.session {
		return ErrStaleSession
	}
	switch c.state {
	case ConnStateConnected, ConnStateSubscribing:
		c.state = ConnStateReceiving
	case ConnStateReceiving:
	default:
		return ErrInvalidTransition
	}
	c.lastSeen = at
	return nil
}

// ApplyClosed moves any live state back to disconnected.
func (c *Conn) ApplyClosed(session uuid.UUID) error {
	if session != c.session {
		return ErrStaleSession
	}
	if c.state == ConnStateDisconnected {
		return ErrInvalidTransition
	}
	c.state = ConnStateDisconnected
	c.session = uuid.Nil
	return nil
}

// ForceDisconnect tears the connection down regardless of state and
// invalidates the session so in-flight events from the old pump are dropped.
func (c *Conn) ForceDisconnect() {
	c.state = ConnStateDisconnected
	c.session = uuid.Nil
}

// RecordAttempt counts one reconnect attempt and returns the new total.
func (c *Conn) RecordAttempt() int {
	c.attempts++
	return c.attempts
}

// MarkExhausted flags the connection as out of reconnect budget. It stays
// disconnected until a health check cycle re-evaluates it.
func (c *Conn) MarkExhausted() {
	c.exhausted = true
}

// ResetBudget clears the attempt counter and the exhausted flag.
func (c *Conn) ResetBudget() {
	c.attempts = 0
	c.exhausted = false
}
