package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yanun0323/errors"

	"github.com/gareth0712/hyperliquid-client/pkg/exception"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 10 * time.Second
	closeWriteTimeout       = time.Second
)

// Client is a thin duplex connection to a feed endpoint. Reads must come from
// a single goroutine; writes are serialized internally.
type Client struct {
	conn *websocket.Conn

	mu sync.Mutex
}

// Dial opens a connection. The context bounds the handshake.
func Dial(ctx context.Context, url string) (*Client, error) {
	dialer := websocket.Dialer{HandshakeTimeout: defaultHandshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(exception.ErrTransport, "dial %s: %v (status %d)", url, err, resp.StatusCode)
		}
		return nil, errors.Wrapf(exception.ErrTransport, "dial %s: %v", url, err)
	}
	return &Client{conn: conn}, nil
}

// WriteJSON sends one JSON message. Writes carry a deadline so a stalled
// peer cannot block the caller indefinitely.
func (c *Client) WriteJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(v); err != nil {
		return errors.Wrapf(exception.ErrTransport, "write: %v", err)
	}
	return nil
}

// ReadMessage blocks for the next frame. A close, clean or not, surfaces as
// an error wrapping exception.ErrTransportClosed.
func (c *Client) ReadMessage() ([]byte, error) {
	_, payload, err := c.conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return nil, errors.Wrap(exception.ErrTransportClosed, "clean close")
		}
		return nil, errors.Wrapf(exception.ErrTransportClosed, "read: %v", err)
	}
	return payload, nil
}

// Close sends a best-effort close frame and tears the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	deadline := time.Now().Add(closeWriteTimeout)
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.mu.Unlock()

	if err := c.conn.Close(); err != nil {
		return errors.Wrapf(exception.ErrTransport, "close: %v", err)
	}
	return nil
}
