package exception

import "github.com/yanun0323/errors"

// Transport errors
var (
	ErrTransport       = errors.New("transport: failure")
	ErrTransportClosed = errors.New("transport: connection closed")
)
