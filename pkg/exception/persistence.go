package exception

import "github.com/yanun0323/errors"

// ErrPersistence marks a failed durable write. In-memory state is kept so a
// later write carries the missed increment.
var ErrPersistence = errors.New("persistence: write failed")
