package exception

import "github.com/yanun0323/errors"

// ErrMessageParse marks a malformed inbound payload. The message is dropped,
// the connection stays up.
var ErrMessageParse = errors.New("message: malformed payload")
