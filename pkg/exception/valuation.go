package exception

import "github.com/yanun0323/errors"

// ErrValuation marks an account update that cannot be valued. The update is
// dropped from valuation but may still be persisted raw.
var ErrValuation = errors.New("valuation: update cannot be valued")
