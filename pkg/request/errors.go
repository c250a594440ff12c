package request

import "errors"

// ErrInternalServer is the error returned to a client when a handler fails
// unexpectedly.
var ErrInternalServer = errors.New("internal server error")
