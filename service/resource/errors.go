package resource

import "errors"

var (
	ErrNotReady    = errors.New("resource not ready")
	ErrScopeClosed = errors.New("resource scope closed")
)
