package history

import "errors"

var (
	ErrManagerNotFound = errors.New("no history manager for entity")
	ErrDisposed        = errors.New("history manager disposed")
	ErrPersist         = errors.New("failed to persist history")
	ErrAtRoot          = errors.New("already at the root")
	ErrAtLatest        = errors.New("already at the latest node")
	ErrSuperseded      = errors.New("graph replaced during the operation")
)
