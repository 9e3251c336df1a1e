package provenance

import "errors"

// Sentinel errors for registry and graph operations
var (
	ErrDuplicateKind   = errors.New("action kind already registered")
	ErrReservedKind    = errors.New("action kind is reserved")
	ErrUnknownKind     = errors.New("unknown action kind")
	ErrNodeNotFound    = errors.New("node not found")
	ErrMalformedExport = errors.New("malformed graph export")
	ErrReducer         = errors.New("reducer failed")
)
