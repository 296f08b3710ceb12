package cls

import "errors"

var (
	// ErrInvalidName is returned for namespace names that are neither a
	// non-empty string nor a symbol
	ErrInvalidName = errors.New("invalid namespace name")
	// ErrNamespaceExists is returned when creating a namespace twice
	ErrNamespaceExists = errors.New("namespace already exists")
	// ErrNoActiveContext is returned when a frame is required but none is active
	ErrNoActiveContext = errors.New("no active context")
)
