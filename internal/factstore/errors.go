package factstore

import "errors"

// Sentinel errors for the fact store layer.
var (
	ErrNotFound     = errors.New("fact not found")
	ErrStoreUnknown = errors.New("unknown store")
)
