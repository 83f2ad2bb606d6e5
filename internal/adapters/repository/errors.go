package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)
