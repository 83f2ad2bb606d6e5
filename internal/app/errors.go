package service

import "errors"

// Sentinel errors returned by Service operations. Store errors
// (repository.ErrNotFound, repository.ErrDuplicate) and model.ErrInvalidStatus
// pass through wrapped.
var (
	ErrUnsupportedFile  = errors.New("only csv files are supported")
	ErrPositionNotFound = errors.New("position not found")
	ErrInvalidInput     = errors.New("invalid input")
)
