package api

import (
	"errors"
	"net/http"
	"strings"

	repository "github.com/okian/smarthire/internal/adapters/repository"
	service "github.com/okian/smarthire/internal/app"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/ingest"
)

// Sentinel kinds for API errors.
var (
	ErrServe           = errors.New("http serve failed")
	ErrBadRequest      = errors.New("bad request")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrNoFile          = errors.New("no file uploaded")
)

// opError carries the handler operation, an optional kind and the cause.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	parts := []string{e.op}
	if e.kind != nil {
		parts = append(parts, e.kind.Error())
	}
	if e.err != nil {
		parts = append(parts, e.err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *opError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.kind != nil {
		out = append(out, e.kind)
	}
	if e.err != nil {
		out = append(out, e.err)
	}
	return out
}

// Wrap annotates err with the operation that failed.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// WrapKind annotates err with an operation and a sentinel kind.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// NewKind returns an error that is only a kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// classify maps an error chain to an HTTP status and a stable error code.
func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid_status"
	case errors.Is(err, service.ErrUnsupportedFile):
		return http.StatusBadRequest, "unsupported_file"
	case errors.Is(err, service.ErrPositionNotFound):
		return http.StatusBadRequest, "unknown_position"
	case errors.Is(err, ingest.ErrMissingColumns):
		return http.StatusBadRequest, "missing_columns"
	case errors.Is(err, ingest.ErrMalformedCSV):
		return http.StatusBadRequest, "malformed_csv"
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
