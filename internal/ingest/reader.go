// Package ingest reads candidate rows from CSV uploads and validates them.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/smarthire/internal/domain/model"
)

// Column names, compared case-insensitively after trimming.
const (
	ColumnName       = "name"
	ColumnEmail      = "email"
	ColumnSkills     = "skills"
	ColumnExperience = "experience"
	ColumnPosition   = "position"
)

// Sentinel kinds for file-level failures.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrMalformedCSV   = errors.New("malformed csv")
)

// MalformedReason is the failure reason of a data row the CSV parser could
// not split into fields.
const MalformedReason = "malformed row"

// RowError is a data row that could not be parsed. It fails on its own and
// the rows around it are still read.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, MalformedReason, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// RequiredColumns lists the headers every upload must carry.
func RequiredColumns() []string {
	return []string{ColumnName, ColumnEmail, ColumnSkills}
}

const bom = "\ufeff"

// Reader parses an upload into records.
type Reader struct {
	comma rune
}

// ReaderOption applies a configuration option to the Reader.
type ReaderOption func(*Reader)

// WithComma sets the field delimiter.
func WithComma(r rune) ReaderOption {
	return func(rd *Reader) {
		if r != 0 {
			rd.comma = r
		}
	}
}

// NewReader creates a comma-delimited reader.
func NewReader(opts ...ReaderOption) *Reader {
	rd := &Reader{comma: ','}
	for _, opt := range opts {
		opt(rd)
	}
	return rd
}

// Read returns the rows in file order with their 1-based source line, plus
// the rows the parser rejected. A missing or unreadable header fails the
// whole file, and so does a quote left open at the end of input since it
// swallowed every line after it. Anything else row-level is left to the
// caller.
func (rd *Reader) Read(src io.Reader) ([]model.Record, []RowError, error) {
	cr := csv.NewReader(src)
	cr.Comma = rd.comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(RequiredColumns(), ", "))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
	}

	index := make(map[string]int, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, bom)
		}
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns() {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(row []string, col string) string {
		i, ok := index[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	out := make([]model.Record, 0)
	var bad []RowError
	// Set while the last thing read was a quote error; such an error right
	// before EOF is an unterminated quoted field.
	var openQuote *csv.ParseError
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			if openQuote != nil {
				return nil, nil, fmt.Errorf("%w: %w", ErrMalformedCSV, openQuote)
			}
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			bad = append(bad, RowError{Line: perr.StartLine, Err: perr.Err})
			openQuote = nil
			if errors.Is(perr.Err, csv.ErrQuote) {
				openQuote = perr
			}
			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrMalformedCSV, err)
		}
		openQuote = nil
		line, _ := cr.FieldPos(0)
		out = append(out, model.Record{
			Line:       line,
			Name:       field(row, ColumnName),
			Email:      field(row, ColumnEmail),
			Skills:     field(row, ColumnSkills),
			Experience: field(row, ColumnExperience),
			Position:   field(row, ColumnPosition),
		})
	}
	return out, bad, nil
}
