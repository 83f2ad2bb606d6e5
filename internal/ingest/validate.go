package ingest

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/okian/smarthire/internal/domain/model"
)

// recordSchema describes an acceptable candidate row.
const recordSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "email", "skills"],
  "properties": {
    "name":       {"type": "string", "pattern": "\\S"},
    "email":      {"type": "string", "format": "email"},
    "skills":     {"type": "string", "pattern": "[^,\\s]"},
    "experience": {"type": "string"},
    "position":   {"type": "string", "maxLength": 200}
  }
}`

// FieldError is one failed rule.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError lists every rule a record broke.
type ValidationError struct {
	Line   int
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("line %d: %s", e.Line, strings.Join(parts, "; "))
}

// Validator checks records against the row schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the row schema.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns nil or a *ValidationError.
func (v *Validator) Validate(rec model.Record) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(rec))
	if err != nil {
		return fmt.Errorf("validate line %d: %w", rec.Line, err)
	}
	if result.Valid() {
		return nil
	}

	verr := &ValidationError{
		Line:   rec.Line,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		verr.Errors = append(verr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return verr
}
