package api

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// statusRequest is the body of POST /api/candidates/{id}/status. The status is
// lowercased before validation.
type statusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shortlisted review rejected"`
}

// notesRequest is the body of POST /api/candidates/{id}/notes.
type notesRequest struct {
	Notes string `json:"notes" validate:"max=4000"`
}

// positionRequest is the body of POST /api/positions and PUT /api/positions/{id}.
type positionRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Department     string   `json:"department" validate:"max=100"`
	RequiredSkills []string `json:"requiredSkills" validate:"max=50,dive,max=100"`
	Active         *bool    `json:"active"`
}

// scoreRequest is the body of POST /api/score.
type scoreRequest struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Skills     string `json:"skills" validate:"required"`
	Experience string `json:"experience"`
	Position   string `json:"position" validate:"required"`
}

type markReadResponse struct {
	ID   int64 `json:"id"`
	Read bool  `json:"read"`
}

type healthResponse struct {
	Status string `json:"status"`
}
