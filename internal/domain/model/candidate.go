// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"sort"
	"strings"
	"time"
)

// ErrInvalidStatus is returned when a status string is not one of the known values.
var ErrInvalidStatus = errors.New("invalid status")

// Status is the screening label derived from a match score.
type Status string

// Known statuses.
const (
	StatusPending     Status = "pending"
	StatusShortlisted Status = "shortlisted"
	StatusReview      Status = "review"
	StatusRejected    Status = "rejected"
)

// Statuses lists every valid status.
func Statuses() []Status {
	return []Status{StatusPending, StatusShortlisted, StatusReview, StatusRejected}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShortlisted, StatusReview, StatusRejected:
		return true
	}
	return false
}

// ParseStatus normalizes and validates a status string.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// SkillSet maps a skill name to a proficiency in 0..100.
type SkillSet map[string]int

// Names returns the skill names in ascending order.
func (s SkillSet) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExperienceEntry is one "company|role|years" item.
type ExperienceEntry struct {
	Company string `json:"company"`
	Role    string `json:"role"`
	Years   string `json:"years"`
}

// String renders the entry in its source form.
func (e ExperienceEntry) String() string {
	return e.Company + "|" + e.Role + "|" + e.Years
}

// Experience is an ordered list of entries.
type Experience []ExperienceEntry

// String renders entries joined by "; ".
func (e Experience) String() string {
	parts := make([]string, len(e))
	for i, entry := range e {
		parts[i] = entry.String()
	}
	return strings.Join(parts, "; ")
}

// Candidate is a scored applicant.
type Candidate struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	Position   string     `json:"position"`
	Skills     SkillSet   `json:"skills"`
	Experience Experience `json:"experience"`
	Score      int        `json:"score"`
	Status     Status     `json:"status"`
	Notes      string     `json:"notes"`
	CreatedAt  time.Time  `json:"createdAt"`
	// Rank is the 1-based place in the score ordering. Only single-candidate
	// lookups fill it.
	Rank int `json:"rank,omitempty"`
}
