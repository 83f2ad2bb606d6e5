package model

import (
	"strings"
	"time"
)

// RequiredSkills is the ordered list of skills a position asks for.
type RequiredSkills []string

// Position is a job opening candidates are scored against.
type Position struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Department     string         `json:"department"`
	RequiredSkills RequiredSkills `json:"requiredSkills"`
	Active         bool           `json:"active"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// TitleKey is the case-insensitive lookup key for a position title.
func TitleKey(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// DefaultPositions is the catalog seeded into an empty store.
func DefaultPositions() []Position {
	return []Position{
		{Title: "Frontend Developer", Department: "Engineering", RequiredSkills: RequiredSkills{"JavaScript", "React", "HTML", "CSS"}, Active: true},
		{Title: "Backend Developer", Department: "Engineering", RequiredSkills: RequiredSkills{"Python", "Flask", "SQL", "API"}, Active: true},
		{Title: "Data Scientist", Department: "Data", RequiredSkills: RequiredSkills{"Python", "SQL", "Machine Learning", "Statistics"}, Active: true},
	}
}
