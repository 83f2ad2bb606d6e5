// Package extract turns free-text CSV fields into structured skills and experience.
//
// Extraction is a naive split. It never fails: malformed pieces are dropped.
package extract

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/okian/smarthire/internal/domain/model"
)

// Synthetic proficiency band: [proficiencyBase, proficiencyBase+proficiencySpan).
const (
	proficiencyBase = 70
	proficiencySpan = 30
)

const (
	skillSeparator      = ","
	experienceSeparator = ";"
	fieldSeparator      = "|"
	experienceFields    = 3
)

// Proficiency returns the synthetic proficiency for a skill name:
// 70 + xxhash64(name) mod 30. The same name always yields the same value.
func Proficiency(name string) int {
	return proficiencyBase + int(xxhash.Sum64String(name)%proficiencySpan)
}

// Skills splits text on commas and assigns each trimmed, non-empty token its
// synthetic proficiency. Empty input yields an empty set.
func Skills(text string) model.SkillSet {
	out := model.SkillSet{}
	for _, token := range strings.Split(text, skillSeparator) {
		name := strings.TrimSpace(token)
		if name == "" {
			continue
		}
		out[name] = Proficiency(name)
	}
	return out
}

// Experience splits text on semicolons, then each entry on "|". Entries with
// fewer than three parts are dropped; parts past the third are ignored.
func Experience(text string) model.Experience {
	out := model.Experience{}
	for _, raw := range strings.Split(text, experienceSeparator) {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		parts := strings.Split(raw, fieldSeparator)
		if len(parts) < experienceFields {
			continue
		}
		out = append(out, model.ExperienceEntry{
			Company: strings.TrimSpace(parts[0]),
			Role:    strings.TrimSpace(parts[1]),
			Years:   strings.TrimSpace(parts[2]),
		})
	}
	return out
}
