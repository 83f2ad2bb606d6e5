// Package scoring computes candidate-to-position match scores and derives a status.
//
// Every function here is pure: identical inputs always produce identical output.
package scoring

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/okian/smarthire/internal/domain/model"
)

// Neutral skill sub-scores used when a position lists no required skills.
const (
	NeutralCSV       = 85
	NeutralRelevance = 50
)

// RelevanceBonus is added when the declared position matches the scored one.
const RelevanceBonus = 10

const (
	minScore = 0
	maxScore = 100

	noMatchSkillScore = 30
	coverageWeight    = 0.6
	proficiencyWeight = 0.4

	skillWeight      = 0.7
	experienceWeight = 0.3

	emptyExperienceYears = 70
	emptyExperienceCount = 40
	pointsPerEntry       = 15
)

// Status thresholds, inclusive lower bounds.
const (
	shortlistThreshold = 90
	reviewThreshold    = 75
	pendingThreshold   = 60
)

// ErrPositionRequired is returned when scoring is attempted without a position.
var ErrPositionRequired = errors.New("position is required for scoring")

// Policy selects how experience is turned into a sub-score.
type Policy string

// Experience policies.
const (
	// PolicyYears sums parsed years and maps them through three tiers.
	PolicyYears Policy = "years"
	// PolicyCount awards a fixed amount per entry.
	PolicyCount Policy = "count"
)

// ParsePolicy validates a policy name; empty means PolicyYears.
func ParsePolicy(v string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(v))) {
	case "", PolicyYears:
		return PolicyYears, nil
	case PolicyCount:
		return PolicyCount, nil
	}
	return "", errors.New("unknown experience policy: " + v)
}

// Input carries the extracted candidate fields the scorer needs.
type Input struct {
	Skills           model.SkillSet
	Experience       model.Experience
	DeclaredPosition string
}

// Result is the outcome of scoring one candidate.
type Result struct {
	SkillScore      int
	ExperienceScore int
	Score           int
	Status          model.Status
}

// Scorer computes a match result for a candidate against a position.
type Scorer interface {
	Score(ctx context.Context, in Input, position *model.Position) (Result, error)
}

// Option applies a configuration option to the MatchScorer.
type Option func(*MatchScorer)

// WithNeutralSkillScore sets the skill sub-score used when nothing is required.
func WithNeutralSkillScore(v int) Option {
	return func(s *MatchScorer) {
		s.neutral = clamp(v)
	}
}

// WithExperiencePolicy selects the experience policy.
func WithExperiencePolicy(p Policy) Option {
	return func(s *MatchScorer) {
		if p == PolicyYears || p == PolicyCount {
			s.policy = p
		}
	}
}

// WithRelevanceBonus enables the declared-position bonus.
func WithRelevanceBonus(enabled bool) Option {
	return func(s *MatchScorer) {
		s.relevanceBonus = enabled
	}
}

// MatchScorer is the default Scorer.
type MatchScorer struct {
	neutral        int
	policy         Policy
	relevanceBonus bool
}

// NewMatchScorer creates a scorer with CSV-path defaults: neutral 85, years policy, no bonus.
func NewMatchScorer(opts ...Option) *MatchScorer {
	s := &MatchScorer{
		neutral: NeutralCSV,
		policy:  PolicyYears,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score implements Scorer.
func (s *MatchScorer) Score(_ context.Context, in Input, position *model.Position) (Result, error) {
	if position == nil {
		return Result{}, ErrPositionRequired
	}

	skill := SkillScore(in.Skills, position.RequiredSkills, s.neutral)
	exp := ExperienceScore(in.Experience, s.policy)
	bonus := s.relevanceBonus &&
		strings.EqualFold(strings.TrimSpace(in.DeclaredPosition), strings.TrimSpace(position.Title))
	score := Combine(skill, exp, bonus)

	return Result{
		SkillScore:      skill,
		ExperienceScore: exp,
		Score:           score,
		Status:          StatusFor(score),
	}, nil
}

// SkillScore rates how well skills cover required. Each requirement is matched
// case-insensitively as a substring of a candidate skill name; candidate names
// are tried in ascending order and the first match wins.
func SkillScore(skills model.SkillSet, required []string, neutral int) int {
	reqs := make([]string, 0, len(required))
	for _, r := range required {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			reqs = append(reqs, r)
		}
	}
	if len(reqs) == 0 {
		return clamp(neutral)
	}

	names := skills.Names()
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	matched, sum := 0, 0
	for _, req := range reqs {
		for i, name := range lowered {
			if strings.Contains(name, req) {
				matched++
				sum += skills[names[i]]
				break
			}
		}
	}
	if matched == 0 {
		return noMatchSkillScore
	}

	coverage := float64(matched) / float64(len(reqs)) * 100
	avg := float64(sum) / float64(matched)
	return clamp(int(math.Round(coverage*coverageWeight + avg*proficiencyWeight)))
}

// ExperienceScore rates experience under the given policy.
func ExperienceScore(entries model.Experience, policy Policy) int {
	if policy == PolicyCount {
		if len(entries) == 0 {
			return emptyExperienceCount
		}
		return min(len(entries)*pointsPerEntry, maxScore)
	}

	if len(entries) == 0 {
		return emptyExperienceYears
	}
	var years float64
	for _, e := range entries {
		years += ParseYears(e.Years)
	}
	return yearsTier(years)
}

func yearsTier(years float64) int {
	// Capped in float space so very large totals cannot overflow int.
	switch {
	case years < 2:
		return int(math.Min(70+math.Floor(years*5), 80))
	case years < 5:
		return int(math.Min(80+math.Floor((years-2)*3), 90))
	default:
		return int(math.Min(90+math.Floor((years-5)*2), maxScore))
	}
}

var yearsWords = strings.NewReplacer("years", "", "year", "") //nolint:gochecknoglobals // immutable

// ParseYears reads "3", "3.5" or "3 years". Anything unparsable, negative or
// non-finite counts as zero.
func ParseYears(v string) float64 {
	v = strings.TrimSpace(yearsWords.Replace(strings.ToLower(v)))
	if v == "" {
		return 0
	}
	y, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(y) || math.IsInf(y, 0) || y < 0 {
		return 0
	}
	return y
}

// Combine weights the sub-scores 0.7/0.3, rounds, optionally adds the
// relevance bonus and clamps to [0,100].
func Combine(skill, experience int, bonus bool) int {
	score := int(math.Round(skillWeight*float64(skill) + experienceWeight*float64(experience)))
	if bonus {
		score += RelevanceBonus
	}
	return clamp(score)
}

// StatusFor maps a score to its status.
func StatusFor(score int) model.Status {
	switch {
	case score >= shortlistThreshold:
		return model.StatusShortlisted
	case score >= reviewThreshold:
		return model.StatusReview
	case score >= pendingThreshold:
		return model.StatusPending
	default:
		return model.StatusRejected
	}
}

func clamp(v int) int {
	return max(minScore, min(maxScore, v))
}
