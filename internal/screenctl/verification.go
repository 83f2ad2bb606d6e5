package screenctl

import (
	"fmt"

	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/scoring"
)

// Report summarizes a consistency check of a ranked candidate list.
type Report struct {
	Checked    int
	Overridden int      // Candidates whose status differs from their score band
	Issues     []string // Ordering or range problems
	ByStatus   map[model.Status]int
}

// Err returns ErrVerification when the report has issues.
func (r Report) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d issue(s), first: %s", ErrVerification, len(r.Issues), r.Issues[0])
}

// Verify checks that candidates are ordered by score descending and that
// scores are within range. A status that disagrees with the score band is
// counted as a manual override rather than an issue.
func Verify(candidates []model.Candidate) Report {
	r := Report{Checked: len(candidates), ByStatus: make(map[model.Status]int)}
	for i, c := range candidates {
		r.ByStatus[c.Status]++
		if c.Score < 0 || c.Score > 100 {
			r.Issues = append(r.Issues, fmt.Sprintf("candidate %d has score %d outside 0..100", c.ID, c.Score))
		}
		if i > 0 && c.Score > candidates[i-1].Score {
			r.Issues = append(r.Issues, fmt.Sprintf("candidate %d (score %d) ranked below candidate %d (score %d)",
				c.ID, c.Score, candidates[i-1].ID, candidates[i-1].Score))
		}
		if !c.Status.Valid() {
			r.Issues = append(r.Issues, fmt.Sprintf("candidate %d has unknown status %q", c.ID, c.Status))
			continue
		}
		if c.Status != scoring.StatusFor(c.Score) {
			r.Overridden++
		}
	}
	return r
}
