package screenctl

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/okian/smarthire/internal/ingest"
)

// Pools the generator samples from.
var (
	firstNames = []string{"Ada", "Grace", "Alan", "Linus", "Barbara", "Ken", "Margaret", "Dennis", "Frances", "Edsger"}
	lastNames  = []string{"Lovelace", "Hopper", "Turing", "Torvalds", "Liskov", "Thompson", "Hamilton", "Ritchie", "Allen", "Dijkstra"}
	skillPool  = []string{
		"Python", "SQL", "Flask", "API", "JavaScript", "React", "HTML", "CSS",
		"Machine Learning", "Statistics", "Go", "Docker", "Kubernetes", "Rust",
	}
	companies = []string{"Acme", "Initech", "Globex", "Umbrella", "Hooli", "Stark"}
	roles     = []string{"Engineer", "Developer", "Analyst", "Scientist", "Lead"}
)

const (
	maxSkills      = 6
	maxExperience  = 3
	maxYearsPerJob = 8
)

// GenerateOptions controls the synthetic file.
type GenerateOptions struct {
	Rows          int     // Data rows to write
	Position      string  // Value of the position column
	Seed          uint64  // Seed for reproducible output
	DuplicateRate float64 // Share of rows that repeat an earlier email
	InvalidRate   float64 // Share of rows with a broken email
}

// GenerateCSV writes a candidate CSV with a header row and reports how many
// data rows were written.
func GenerateCSV(w io.Writer, opts GenerateOptions) (int, error) {
	if opts.Rows < 0 {
		return 0, fmt.Errorf("rows must not be negative: %d", opts.Rows)
	}
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data

	cw := csv.NewWriter(w)
	header := []string{
		ingest.ColumnName, ingest.ColumnEmail, ingest.ColumnSkills,
		ingest.ColumnExperience, ingest.ColumnPosition,
	}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write header: %w", err)
	}

	emails := make([]string, 0, opts.Rows)
	for i := range opts.Rows {
		first := firstNames[rng.IntN(len(firstNames))]
		last := lastNames[rng.IntN(len(lastNames))]
		email := strings.ToLower(first+"."+last) + "." + strconv.Itoa(i) + "@example.com"

		switch r := rng.Float64(); {
		case len(emails) > 0 && r < opts.DuplicateRate:
			email = emails[rng.IntN(len(emails))]
		case r >= opts.DuplicateRate && r < opts.DuplicateRate+opts.InvalidRate:
			email = strings.ReplaceAll(email, "@", " at ")
		}
		emails = append(emails, email)

		row := []string{first + " " + last, email, randomSkills(rng), randomExperience(rng), opts.Position}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return opts.Rows, fmt.Errorf("flush csv: %w", err)
	}
	return opts.Rows, nil
}

func randomSkills(rng *rand.Rand) string {
	n := 1 + rng.IntN(maxSkills)
	picked := make([]string, 0, n)
	for _, i := range rng.Perm(len(skillPool))[:n] {
		picked = append(picked, skillPool[i])
	}
	return strings.Join(picked, ", ")
}

func randomExperience(rng *rand.Rand) string {
	n := rng.IntN(maxExperience + 1)
	entries := make([]string, 0, n)
	for range n {
		years := 1 + rng.IntN(maxYearsPerJob)
		entries = append(entries, fmt.Sprintf("%s|%s|%d years",
			companies[rng.IntN(len(companies))], roles[rng.IntN(len(roles))], years))
	}
	return strings.Join(entries, "; ")
}
