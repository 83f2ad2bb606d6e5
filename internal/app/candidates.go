package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/pkg/logger"
)

const maxNotesLength = 4000

// ExportColumns is the header row written by Export.
func ExportColumns() []string {
	return []string{"Name", "Email", "Position", "Skills", "Experience", "Score", "Status", "Notes"}
}

// Score extracts and scores one record against the named catalog position
// without storing anything.
func (s *Service) Score(ctx context.Context, rec model.Record, positionTitle string) (model.Candidate, error) {
	position, err := s.store.GetPositionByTitle(ctx, positionTitle)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Candidate{}, fmt.Errorf("score: %w: %s", ErrPositionNotFound, positionTitle)
		}
		return model.Candidate{}, fmt.Errorf("score: lookup position: %w", err)
	}

	validator, err := s.recordValidator()
	if err != nil {
		return model.Candidate{}, fmt.Errorf("score: %w", err)
	}
	if err := validator.Validate(rec); err != nil {
		return model.Candidate{}, fmt.Errorf("score: %w: %s", ErrInvalidInput, validationReason(err))
	}

	c, err := s.processor.Evaluate(ctx, rec, position)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("score: %w", err)
	}
	return c, nil
}

func (s *Service) normalizeFilter(f repository.CandidateFilter) (repository.CandidateFilter, error) {
	if f.Status != "" {
		st, err := model.ParseStatus(string(f.Status))
		if err != nil {
			return f, err
		}
		f.Status = st
	}
	f.Position = strings.TrimSpace(f.Position)
	if f.Limit < 0 {
		return f, fmt.Errorf("%w: limit must not be negative", ErrInvalidInput)
	}
	return f, nil
}

// Candidates lists candidates by score descending. A zero or oversized limit
// is capped at the configured maximum.
func (s *Service) Candidates(ctx context.Context, f repository.CandidateFilter) ([]model.Candidate, error) {
	f, err := s.normalizeFilter(f)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if f.Limit == 0 || f.Limit > s.maxListLimit {
		f.Limit = s.maxListLimit
	}

	out, err := s.store.ListCandidates(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	return out, nil
}

// Candidate returns one candidate with its rank across all candidates.
func (s *Service) Candidate(ctx context.Context, id int64) (model.Candidate, error) {
	c, err := s.store.GetCandidate(ctx, id)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("get candidate %d: %w", id, err)
	}
	c.Rank, err = s.store.RankCandidate(ctx, id)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("rank candidate %d: %w", id, err)
	}
	return c, nil
}

// UpdateStatus overrides a candidate's status and records a status_change
// notification.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (model.Candidate, error) {
	st, err := model.ParseStatus(status)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("update status %d: %w: %q", id, err, status)
	}

	c, err := s.store.UpdateCandidateStatus(ctx, id, st)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("update status %d: %w", id, err)
	}

	s.notify(ctx, model.NotificationStatusChange,
		fmt.Sprintf("Candidate %s has been marked as %s", c.Name, c.Status))
	s.logger.Info(ctx, "candidate status changed",
		logger.Int64("candidate_id", id),
		logger.String("status", string(c.Status)),
	)
	return c, nil
}

// UpdateNotes replaces a candidate's notes.
func (s *Service) UpdateNotes(ctx context.Context, id int64, notes string) (model.Candidate, error) {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return model.Candidate{}, fmt.Errorf("update notes %d: %w: notes exceed %d characters", id, ErrInvalidInput, maxNotesLength)
	}

	c, err := s.store.UpdateCandidateNotes(ctx, id, notes)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("update notes %d: %w", id, err)
	}
	return c, nil
}

// Export writes matching candidates as CSV, best score first, and returns the
// number of data rows. With no matches only the header is written.
func (s *Service) Export(ctx context.Context, w io.Writer, f repository.CandidateFilter) (int, error) {
	f, err := s.normalizeFilter(f)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	f.Limit = 0

	candidates, err := s.store.ListCandidates(ctx, f)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportColumns()); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	for _, c := range candidates {
		row := []string{
			c.Name,
			c.Email,
			c.Position,
			strings.Join(c.Skills.Names(), ", "),
			c.Experience.String(),
			strconv.Itoa(c.Score),
			string(c.Status),
			c.Notes,
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("export: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(candidates), nil
}
