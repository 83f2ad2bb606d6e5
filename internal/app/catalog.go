package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	repository "github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/internal/domain/types"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

const maxTitleLength = 200

// normalizePosition trims the editable fields and drops blank or repeated
// skills, keeping the first spelling of each.
func normalizePosition(p model.Position) (model.Position, error) {
	p.Title = strings.TrimSpace(p.Title)
	p.Department = strings.TrimSpace(p.Department)
	if p.Title == "" {
		return p, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(p.Title) > maxTitleLength {
		return p, fmt.Errorf("%w: title exceeds %d characters", ErrInvalidInput, maxTitleLength)
	}

	skills := make(model.RequiredSkills, 0, len(p.RequiredSkills))
	seen := make(map[string]struct{}, len(p.RequiredSkills))
	for _, sk := range p.RequiredSkills {
		sk = strings.TrimSpace(sk)
		key := strings.ToLower(sk)
		if sk == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		skills = append(skills, sk)
	}
	p.RequiredSkills = skills
	return p, nil
}

// Positions lists the catalog, optionally only active positions.
func (s *Service) Positions(ctx context.Context, activeOnly bool) ([]model.Position, error) {
	ps, err := s.store.ListPositions(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	if activeOnly {
		metrics.UpdateActivePositions(len(ps))
	}
	return ps, nil
}

// Position returns one catalog entry.
func (s *Service) Position(ctx context.Context, id int64) (model.Position, error) {
	p, err := s.store.GetPosition(ctx, id)
	if err != nil {
		return model.Position{}, fmt.Errorf("get position %d: %w", id, err)
	}
	return p, nil
}

// CreatePosition adds a catalog entry. Titles are unique case-insensitively.
func (s *Service) CreatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	p, err := normalizePosition(p)
	if err != nil {
		return model.Position{}, fmt.Errorf("create position: %w", err)
	}
	p.ID = 0

	created, err := s.store.CreatePosition(ctx, p)
	if err != nil {
		return model.Position{}, fmt.Errorf("create position %q: %w", p.Title, err)
	}
	s.logger.Info(ctx, "position created",
		logger.Int64("position_id", created.ID),
		logger.String("title", created.Title),
	)
	s.RefreshGauges(ctx)
	return created, nil
}

// UpdatePosition replaces the editable fields of an existing position.
func (s *Service) UpdatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	if p.ID <= 0 {
		return model.Position{}, fmt.Errorf("update position: %w: id is required", ErrInvalidInput)
	}
	p, err := normalizePosition(p)
	if err != nil {
		return model.Position{}, fmt.Errorf("update position %d: %w", p.ID, err)
	}

	updated, err := s.store.UpdatePosition(ctx, p)
	if err != nil {
		return model.Position{}, fmt.Errorf("update position %d: %w", p.ID, err)
	}
	s.RefreshGauges(ctx)
	return updated, nil
}

// Uploads lists processed uploads, newest first.
func (s *Service) Uploads(ctx context.Context) ([]model.Upload, error) {
	out, err := s.store.ListUploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	return out, nil
}

// Notifications lists notifications, newest first.
func (s *Service) Notifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error) {
	out, err := s.store.ListNotifications(ctx, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead flags one notification as read.
func (s *Service) MarkNotificationRead(ctx context.Context, id int64) error {
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %d: %w", id, err)
	}
	return nil
}

// Stats aggregates the dashboard counters concurrently.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	var (
		st   types.Stats
		last *time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountCandidates(gctx, repository.CandidateFilter{})
		st.TotalCVs = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountCandidates(gctx, repository.CandidateFilter{Status: model.StatusShortlisted})
		st.ShortlistedCandidates = n
		return err
	})
	g.Go(func() error {
		ps, err := s.store.ListPositions(gctx, true)
		st.ActivePositions = len(ps)
		return err
	})
	g.Go(func() error {
		u, err := s.store.LastUpload(gctx)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		at := u.ProcessedAt
		last = &at
		return nil
	})
	if err := g.Wait(); err != nil {
		return types.Stats{}, fmt.Errorf("stats: %w", err)
	}

	st.LastUpload = last
	st.TimeSaved = types.TimeSaved(st.TotalCVs, s.minutesPerCV)

	metrics.UpdateTotalCandidates(st.TotalCVs)
	metrics.UpdateActivePositions(st.ActivePositions)
	return st, nil
}
