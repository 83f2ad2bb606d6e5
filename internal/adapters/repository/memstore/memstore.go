// Package memstore is an in-memory repository.Store.
//
// Candidates are indexed in a treap ordered by (score desc, id asc) so ranked
// listings and per-candidate rank are O(log n) to locate. Positions, uploads
// and notifications are small and kept in plain maps and slices.
package memstore

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/pkg/metrics"
)

const backend = "memory"

var _ repository.Store = (*Store)(nil)

// Store keeps all state in process memory. It is safe for concurrent use.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	root       *node
	candidates map[int64]model.Candidate
	nextCandID int64

	positions   map[int64]model.Position
	titles      map[string]int64
	nextPosID   int64
	uploads     []model.Upload
	nextUpID    int64
	notes       []model.Notification
	nextNotifID int64
}

// New constructs an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		now:        time.Now,
		candidates: make(map[int64]model.Candidate),
		positions:  make(map[int64]model.Position),
		titles:     make(map[string]int64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time) {
	metrics.RecordStoreLatency(backend, op, float64(time.Since(start).Microseconds())/1000)
}

func cloneCandidate(c model.Candidate) model.Candidate {
	c.Skills = maps.Clone(c.Skills)
	c.Experience = slices.Clone(c.Experience)
	return c
}

func clonePosition(p model.Position) model.Position {
	p.RequiredSkills = slices.Clone(p.RequiredSkills)
	return p
}

// CreateCandidate implements repository.CandidateStore.
func (s *Store) CreateCandidate(_ context.Context, c model.Candidate) (model.Candidate, error) {
	defer observe("create_candidate", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCandID++
	c = cloneCandidate(c)
	c.ID = s.nextCandID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now()
	}
	s.candidates[c.ID] = c
	s.root = insert(s.root, c.ID, c.Score)
	return cloneCandidate(c), nil
}

// GetCandidate implements repository.CandidateStore.
func (s *Store) GetCandidate(_ context.Context, id int64) (model.Candidate, error) {
	defer observe("get_candidate", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, repository.ErrNotFound
	}
	return cloneCandidate(c), nil
}

func matches(c model.Candidate, f repository.CandidateFilter) bool {
	if f.Position != "" && model.TitleKey(c.Position) != model.TitleKey(f.Position) {
		return false
	}
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	return true
}

// ListCandidates implements repository.CandidateStore.
func (s *Store) ListCandidates(_ context.Context, f repository.CandidateFilter) ([]model.Candidate, error) {
	defer observe("list_candidates", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Candidate, 0)
	walk(s.root, func(id int64) bool {
		c := s.candidates[id]
		if matches(c, f) {
			out = append(out, cloneCandidate(c))
		}
		return f.Limit <= 0 || len(out) < f.Limit
	})
	return out, nil
}

// CountCandidates implements repository.CandidateStore. Limit is ignored.
func (s *Store) CountCandidates(_ context.Context, f repository.CandidateFilter) (int, error) {
	defer observe("count_candidates", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	if f.Position == "" && f.Status == "" {
		return len(s.candidates), nil
	}
	n := 0
	for _, c := range s.candidates {
		if matches(c, f) {
			n++
		}
	}
	return n, nil
}

// RankCandidate implements repository.CandidateStore.
func (s *Store) RankCandidate(_ context.Context, id int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.candidates[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	return rank(s.root, c.ID, c.Score), nil
}

func (s *Store) updateCandidate(id int64, apply func(*model.Candidate)) (model.Candidate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.candidates[id]
	if !ok {
		return model.Candidate{}, repository.ErrNotFound
	}
	// Status and notes never change the score, so the index stays valid.
	apply(&c)
	s.candidates[id] = c
	return cloneCandidate(c), nil
}

// UpdateCandidateStatus implements repository.CandidateStore.
func (s *Store) UpdateCandidateStatus(_ context.Context, id int64, status model.Status) (model.Candidate, error) {
	defer observe("update_candidate_status", time.Now())
	return s.updateCandidate(id, func(c *model.Candidate) { c.Status = status })
}

// UpdateCandidateNotes implements repository.CandidateStore.
func (s *Store) UpdateCandidateNotes(_ context.Context, id int64, notes string) (model.Candidate, error) {
	defer observe("update_candidate_notes", time.Now())
	return s.updateCandidate(id, func(c *model.Candidate) { c.Notes = notes })
}

// CreatePosition implements repository.PositionCatalog.
func (s *Store) CreatePosition(_ context.Context, p model.Position) (model.Position, error) {
	defer observe("create_position", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	key := model.TitleKey(p.Title)
	if _, taken := s.titles[key]; taken {
		return model.Position{}, repository.ErrDuplicate
	}
	s.nextPosID++
	p = clonePosition(p)
	p.ID = s.nextPosID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.positions[p.ID] = p
	s.titles[key] = p.ID
	return clonePosition(p), nil
}

// GetPosition implements repository.PositionCatalog.
func (s *Store) GetPosition(_ context.Context, id int64) (model.Position, error) {
	defer observe("get_position", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.positions[id]
	if !ok {
		return model.Position{}, repository.ErrNotFound
	}
	return clonePosition(p), nil
}

// GetPositionByTitle implements repository.PositionCatalog.
func (s *Store) GetPositionByTitle(_ context.Context, title string) (model.Position, error) {
	defer observe("get_position_by_title", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.titles[model.TitleKey(title)]
	if !ok {
		return model.Position{}, repository.ErrNotFound
	}
	return clonePosition(s.positions[id]), nil
}

// ListPositions implements repository.PositionCatalog.
func (s *Store) ListPositions(_ context.Context, activeOnly bool) ([]model.Position, error) {
	defer observe("list_positions", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Position, 0, len(s.positions))
	for _, p := range s.positions {
		if activeOnly && !p.Active {
			continue
		}
		out = append(out, clonePosition(p))
	}
	slices.SortFunc(out, func(a, b model.Position) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// UpdatePosition implements repository.PositionCatalog. CreatedAt is preserved.
func (s *Store) UpdatePosition(_ context.Context, p model.Position) (model.Position, error) {
	defer observe("update_position", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.positions[p.ID]
	if !ok {
		return model.Position{}, repository.ErrNotFound
	}
	oldKey, newKey := model.TitleKey(old.Title), model.TitleKey(p.Title)
	if owner, taken := s.titles[newKey]; taken && owner != p.ID {
		return model.Position{}, repository.ErrDuplicate
	}
	p = clonePosition(p)
	p.CreatedAt = old.CreatedAt
	delete(s.titles, oldKey)
	s.titles[newKey] = p.ID
	s.positions[p.ID] = p
	return clonePosition(p), nil
}

// CreateUpload implements repository.UploadStore.
func (s *Store) CreateUpload(_ context.Context, u model.Upload) (model.Upload, error) {
	defer observe("create_upload", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextUpID++
	u.ID = s.nextUpID
	if u.ProcessedAt.IsZero() {
		u.ProcessedAt = s.now()
	}
	s.uploads = append(s.uploads, u)
	return u, nil
}

// ListUploads implements repository.UploadStore.
func (s *Store) ListUploads(_ context.Context) ([]model.Upload, error) {
	defer observe("list_uploads", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.uploads)
	slices.Reverse(out)
	if out == nil {
		out = []model.Upload{}
	}
	return out, nil
}

// LastUpload implements repository.UploadStore.
func (s *Store) LastUpload(_ context.Context) (model.Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.uploads) == 0 {
		return model.Upload{}, repository.ErrNotFound
	}
	return s.uploads[len(s.uploads)-1], nil
}

// CreateNotification implements repository.NotificationStore.
func (s *Store) CreateNotification(_ context.Context, n model.Notification) (model.Notification, error) {
	defer observe("create_notification", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextNotifID++
	n.ID = s.nextNotifID
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	s.notes = append(s.notes, n)
	return n, nil
}

// ListNotifications implements repository.NotificationStore.
func (s *Store) ListNotifications(_ context.Context, unreadOnly bool) ([]model.Notification, error) {
	defer observe("list_notifications", time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Notification, 0, len(s.notes))
	for i := len(s.notes) - 1; i >= 0; i-- {
		if unreadOnly && s.notes[i].Read {
			continue
		}
		out = append(out, s.notes[i])
	}
	return out, nil
}

// MarkNotificationRead implements repository.NotificationStore.
func (s *Store) MarkNotificationRead(_ context.Context, id int64) error {
	defer observe("mark_notification_read", time.Now())

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if s.notes[i].ID == id {
			s.notes[i].Read = true
			return nil
		}
	}
	return repository.ErrNotFound
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// Close is a no-op.
func (s *Store) Close() error { return nil }
