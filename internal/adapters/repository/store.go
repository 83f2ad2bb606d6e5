// Package repository defines the storage contracts shared by every backend.
package repository

import (
	"context"

	"github.com/okian/smarthire/internal/domain/model"
)

// CandidateFilter narrows candidate listings. Zero values match everything;
// Limit <= 0 means no limit.
type CandidateFilter struct {
	Position string
	Status   model.Status
	Limit    int
}

// CandidateStore persists scored candidates.
type CandidateStore interface {
	// CreateCandidate stores c and returns it with its assigned ID.
	CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error)
	// GetCandidate returns ErrNotFound if id is unknown.
	GetCandidate(ctx context.Context, id int64) (model.Candidate, error)
	// ListCandidates orders by score desc, then id asc.
	ListCandidates(ctx context.Context, f CandidateFilter) ([]model.Candidate, error)
	CountCandidates(ctx context.Context, f CandidateFilter) (int, error)
	// RankCandidate returns the 1-based position of id in the full listing
	// order, or ErrNotFound.
	RankCandidate(ctx context.Context, id int64) (int, error)
	UpdateCandidateStatus(ctx context.Context, id int64, status model.Status) (model.Candidate, error)
	UpdateCandidateNotes(ctx context.Context, id int64, notes string) (model.Candidate, error)
}

// PositionCatalog resolves and manages job positions.
type PositionCatalog interface {
	// CreatePosition returns ErrDuplicate when the title is taken (case-insensitive).
	CreatePosition(ctx context.Context, p model.Position) (model.Position, error)
	GetPosition(ctx context.Context, id int64) (model.Position, error)
	GetPositionByTitle(ctx context.Context, title string) (model.Position, error)
	// ListPositions orders by id asc.
	ListPositions(ctx context.Context, activeOnly bool) ([]model.Position, error)
	UpdatePosition(ctx context.Context, p model.Position) (model.Position, error)
}

// UploadStore records processed upload batches.
type UploadStore interface {
	CreateUpload(ctx context.Context, u model.Upload) (model.Upload, error)
	// ListUploads returns the newest first.
	ListUploads(ctx context.Context) ([]model.Upload, error)
	// LastUpload returns ErrNotFound when nothing was uploaded yet.
	LastUpload(ctx context.Context) (model.Upload, error)
}

// NotificationStore records user-facing notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error)
	// ListNotifications returns the newest first.
	ListNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error)
	MarkNotificationRead(ctx context.Context, id int64) error
}

// Store is the full persistence capability a backend provides.
type Store interface {
	CandidateStore
	PositionCatalog
	UploadStore
	NotificationStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
