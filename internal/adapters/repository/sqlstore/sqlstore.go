// Package sqlstore is a PostgreSQL repository.Store on database/sql.
//
// Two drivers are supported: "postgres" (lib/pq) and "pgx" (pgx stdlib).
// Structured candidate and position fields are stored as JSON text columns
// through the model's Valuer and Scanner implementations.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/lib/pq"

	"github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
	"github.com/okian/smarthire/pkg/logger"
	"github.com/okian/smarthire/pkg/metrics"
)

// Supported driver names.
const (
	DriverPQ  = "postgres"
	DriverPGX = "pgx"
)

const uniqueViolation = "23505"

//go:embed schema.sql
var schema string

// ErrUnsupportedDriver is returned by Open for unknown driver names.
var ErrUnsupportedDriver = errors.New("unsupported sql driver")

var _ repository.Store = (*Store)(nil)

// Config holds connection settings.
type Config struct {
	Driver          string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store implements repository.Store over a *sql.DB.
type Store struct {
	db     *sql.DB
	driver string
	log    logger.Logger
}

// Option applies a configuration option to the Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDriverName labels store metrics with the driver in use.
func WithDriverName(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.driver = name
		}
	}
}

// New wraps an open database handle.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db, driver: DriverPQ, log: logger.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open connects with the configured driver and verifies the connection.
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.Driver != DriverPQ && cfg.Driver != DriverPGX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}
	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return New(db, append([]Option{WithDriverName(cfg.Driver)}, opts...)...), nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	s.log.Info(ctx, "schema migrated", logger.String("driver", s.driver))
	return nil
}

// SeedPositions inserts positions when the catalog is empty and reports how
// many were inserted.
func (s *Store) SeedPositions(ctx context.Context, positions []model.Position) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM positions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count positions: %w", err)
	}
	if n > 0 {
		return 0, nil
	}
	for _, p := range positions {
		if _, err := s.CreatePosition(ctx, p); err != nil {
			return 0, fmt.Errorf("seed position %q: %w", p.Title, err)
		}
	}
	s.log.Info(ctx, "positions seeded", logger.Int("count", len(positions)))
	return len(positions), nil
}

func (s *Store) observe(op string, start time.Time) {
	metrics.RecordStoreLatency(s.driver, op, float64(time.Since(start).Microseconds())/1000)
}

// isUniqueViolation recognises unique-constraint errors from either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	return false
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	return err
}

const candidateColumns = `id, name, email, position, skills, experience, score, status, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanCandidate(row scanner) (model.Candidate, error) {
	var c model.Candidate
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Position, &c.Skills, &c.Experience,
		&c.Score, &c.Status, &c.Notes, &c.CreatedAt)
	return c, err
}

// CreateCandidate implements repository.CandidateStore.
func (s *Store) CreateCandidate(ctx context.Context, c model.Candidate) (model.Candidate, error) {
	defer s.observe("create_candidate", time.Now())

	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO candidates (name, email, position, skills, experience, score, status, notes, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		c.Name, c.Email, c.Position, c.Skills, c.Experience, c.Score, string(c.Status), c.Notes, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return model.Candidate{}, fmt.Errorf("insert candidate: %w", err)
	}
	return c, nil
}

// GetCandidate implements repository.CandidateStore.
func (s *Store) GetCandidate(ctx context.Context, id int64) (model.Candidate, error) {
	defer s.observe("get_candidate", time.Now())

	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`SELECT `+candidateColumns+` FROM candidates WHERE id = $1`, id))
	if err != nil {
		return model.Candidate{}, notFound(err)
	}
	return c, nil
}

func candidateWhere(f repository.CandidateFilter) (string, []any) {
	var conds []string
	var args []any
	if f.Position != "" {
		args = append(args, f.Position)
		conds = append(conds, fmt.Sprintf("LOWER(position) = LOWER($%d)", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListCandidates implements repository.CandidateStore.
func (s *Store) ListCandidates(ctx context.Context, f repository.CandidateFilter) ([]model.Candidate, error) {
	defer s.observe("list_candidates", time.Now())

	where, args := candidateWhere(f)
	query := `SELECT ` + candidateColumns + ` FROM candidates` + where + ` ORDER BY score DESC, id ASC`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	defer rows.Close()

	out := make([]model.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CountCandidates implements repository.CandidateStore. Limit is ignored.
func (s *Store) CountCandidates(ctx context.Context, f repository.CandidateFilter) (int, error) {
	defer s.observe("count_candidates", time.Now())

	where, args := candidateWhere(f)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count candidates: %w", err)
	}
	return n, nil
}

// RankCandidate implements repository.CandidateStore.
func (s *Store) RankCandidate(ctx context.Context, id int64) (int, error) {
	defer s.observe("rank_candidate", time.Now())

	var r int
	err := s.db.QueryRowContext(ctx, `SELECT 1 + (
		SELECT COUNT(*) FROM candidates c
		WHERE c.score > t.score OR (c.score = t.score AND c.id < t.id)
	) FROM candidates t WHERE t.id = $1`, id).Scan(&r)
	if err != nil {
		return 0, notFound(err)
	}
	return r, nil
}

// UpdateCandidateStatus implements repository.CandidateStore.
func (s *Store) UpdateCandidateStatus(ctx context.Context, id int64, status model.Status) (model.Candidate, error) {
	defer s.observe("update_candidate_status", time.Now())

	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`UPDATE candidates SET status = $1 WHERE id = $2 RETURNING `+candidateColumns, string(status), id))
	if err != nil {
		return model.Candidate{}, notFound(err)
	}
	return c, nil
}

// UpdateCandidateNotes implements repository.CandidateStore.
func (s *Store) UpdateCandidateNotes(ctx context.Context, id int64, notes string) (model.Candidate, error) {
	defer s.observe("update_candidate_notes", time.Now())

	c, err := scanCandidate(s.db.QueryRowContext(ctx,
		`UPDATE candidates SET notes = $1 WHERE id = $2 RETURNING `+candidateColumns, notes, id))
	if err != nil {
		return model.Candidate{}, notFound(err)
	}
	return c, nil
}

const positionColumns = `id, title, department, required_skills, active, created_at`

func scanPosition(row scanner) (model.Position, error) {
	var p model.Position
	err := row.Scan(&p.ID, &p.Title, &p.Department, &p.RequiredSkills, &p.Active, &p.CreatedAt)
	return p, err
}

// CreatePosition implements repository.PositionCatalog.
func (s *Store) CreatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	defer s.observe("create_position", time.Now())

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO positions (title, department, required_skills, active, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.Title, p.Department, p.RequiredSkills, p.Active, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return model.Position{}, repository.ErrDuplicate
		}
		return model.Position{}, fmt.Errorf("insert position: %w", err)
	}
	return p, nil
}

// GetPosition implements repository.PositionCatalog.
func (s *Store) GetPosition(ctx context.Context, id int64) (model.Position, error) {
	defer s.observe("get_position", time.Now())

	p, err := scanPosition(s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE id = $1`, id))
	if err != nil {
		return model.Position{}, notFound(err)
	}
	return p, nil
}

// GetPositionByTitle implements repository.PositionCatalog.
func (s *Store) GetPositionByTitle(ctx context.Context, title string) (model.Position, error) {
	defer s.observe("get_position_by_title", time.Now())

	p, err := scanPosition(s.db.QueryRowContext(ctx,
		`SELECT `+positionColumns+` FROM positions WHERE LOWER(title) = LOWER($1)`, strings.TrimSpace(title)))
	if err != nil {
		return model.Position{}, notFound(err)
	}
	return p, nil
}

// ListPositions implements repository.PositionCatalog.
func (s *Store) ListPositions(ctx context.Context, activeOnly bool) ([]model.Position, error) {
	defer s.observe("list_positions", time.Now())

	query := `SELECT ` + positionColumns + ` FROM positions`
	if activeOnly {
		query += ` WHERE active = TRUE`
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	defer rows.Close()

	out := make([]model.Position, 0)
	for rows.Next() {
		p, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePosition implements repository.PositionCatalog.
func (s *Store) UpdatePosition(ctx context.Context, p model.Position) (model.Position, error) {
	defer s.observe("update_position", time.Now())

	out, err := scanPosition(s.db.QueryRowContext(ctx,
		`UPDATE positions SET title = $1, department = $2, required_skills = $3, active = $4
		 WHERE id = $5 RETURNING `+positionColumns,
		p.Title, p.Department, p.RequiredSkills, p.Active, p.ID))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Position{}, repository.ErrDuplicate
		}
		return model.Position{}, notFound(err)
	}
	return out, nil
}

const uploadColumns = `id, batch_id, filename, position, processed_at, total_records, successful_records, failed_records`

func scanUpload(row scanner) (model.Upload, error) {
	var u model.Upload
	err := row.Scan(&u.ID, &u.BatchID, &u.Filename, &u.Position, &u.ProcessedAt,
		&u.TotalRecords, &u.SuccessfulRecords, &u.FailedRecords)
	return u, err
}

// CreateUpload implements repository.UploadStore.
func (s *Store) CreateUpload(ctx context.Context, u model.Upload) (model.Upload, error) {
	defer s.observe("create_upload", time.Now())

	if u.ProcessedAt.IsZero() {
		u.ProcessedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO uploads (batch_id, filename, position, processed_at, total_records, successful_records, failed_records)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		u.BatchID, u.Filename, u.Position, u.ProcessedAt, u.TotalRecords, u.SuccessfulRecords, u.FailedRecords,
	).Scan(&u.ID)
	if err != nil {
		return model.Upload{}, fmt.Errorf("insert upload: %w", err)
	}
	return u, nil
}

// ListUploads implements repository.UploadStore.
func (s *Store) ListUploads(ctx context.Context) ([]model.Upload, error) {
	defer s.observe("list_uploads", time.Now())

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads ORDER BY processed_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	out := make([]model.Upload, 0)
	for rows.Next() {
		u, err := scanUpload(rows)
		if err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// LastUpload implements repository.UploadStore.
func (s *Store) LastUpload(ctx context.Context) (model.Upload, error) {
	defer s.observe("last_upload", time.Now())

	u, err := scanUpload(s.db.QueryRowContext(ctx,
		`SELECT `+uploadColumns+` FROM uploads ORDER BY processed_at DESC, id DESC LIMIT 1`))
	if err != nil {
		return model.Upload{}, notFound(err)
	}
	return u, nil
}

// CreateNotification implements repository.NotificationStore.
func (s *Store) CreateNotification(ctx context.Context, n model.Notification) (model.Notification, error) {
	defer s.observe("create_notification", time.Now())

	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO notifications (message, type, read, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		n.Message, string(n.Type), n.Read, n.CreatedAt,
	).Scan(&n.ID)
	if err != nil {
		return model.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return n, nil
}

// ListNotifications implements repository.NotificationStore.
func (s *Store) ListNotifications(ctx context.Context, unreadOnly bool) ([]model.Notification, error) {
	defer s.observe("list_notifications", time.Now())

	query := `SELECT id, message, type, read, created_at FROM notifications`
	if unreadOnly {
		query += ` WHERE read = FALSE`
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Message, &n.Type, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead implements repository.NotificationStore.
func (s *Store) MarkNotificationRead(ctx context.Context, id int64) error {
	defer s.observe("mark_notification_read", time.Now())

	res, err := s.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Ping implements repository.Store.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close implements repository.Store.
func (s *Store) Close() error {
	return s.db.Close()
}
