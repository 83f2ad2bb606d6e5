package sqlstore

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/smarthire/internal/adapters/repository"
	"github.com/okian/smarthire/internal/domain/model"
)

// ==========================
// Test Helper Functions
// ==========================

func setupMockDB(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

var (
	candidateCols = []string{"id", "name", "email", "position", "skills", "experience", "score", "status", "notes", "created_at"}
	positionCols  = []string{"id", "title", "department", "required_skills", "active", "created_at"}
	uploadCols    = []string{"id", "batch_id", "filename", "position", "processed_at", "total_records", "successful_records", "failed_records"}
	stamp         = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
)

// ==========================
// Lifecycle
// ==========================

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "sqlite3"})
	assert.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestMigrate(t *testing.T) {
	s, mock := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS positions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS positions_title_key`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS candidates`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS candidates_rank_idx`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS uploads`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS notifications`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS positions`).WillReturnError(errors.New("permission denied"))

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestSeedPositions(t *testing.T) {
	t.Run("empty catalog is seeded", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM positions`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		for i, p := range model.DefaultPositions() {
			mock.ExpectQuery(`INSERT INTO positions`).
				WithArgs(p.Title, p.Department, sqlmock.AnyArg(), true, sqlmock.AnyArg()).
				WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(i + 1))
		}

		n, err := s.SeedPositions(context.Background(), model.DefaultPositions())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("existing catalog is left alone", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT COUNT\(\*\) FROM positions`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		n, err := s.SeedPositions(context.Background(), model.DefaultPositions())
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// ==========================
// Candidates
// ==========================

func TestCreateCandidate(t *testing.T) {
	s, mock := setupMockDB(t)
	c := model.Candidate{
		Name:       "Ada",
		Email:      "ada@example.com",
		Position:   "Backend Developer",
		Skills:     model.SkillSet{"Python": 80},
		Experience: model.Experience{{Company: "Acme", Role: "Dev", Years: "6"}},
		Score:      71,
		Status:     model.StatusPending,
		CreatedAt:  stamp,
	}

	mock.ExpectQuery(`INSERT INTO candidates`).
		WithArgs("Ada", "ada@example.com", "Backend Developer", `{"Python":80}`,
			`[{"company":"Acme","role":"Dev","years":"6"}]`, 71, "pending", "", stamp).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	got, err := s.CreateCandidate(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCandidate(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT id, name, email, position, skills, experience, score, status, notes, created_at FROM candidates WHERE id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows(candidateCols).
				AddRow(3, "Ada", "ada@example.com", "Backend Developer", `{"Python":80}`, `[]`, 71, "pending", "", stamp))

		c, err := s.GetCandidate(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "Ada", c.Name)
		assert.Equal(t, model.SkillSet{"Python": 80}, c.Skills)
		assert.Empty(t, c.Experience)
		assert.Equal(t, model.StatusPending, c.Status)
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`FROM candidates WHERE id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

		_, err := s.GetCandidate(context.Background(), 9)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestRankCandidate(t *testing.T) {
	t.Run("counts candidates ordered ahead", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`SELECT 1 \+ \(\s*SELECT COUNT\(\*\) FROM candidates c\s*WHERE c.score > t.score OR \(c.score = t.score AND c.id < t.id\)\s*\) FROM candidates t WHERE t.id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"rank"}).AddRow(4))

		r, err := s.RankCandidate(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, 4, r)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`FROM candidates t WHERE t.id = \$1`).WithArgs(int64(9)).WillReturnError(sql.ErrNoRows)

		_, err := s.RankCandidate(context.Background(), 9)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestListCandidates(t *testing.T) {
	tests := []struct {
		name   string
		filter repository.CandidateFilter
		query  string
		args   []driver.Value
	}{
		{
			name:  "no filter",
			query: `FROM candidates ORDER BY score DESC, id ASC$`,
		},
		{
			name:   "position and status with limit",
			filter: repository.CandidateFilter{Position: "Backend Developer", Status: model.StatusReview, Limit: 5},
			query:  `FROM candidates WHERE LOWER\(position\) = LOWER\(\$1\) AND status = \$2 ORDER BY score DESC, id ASC LIMIT \$3`,
			args:   []driver.Value{"Backend Developer", "review", 5},
		},
		{
			name:   "status only",
			filter: repository.CandidateFilter{Status: model.StatusShortlisted},
			query:  `FROM candidates WHERE status = \$1 ORDER BY`,
			args:   []driver.Value{"shortlisted"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := setupMockDB(t)
			q := mock.ExpectQuery(tt.query)
			if len(tt.args) > 0 {
				q.WithArgs(tt.args...)
			}
			q.WillReturnRows(sqlmock.NewRows(candidateCols).
				AddRow(2, "Bob", "bob@example.com", "Backend Developer", `{}`, `[]`, 90, "shortlisted", "", stamp).
				AddRow(1, "Ada", "ada@example.com", "Backend Developer", `{}`, `[]`, 71, "pending", "", stamp))

			out, err := s.ListCandidates(context.Background(), tt.filter)
			require.NoError(t, err)
			require.Len(t, out, 2)
			assert.Equal(t, int64(2), out[0].ID)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCountCandidates(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM candidates WHERE status = \$1`).
		WithArgs("shortlisted").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := s.CountCandidates(context.Background(), repository.CandidateFilter{Status: model.StatusShortlisted})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestUpdateCandidate(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`UPDATE candidates SET status = \$1 WHERE id = \$2 RETURNING`).
			WithArgs("shortlisted", int64(1)).
			WillReturnRows(sqlmock.NewRows(candidateCols).
				AddRow(1, "Ada", "ada@example.com", "Backend Developer", `{}`, `[]`, 71, "shortlisted", "", stamp))

		c, err := s.UpdateCandidateStatus(context.Background(), 1, model.StatusShortlisted)
		require.NoError(t, err)
		assert.Equal(t, model.StatusShortlisted, c.Status)
		assert.Equal(t, 71, c.Score)
	})

	t.Run("notes on missing candidate", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`UPDATE candidates SET notes = \$1 WHERE id = \$2`).
			WithArgs("hello", int64(5)).
			WillReturnError(sql.ErrNoRows)

		_, err := s.UpdateCandidateNotes(context.Background(), 5, "hello")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

// ==========================
// Positions
// ==========================

func TestCreatePosition_Duplicate(t *testing.T) {
	dupErrors := map[string]error{
		"lib/pq": &pq.Error{Code: "23505"},
		"pgx":    &pgconn.PgError{Code: "23505"},
	}
	for name, dupErr := range dupErrors {
		t.Run(name, func(t *testing.T) {
			s, mock := setupMockDB(t)
			mock.ExpectQuery(`INSERT INTO positions`).WillReturnError(dupErr)

			_, err := s.CreatePosition(context.Background(), model.Position{Title: "Backend Developer"})
			assert.ErrorIs(t, err, repository.ErrDuplicate)
		})
	}

	t.Run("other errors are wrapped", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO positions`).WillReturnError(&pq.Error{Code: "23502"})

		_, err := s.CreatePosition(context.Background(), model.Position{Title: "X"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, repository.ErrDuplicate)
	})
}

func TestGetPositionByTitle(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM positions WHERE LOWER\(title\) = LOWER\(\$1\)`).
		WithArgs("backend developer").
		WillReturnRows(sqlmock.NewRows(positionCols).
			AddRow(2, "Backend Developer", "Engineering", `["Python","Flask","SQL","API"]`, true, stamp))

	p, err := s.GetPositionByTitle(context.Background(), " backend developer ")
	require.NoError(t, err)
	assert.Equal(t, model.RequiredSkills{"Python", "Flask", "SQL", "API"}, p.RequiredSkills)
	assert.True(t, p.Active)
}

func TestListPositions(t *testing.T) {
	s, mock := setupMockDB(t)
	mock.ExpectQuery(`FROM positions WHERE active = TRUE ORDER BY id ASC`).
		WillReturnRows(sqlmock.NewRows(positionCols).
			AddRow(1, "Frontend Developer", "Engineering", `["React"]`, true, stamp))

	out, err := s.ListPositions(context.Background(), true)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Frontend Developer", out[0].Title)
}

func TestUpdatePosition(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`UPDATE positions SET`).WillReturnError(sql.ErrNoRows)

		_, err := s.UpdatePosition(context.Background(), model.Position{ID: 4, Title: "X"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("title conflict", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`UPDATE positions SET`).WillReturnError(&pgconn.PgError{Code: "23505"})

		_, err := s.UpdatePosition(context.Background(), model.Position{ID: 1, Title: "Data Scientist"})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})
}

// ==========================
// Uploads and notifications
// ==========================

func TestUploads(t *testing.T) {
	t.Run("create and last", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`INSERT INTO uploads`).
			WithArgs("batch-1", "cvs.csv", "Backend Developer", stamp, 3, 2, 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectQuery(`FROM uploads ORDER BY processed_at DESC, id DESC LIMIT 1`).
			WillReturnRows(sqlmock.NewRows(uploadCols).AddRow(1, "batch-1", "cvs.csv", "Backend Developer", stamp, 3, 2, 1))

		u, err := s.CreateUpload(context.Background(), model.Upload{
			BatchID: "batch-1", Filename: "cvs.csv", Position: "Backend Developer",
			ProcessedAt: stamp, TotalRecords: 3, SuccessfulRecords: 2, FailedRecords: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)

		last, err := s.LastUpload(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "cvs.csv", last.Filename)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no uploads yet", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`FROM uploads`).WillReturnRows(sqlmock.NewRows(uploadCols))

		_, err := s.LastUpload(context.Background())
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestNotifications(t *testing.T) {
	t.Run("unread listing", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectQuery(`FROM notifications WHERE read = FALSE ORDER BY id DESC`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "message", "type", "read", "created_at"}).
				AddRow(2, "Processed 3 candidates from cvs.csv", "upload_complete", false, stamp))

		out, err := s.ListNotifications(context.Background(), true)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, model.NotificationUploadComplete, out[0].Type)
	})

	t.Run("mark read", func(t *testing.T) {
		s, mock := setupMockDB(t)
		mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id = \$1`).
			WithArgs(int64(2)).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`UPDATE notifications SET read = TRUE WHERE id = \$1`).
			WithArgs(int64(3)).WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, s.MarkNotificationRead(context.Background(), 2))
		assert.ErrorIs(t, s.MarkNotificationRead(context.Background(), 3), repository.ErrNotFound)
	})
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.Error(t, New(db).Ping(context.Background()))
}
