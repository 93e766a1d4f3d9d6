package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/sqlutil"
)

// ErrNotFound is returned when no session exists for the given code.
var ErrNotFound = errors.New("session not found")

// ErrCodeExists is returned when creating a session with a code already in use.
var ErrCodeExists = errors.New("session code already exists")

// Repository persists sessions in Postgres. The session row is the single
// source of truth for the game loop and for late-joiner resync.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, session_code, title, description, status, current_question_id, question_ends_at, started_at, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	code := models.CanonicalCode(req.Code)

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, session_code, title, description, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+sessionColumns,
		uuid.New(), code, req.Title, req.Description, models.SessionStatusWaiting,
	)
	sess, err := scanSession(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrCodeExists
		}
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return sess, nil
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE session_code = $1`,
		models.CanonicalCode(code),
	)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return sess, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Session, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}

// SetActive transitions a session into the running state and records the
// start time.
func (r *Repository) SetActive(ctx context.Context, code string, startedAt time.Time) error {
	return r.exec(ctx, `
		UPDATE sessions SET status = $2, started_at = $3, updated_at = now()
		WHERE session_code = $1`,
		models.CanonicalCode(code), models.SessionStatusActive, startedAt)
}

func (r *Repository) UpdateStatus(ctx context.Context, code string, status models.SessionStatus) error {
	return r.exec(ctx, `
		UPDATE sessions SET status = $2, updated_at = now()
		WHERE session_code = $1`,
		models.CanonicalCode(code), status)
}

// UpdateCurrentQuestion persists the question pointer and its deadline in a
// single statement so readers never observe one without the other. Pass nil
// for both to mark the break window.
func (r *Repository) UpdateCurrentQuestion(ctx context.Context, code string, questionID *uuid.UUID, endsAt *time.Time) error {
	return r.exec(ctx, `
		UPDATE sessions SET current_question_id = $2, question_ends_at = $3, updated_at = now()
		WHERE session_code = $1`,
		models.CanonicalCode(code), sqlutil.ToNullUUID(questionID), sqlutil.ToNullTime(endsAt))
}

// Reset returns a session to the lobby state: WAITING, no question pointer,
// no deadline, no start time. Participant and response cleanup is the
// caller's job.
func (r *Repository) Reset(ctx context.Context, code string) error {
	return r.exec(ctx, `
		UPDATE sessions
		SET status = $2, current_question_id = NULL, question_ends_at = NULL, started_at = NULL, updated_at = now()
		WHERE session_code = $1`,
		models.CanonicalCode(code), models.SessionStatusWaiting)
}

func (r *Repository) Delete(ctx context.Context, code string) error {
	return r.exec(ctx, `DELETE FROM sessions WHERE session_code = $1`, models.CanonicalCode(code))
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSession(row scannable) (*models.Session, error) {
	var (
		sess        models.Session
		description sql.NullString
		questionID  uuid.NullUUID
		endsAt      sql.NullTime
		startedAt   sql.NullTime
	)
	err := row.Scan(
		&sess.ID, &sess.Code, &sess.Title, &description, &sess.Status,
		&questionID, &endsAt, &startedAt, &sess.CreatedAt, &sess.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	sess.Description = sqlutil.FromSqlString(description, "")
	sess.CurrentQuestionID = sqlutil.FromNullUUID(questionID)
	sess.QuestionEndsAt = sqlutil.FromNullTime(endsAt)
	sess.StartedAt = sqlutil.FromNullTime(startedAt)
	return &sess, nil
}
