package question

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
)

// ErrNotFound is returned when no question exists for the given id.
var ErrNotFound = errors.New("question not found")

// Repository persists questions in Postgres. Options live in a JSONB
// column; ordering is by explicit position, then creation time, which is
// the sequence the game loop walks.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const questionColumns = `id, session_code, question_text, options, position, created_at`

func (r *Repository) Create(ctx context.Context, req CreateQuestionRequest) (*models.Question, error) {
	optionBytes, err := json.Marshal(req.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal options: %w", err)
	}

	row := r.db.QueryRowContext(ctx, `
		INSERT INTO questions (id, session_code, question_text, options, position)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+questionColumns,
		uuid.New(), models.CanonicalCode(req.SessionCode), req.Text, optionBytes, req.Position,
	)
	q, err := scanQuestion(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return q, nil
}

// ListBySession returns all questions for a session in their stable play
// order.
func (r *Repository) ListBySession(ctx context.Context, code string) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+questionColumns+` FROM questions
		WHERE session_code = $1
		ORDER BY position, created_at`,
		models.CanonicalCode(code),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBySession(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM questions WHERE session_code = $1`, models.CanonicalCode(code)); err != nil {
		return fmt.Errorf("failed to delete session questions: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanQuestion(row scannable) (*models.Question, error) {
	var (
		q           models.Question
		optionBytes []byte
	)
	if err := row.Scan(&q.ID, &q.SessionCode, &q.Text, &optionBytes, &q.Position, &q.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(optionBytes, &q.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return &q, nil
}
