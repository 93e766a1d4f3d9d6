package participant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
)

// ErrNotFound is returned when no participant exists for the given id.
var ErrNotFound = errors.New("participant not found")

// Repository persists participants in Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const participantColumns = `id, session_code, name, total_score, joined_at`

func (r *Repository) Create(ctx context.Context, req CreateParticipantRequest) (*models.Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO participants (id, session_code, name)
		VALUES ($1, $2, $3)
		RETURNING `+participantColumns,
		uuid.New(), models.CanonicalCode(req.SessionCode), req.Name,
	)
	p, err := scanParticipant(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create participant: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+participantColumns+` FROM participants WHERE id = $1`, id)
	p, err := scanParticipant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return p, nil
}

// ListTop returns participants ordered by descending score with join time
// (then id) as the deterministic tiebreak, truncated to limit. A limit of
// zero or less returns the full ordering.
func (r *Repository) ListTop(ctx context.Context, code string, limit int) ([]models.Participant, error) {
	query := `
		SELECT ` + participantColumns + ` FROM participants
		WHERE session_code = $1
		ORDER BY total_score DESC, joined_at, id`
	args := []any{models.CanonicalCode(code)}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, *p)
	}
	return participants, rows.Err()
}

// AddScore atomically increments a participant's running total.
func (r *Repository) AddScore(ctx context.Context, id uuid.UUID, points int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE participants SET total_score = total_score + $2 WHERE id = $1`,
		id, points)
	if err != nil {
		return fmt.Errorf("failed to add score: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteBySession(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM participants WHERE session_code = $1`, models.CanonicalCode(code)); err != nil {
		return fmt.Errorf("failed to delete session participants: %w", err)
	}
	return nil
}

// Count returns the number of participants across all sessions.
func (r *Repository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM participants`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanParticipant(row scannable) (*models.Participant, error) {
	var p models.Participant
	if err := row.Scan(&p.ID, &p.SessionCode, &p.Name, &p.TotalScore, &p.JoinedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
