package response

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
)

// Repository persists answer submissions in Postgres. Responses exist for
// auditing and cascade semantics; scoring happens upstream through the
// Scorer seam.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req CreateResponseRequest) (*models.Response, error) {
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO responses (id, session_code, question_id, participant_id, option_index, correct, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, session_code, question_id, participant_id, option_index, correct, points, submitted_at`,
		uuid.New(), models.CanonicalCode(req.SessionCode), req.QuestionID, req.ParticipantID,
		req.OptionIndex, req.Correct, req.Points,
	)

	var resp models.Response
	err := row.Scan(
		&resp.ID, &resp.SessionCode, &resp.QuestionID, &resp.ParticipantID,
		&resp.OptionIndex, &resp.Correct, &resp.Points, &resp.SubmittedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}
	return &resp, nil
}

func (r *Repository) DeleteBySession(ctx context.Context, code string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM responses WHERE session_code = $1`, models.CanonicalCode(code)); err != nil {
		return fmt.Errorf("failed to delete session responses: %w", err)
	}
	return nil
}
