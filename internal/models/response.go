package models

import (
	"time"

	"github.com/google/uuid"
)

// Response records one participant's answer to one question. Responses are
// owned by the session and deleted with it (and on session reset).
type Response struct {
	ID            uuid.UUID `json:"id"`
	SessionCode   string    `json:"session_code"`
	QuestionID    uuid.UUID `json:"question_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	OptionIndex   int       `json:"option_index"`
	Correct       bool      `json:"correct"`
	Points        int       `json:"points"`
	SubmittedAt   time.Time `json:"submitted_at"`
}
