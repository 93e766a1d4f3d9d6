package models

import (
	"time"

	"github.com/google/uuid"
)

// Option is one answer choice for a question. Exactly one option per
// question is expected to carry IsCorrect; the correct flag never leaves
// the server during the question phase.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// Question belongs to one session. Position plus creation time give the
// deterministic order the game loop walks.
type Question struct {
	ID          uuid.UUID `json:"id"`
	SessionCode string    `json:"session_code"`
	Text        string    `json:"question_text"`
	Options     []Option  `json:"options"`
	Position    int       `json:"position"`
	CreatedAt   time.Time `json:"created_at"`
}

// CorrectOption returns the text of the option marked correct, or ok=false
// if no option carries the flag.
func (q Question) CorrectOption() (string, bool) {
	for _, o := range q.Options {
		if o.IsCorrect {
			return o.Text, true
		}
	}
	return "", false
}
