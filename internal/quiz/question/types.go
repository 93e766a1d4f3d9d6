package question

import "github.com/quizdeck/quizdeck/internal/models"

// CreateQuestionRequest carries the fields for a new question. Exactly one
// option is expected to be marked correct; the repository does not enforce
// this, the game loop tolerates its absence.
type CreateQuestionRequest struct {
	SessionCode string
	Text        string
	Options     []models.Option
	Position    int
}
