package response

import "github.com/google/uuid"

// CreateResponseRequest carries one answer submission.
type CreateResponseRequest struct {
	SessionCode   string
	QuestionID    uuid.UUID
	ParticipantID uuid.UUID
	OptionIndex   int
	Correct       bool
	Points        int
}

// Scorer decides how many points an answer earns. The real time-based
// formula lives with the external scoring collaborator; FixedScorer is the
// default seam so the leaderboard works end to end.
type Scorer interface {
	Points(correct bool) int
}

// FixedScorer awards a flat amount for a correct answer.
type FixedScorer struct {
	Award int
}

func (s FixedScorer) Points(correct bool) int {
	if !correct {
		return 0
	}
	return s.Award
}
