package models

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a player in one session. TotalScore is mutated by the
// scoring collaborator on answer submission; JoinedAt is the deterministic
// tiebreak for equal scores on the leaderboard.
type Participant struct {
	ID          uuid.UUID `json:"id"`
	SessionCode string    `json:"session_code"`
	Name        string    `json:"name"`
	TotalScore  int       `json:"total_score"`
	JoinedAt    time.Time `json:"joined_at"`
}
