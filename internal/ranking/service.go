// Package ranking builds leaderboard snapshots from participant records.
// Snapshots are pure projections recomputed on demand, never cached.
package ranking

import (
	"context"
	"fmt"

	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
)

// ParticipantLister is the slice of the participant repository the ranking
// service needs: the score-descending ordering with its deterministic
// tiebreak comes from the store.
type ParticipantLister interface {
	ListTop(ctx context.Context, code string, limit int) ([]models.Participant, error)
}

type Service struct {
	participants ParticipantLister
}

func NewService(participants ParticipantLister) *Service {
	return &Service{participants: participants}
}

// TopN returns up to n rank entries ordered by descending score, ties
// broken by join order. Ranks are dense 1-based positions. Zero
// participants yields an empty (non-nil) slice.
func (s *Service) TopN(ctx context.Context, code string, n int) ([]events.RankEntry, error) {
	participants, err := s.participants.ListTop(ctx, code, n)
	if err != nil {
		return nil, fmt.Errorf("failed to rank participants: %w", err)
	}

	ranks := make([]events.RankEntry, 0, len(participants))
	for i, p := range participants {
		ranks = append(ranks, events.RankEntry{
			ID:    p.ID.String(),
			Rank:  i + 1,
			Name:  p.Name,
			Score: p.TotalScore,
		})
	}
	return ranks, nil
}

// Winners returns the final top-k as game:over winner entries.
func (s *Service) Winners(ctx context.Context, code string, k int) ([]events.Winner, error) {
	ranks, err := s.TopN(ctx, code, k)
	if err != nil {
		return nil, err
	}
	winners := make([]events.Winner, 0, len(ranks))
	for _, r := range ranks {
		winners = append(winners, events.Winner{Name: r.Name, Score: r.Score})
	}
	return winners, nil
}
