package game

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

// SyncKind classifies what a (re)connecting client should be shown.
type SyncKind int

const (
	// SyncIdle: session is waiting in the lobby.
	SyncIdle SyncKind = iota
	// SyncGameOver: session has reached a terminal state.
	SyncGameOver
	// SyncQuestion: a question is live with time remaining.
	SyncQuestion
	// SyncRanks: break window (or expired question) — show the leaderboard.
	SyncRanks
)

// SyncState is the answer to "what should this client show right now".
type SyncState struct {
	Kind     SyncKind
	Question *events.QuestionPayload // set when Kind == SyncQuestion
	Ranks    []events.RankEntry      // set when Kind == SyncRanks
}

// Resyncer reconstructs client state from the persisted session record
// alone. It never touches the loop's in-memory state, has no side effects,
// and is safe to call at any time, any number of times.
type Resyncer struct {
	sessions  SessionStore
	questions QuestionStore
	ranker    Ranker
}

func NewResyncer(sessions SessionStore, questions QuestionStore, ranker Ranker) *Resyncer {
	return &Resyncer{sessions: sessions, questions: questions, ranker: ranker}
}

// Resync maps the persisted session state and the given wall-clock time to
// one of the four sync outcomes. A missing session is reported to the
// caller; any other failure degrades to the idle signal rather than
// surfacing a hard error to the client.
func (r *Resyncer) Resync(ctx context.Context, rawCode string, now time.Time) (*SyncState, error) {
	code := models.CanonicalCode(rawCode)

	sess, err := r.sessions.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Str("session_code", code).Msg("resync failed, degrading to idle")
		return &SyncState{Kind: SyncIdle}, nil
	}

	if sess.Status == models.SessionStatusWaiting {
		return &SyncState{Kind: SyncIdle}, nil
	}
	if sess.Status.Terminal() {
		return &SyncState{Kind: SyncGameOver}, nil
	}

	// ACTIVE with a live, unexpired question: hand the client the question
	// with only the remaining time. An expired-but-still-set deadline is
	// treated as the break window — never a question with zero time left.
	if sess.CurrentQuestionID != nil && sess.QuestionEndsAt != nil && sess.QuestionEndsAt.After(now) {
		if state := r.questionState(ctx, sess, now); state != nil {
			return state, nil
		}
	}

	ranks, err := r.ranker.TopN(ctx, code, ranksPerQuestion)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("resync ranking failed, degrading to idle")
		return &SyncState{Kind: SyncIdle}, nil
	}
	return &SyncState{Kind: SyncRanks, Ranks: ranks}, nil
}

// questionState rebuilds the game:question payload for a live question.
// The question's 1-based number comes from scanning the ordered list, not
// from a stored index; a pointer to a question that no longer exists falls
// through to the leaderboard branch (nil return).
func (r *Resyncer) questionState(ctx context.Context, sess *models.Session, now time.Time) *SyncState {
	questions, err := r.questions.ListBySession(ctx, sess.Code)
	if err != nil {
		log.Error().Err(err).Str("session_code", sess.Code).Msg("resync question lookup failed")
		return nil
	}

	for i, q := range questions {
		if q.ID != *sess.CurrentQuestionID {
			continue
		}
		remaining := int(math.Ceil(sess.QuestionEndsAt.Sub(now).Seconds()))
		return &SyncState{
			Kind: SyncQuestion,
			Question: &events.QuestionPayload{
				QNum:     i + 1,
				Total:    len(questions),
				Time:     remaining,
				Question: QuestionView(q),
				IsSync:   true,
			},
		}
	}
	return nil
}
