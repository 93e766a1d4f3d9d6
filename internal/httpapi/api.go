// Package httpapi exposes the admin and player REST surface: session and
// question management, game start, joins, and answer submission.
package httpapi

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/broadcast"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/participant"
	"github.com/quizdeck/quizdeck/internal/quiz/question"
	"github.com/quizdeck/quizdeck/internal/quiz/response"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

// SessionStore is the slice of the session repository the API needs.
type SessionStore interface {
	Create(ctx context.Context, req session.CreateSessionRequest) (*models.Session, error)
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	List(ctx context.Context) ([]models.Session, error)
	UpdateStatus(ctx context.Context, code string, status models.SessionStatus) error
	Reset(ctx context.Context, code string) error
	Delete(ctx context.Context, code string) error
}

// QuestionStore manages a session's question list.
type QuestionStore interface {
	Create(ctx context.Context, req question.CreateQuestionRequest) (*models.Question, error)
	ListBySession(ctx context.Context, code string) ([]models.Question, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteBySession(ctx context.Context, code string) error
}

// ParticipantStore manages joined players.
type ParticipantStore interface {
	Create(ctx context.Context, req participant.CreateParticipantRequest) (*models.Participant, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Participant, error)
	ListTop(ctx context.Context, code string, limit int) ([]models.Participant, error)
	AddScore(ctx context.Context, id uuid.UUID, points int) error
	DeleteBySession(ctx context.Context, code string) error
	Count(ctx context.Context) (int, error)
}

// ResponseStore records answer submissions.
type ResponseStore interface {
	Create(ctx context.Context, req response.CreateResponseRequest) (*models.Response, error)
	DeleteBySession(ctx context.Context, code string) error
}

// GameStarter launches the timed question loop for a session.
type GameStarter interface {
	StartGame(ctx context.Context, code string) error
}

// Config holds API-level settings.
type Config struct {
	// AdminPasscode gates the admin console. Empty disables verification
	// (every passcode is rejected).
	AdminPasscode string
}

// API holds the handler dependencies.
type API struct {
	sessions     SessionStore
	questions    QuestionStore
	participants ParticipantStore
	responses    ResponseStore
	game         GameStarter
	broadcaster  broadcast.Broadcaster
	scorer       response.Scorer
	cfg          Config

	startedAt time.Time
}

// New creates the API with all its collaborators.
func New(
	sessions SessionStore,
	questions QuestionStore,
	participants ParticipantStore,
	responses ResponseStore,
	game GameStarter,
	broadcaster broadcast.Broadcaster,
	scorer response.Scorer,
	cfg Config,
) *API {
	return &API{
		sessions:     sessions,
		questions:    questions,
		participants: participants,
		responses:    responses,
		game:         game,
		broadcaster:  broadcaster,
		scorer:       scorer,
		cfg:          cfg,
		startedAt:    time.Now(),
	}
}

// broadcast publishes a room event; delivery failures are logged, not
// surfaced, since the HTTP mutation itself already succeeded.
func (a *API) broadcast(ctx context.Context, code string, eventType events.Type, payload any) {
	if err := a.broadcaster.Broadcast(ctx, code, eventType, payload); err != nil {
		log.Error().
			Err(err).
			Str("session_code", code).
			Str("event_type", string(eventType)).
			Msg("failed to broadcast event")
	}
}
