// Package game drives quiz sessions through their question list and
// answers state-sync requests from (re)connecting clients.
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/rs/zerolog/log"
)

var (
	// ErrAlreadyRunning means a loop is already driving this session in
	// this process. Callers treat it as an idempotent no-op.
	ErrAlreadyRunning = errors.New("game already running")

	// ErrNoQuestions means the session has an empty question list; the
	// game does not start and one game:error has been broadcast.
	ErrNoQuestions = errors.New("no questions in session")

	// errStopped signals the process is shutting down mid-wait.
	errStopped = errors.New("orchestrator stopped")
)

const (
	// EmptyQuizMessage is the game:error payload for an empty question list.
	EmptyQuizMessage = "No questions in this quiz!"

	// NoCorrectAnswer is the game:result sentinel when no option carries
	// the correct flag. Should not happen given the data invariant, but
	// must not end the game when it does.
	NoCorrectAnswer = "N/A"

	ranksPerQuestion = 10
	finalWinners     = 3
)

// SessionStore is the slice of the session repository the loop needs.
type SessionStore interface {
	GetByCode(ctx context.Context, code string) (*models.Session, error)
	SetActive(ctx context.Context, code string, startedAt time.Time) error
	UpdateStatus(ctx context.Context, code string, status models.SessionStatus) error
	UpdateCurrentQuestion(ctx context.Context, code string, questionID *uuid.UUID, endsAt *time.Time) error
}

// QuestionStore supplies the ordered question list for a session.
type QuestionStore interface {
	ListBySession(ctx context.Context, code string) ([]models.Question, error)
}

// Ranker computes leaderboard snapshots at phase boundaries.
type Ranker interface {
	TopN(ctx context.Context, code string, n int) ([]events.RankEntry, error)
	Winners(ctx context.Context, code string, k int) ([]events.Winner, error)
}

// Broadcaster fans one event out to a session's room.
type Broadcaster interface {
	Broadcast(ctx context.Context, code string, eventType events.Type, payload any) error
}

// Config holds the fixed loop timings. Both timers are per-game constants,
// not per-question values.
type Config struct {
	QuestionTime time.Duration
	BreakTime    time.Duration
	// ErrorCooldown is how long the loop pauses after a failed iteration
	// before moving on to the next question.
	ErrorCooldown time.Duration
}

// DefaultConfig returns the reference timings: 15s per question, 5s break.
func DefaultConfig() Config {
	return Config{
		QuestionTime:  15 * time.Second,
		BreakTime:     5 * time.Second,
		ErrorCooldown: 2 * time.Second,
	}
}

// Orchestrator owns the authoritative timer and question pointer for every
// running session in this process. One loop goroutine per session; loops
// for different sessions are fully independent.
type Orchestrator struct {
	sessions    SessionStore
	questions   QuestionStore
	ranker      Ranker
	broadcaster Broadcaster
	clock       clockwork.Clock
	cfg         Config

	// ctx outlives the HTTP request that started a game: loops are
	// fire-and-forget and only stop with the process (or via status).
	ctx context.Context

	// running is the per-code single-flight guard. In-memory only, so it
	// guards one process; a multi-process deployment needs a conditional
	// status write instead.
	running   map[string]struct{}
	runningMu sync.Mutex
}

// New creates an orchestrator on the real clock. Loops spawned by
// StartGame stop when parent is cancelled.
func New(parent context.Context, sessions SessionStore, questions QuestionStore, ranker Ranker, broadcaster Broadcaster, cfg Config) *Orchestrator {
	return NewWithClock(parent, sessions, questions, ranker, broadcaster, cfg, clockwork.NewRealClock())
}

// NewWithClock is New with an injectable clock for tests.
func NewWithClock(parent context.Context, sessions SessionStore, questions QuestionStore, ranker Ranker, broadcaster Broadcaster, cfg Config, clock clockwork.Clock) *Orchestrator {
	return &Orchestrator{
		sessions:    sessions,
		questions:   questions,
		ranker:      ranker,
		broadcaster: broadcaster,
		clock:       clock,
		cfg:         cfg,
		ctx:         parent,
		running:     make(map[string]struct{}),
	}
}

// StartGame validates the session, marks it ACTIVE, and spawns the phase
// loop. It returns once the loop is accepted, not when it finishes.
//
// A session with an empty question list is never transitioned to ACTIVE:
// the caller gets ErrNoQuestions and the room gets exactly one game:error.
func (o *Orchestrator) StartGame(ctx context.Context, rawCode string) error {
	code := models.CanonicalCode(rawCode)

	if _, err := o.sessions.GetByCode(ctx, code); err != nil {
		return err
	}

	if !o.acquire(code) {
		return ErrAlreadyRunning
	}

	questions, err := o.questions.ListBySession(ctx, code)
	if err != nil {
		o.release(code)
		return err
	}
	if len(questions) == 0 {
		log.Warn().Str("session_code", code).Msg("game start rejected: no questions")
		o.broadcast(ctx, code, events.TypeGameError, EmptyQuizMessage)
		o.release(code)
		return ErrNoQuestions
	}

	if err := o.sessions.SetActive(ctx, code, o.clock.Now()); err != nil {
		o.release(code)
		return err
	}
	o.broadcast(ctx, code, events.TypeGameStarted, struct{}{})

	log.Info().
		Str("session_code", code).
		Int("questions", len(questions)).
		Msg("game loop starting")

	go o.runLoop(code, questions)
	return nil
}

// Running reports whether a loop currently holds the guard for this code.
func (o *Orchestrator) Running(code string) bool {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()
	_, ok := o.running[models.CanonicalCode(code)]
	return ok
}

func (o *Orchestrator) acquire(code string) bool {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()
	if _, ok := o.running[code]; ok {
		return false
	}
	o.running[code] = struct{}{}
	return true
}

func (o *Orchestrator) release(code string) {
	o.runningMu.Lock()
	defer o.runningMu.Unlock()
	delete(o.running, code)
}

// runLoop walks the question list. The guard is released on every exit
// path; an unexpected panic is contained to this session's loop.
func (o *Orchestrator) runLoop(code string, questions []models.Question) {
	defer o.release(code)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("session_code", code).Any("panic", r).Msg("game loop aborted")
		}
	}()

	total := len(questions)
	for i, q := range questions {
		// Cancellation is observed here, at the iteration boundary: an
		// administrative stop flips the persisted status and the loop
		// notices on its next pass.
		sess, err := o.sessions.GetByCode(o.ctx, code)
		if err != nil {
			if !o.iterationFailed(code, i, err) {
				return
			}
			continue
		}
		if sess.Status != models.SessionStatusActive {
			log.Info().
				Str("session_code", code).
				Str("status", string(sess.Status)).
				Msg("session no longer active, stopping loop")
			o.broadcast(o.ctx, code, events.TypeGameOver, events.OverPayload{})
			return
		}

		if err := o.playQuestion(code, i, q, total); err != nil {
			if errors.Is(err, errStopped) {
				return
			}
			if !o.iterationFailed(code, i, err) {
				return
			}
		}
	}

	o.finish(code)
}

// playQuestion runs one full question cycle: persist pointer+deadline,
// broadcast the question, wait, reveal, rank, clear, break.
func (o *Orchestrator) playQuestion(code string, i int, q models.Question, total int) error {
	deadline := o.clock.Now().Add(o.cfg.QuestionTime)

	// Persist before broadcasting so a resync racing this phase sees
	// consistent state.
	if err := o.sessions.UpdateCurrentQuestion(o.ctx, code, &q.ID, &deadline); err != nil {
		return err
	}

	log.Info().
		Str("session_code", code).
		Int("question", i+1).
		Int("total", total).
		Msg("sending question")

	o.broadcast(o.ctx, code, events.TypeGameQuestion, events.QuestionPayload{
		QNum:     i + 1,
		Total:    total,
		Time:     int(o.cfg.QuestionTime / time.Second),
		Question: QuestionView(q),
	})

	if !o.wait(o.cfg.QuestionTime) {
		return errStopped
	}

	correct, ok := q.CorrectOption()
	if !ok {
		correct = NoCorrectAnswer
	}
	o.broadcast(o.ctx, code, events.TypeGameResult, events.ResultPayload{CorrectAnswer: correct})

	ranks, err := o.ranker.TopN(o.ctx, code, ranksPerQuestion)
	if err != nil {
		return err
	}
	o.broadcast(o.ctx, code, events.TypeGameRanks, ranks)

	// Entering the break window: clear the pointer and deadline together
	// so resync serves the leaderboard, not a stale question.
	if err := o.sessions.UpdateCurrentQuestion(o.ctx, code, nil, nil); err != nil {
		return err
	}

	if !o.wait(o.cfg.BreakTime) {
		return errStopped
	}
	return nil
}

// finish ends a completed run: re-check the status survived the last
// iteration, persist the terminal state, and announce the winners.
func (o *Orchestrator) finish(code string) {
	sess, err := o.sessions.GetByCode(o.ctx, code)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to load session at game end")
		return
	}
	if sess.Status != models.SessionStatusActive {
		return
	}

	if err := o.sessions.UpdateStatus(o.ctx, code, models.SessionStatusFinished); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to persist finished status")
	}

	winners, err := o.ranker.Winners(o.ctx, code, finalWinners)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to compute winners")
		winners = nil
	}
	o.broadcast(o.ctx, code, events.TypeGameOver, events.OverPayload{Winners: winners})

	log.Info().Str("session_code", code).Msg("game over")
}

// iterationFailed logs a per-question failure and applies the cooldown.
// One bad question must not end the session for everyone. Returns false
// when the process is shutting down.
func (o *Orchestrator) iterationFailed(code string, i int, err error) bool {
	log.Error().
		Err(err).
		Str("session_code", code).
		Int("question", i+1).
		Msg("question cycle failed, skipping to next")
	return o.wait(o.cfg.ErrorCooldown)
}

// wait blocks for d on the orchestrator clock. Returns false if the
// process is shutting down. There is deliberately no per-session cancel
// signal here: admin stops are observed at iteration boundaries only.
func (o *Orchestrator) wait(d time.Duration) bool {
	timer := o.clock.NewTimer(d)
	select {
	case <-timer.Chan():
		return true
	case <-o.ctx.Done():
		timer.Stop()
		return false
	}
}

func (o *Orchestrator) broadcast(ctx context.Context, code string, eventType events.Type, payload any) {
	if err := o.broadcaster.Broadcast(ctx, code, eventType, payload); err != nil {
		log.Error().
			Err(err).
			Str("session_code", code).
			Str("event_type", string(eventType)).
			Msg("failed to broadcast event")
	}
}

// QuestionView strips the correct-answer flag off a question for the wire.
func QuestionView(q models.Question) events.QuestionView {
	options := make([]events.OptionView, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, events.OptionView{Text: opt.Text})
	}
	return events.QuestionView{
		ID:      q.ID.String(),
		Text:    q.Text,
		Options: options,
	}
}
