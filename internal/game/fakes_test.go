package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
)

// memStore is an in-memory SessionStore with the repository's semantics:
// unknown codes report session.ErrNotFound, pointer and deadline move
// together.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newMemStore(sessions ...*models.Session) *memStore {
	s := &memStore{sessions: make(map[string]*models.Session)}
	for _, sess := range sessions {
		s.sessions[sess.Code] = sess
	}
	return s
}

func (s *memStore) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return nil, session.ErrNotFound
	}
	snapshot := *sess
	return &snapshot, nil
}

func (s *memStore) SetActive(ctx context.Context, code string, startedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return session.ErrNotFound
	}
	sess.Status = models.SessionStatusActive
	sess.StartedAt = &startedAt
	return nil
}

func (s *memStore) UpdateStatus(ctx context.Context, code string, status models.SessionStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return session.ErrNotFound
	}
	sess.Status = status
	return nil
}

func (s *memStore) UpdateCurrentQuestion(ctx context.Context, code string, questionID *uuid.UUID, endsAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[code]
	if !ok {
		return session.ErrNotFound
	}
	sess.CurrentQuestionID = questionID
	sess.QuestionEndsAt = endsAt
	return nil
}

type memQuestions struct {
	questions []models.Question
	err       error
}

func (m *memQuestions) ListBySession(ctx context.Context, code string) ([]models.Question, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.questions, nil
}

type stubRanker struct {
	ranks   []events.RankEntry
	winners []events.Winner
	err     error
}

func (r *stubRanker) TopN(ctx context.Context, code string, n int) ([]events.RankEntry, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.ranks, nil
}

func (r *stubRanker) Winners(ctx context.Context, code string, k int) ([]events.Winner, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.winners, nil
}

type recordedEvent struct {
	Code    string
	Type    events.Type
	Payload any
}

// recordingBroadcaster pushes every broadcast onto a channel so tests can
// assert on the exact event sequence.
type recordingBroadcaster struct {
	ch chan recordedEvent
}

func newRecordingBroadcaster() *recordingBroadcaster {
	return &recordingBroadcaster{ch: make(chan recordedEvent, 64)}
}

func (b *recordingBroadcaster) Broadcast(ctx context.Context, code string, eventType events.Type, payload any) error {
	b.ch <- recordedEvent{Code: code, Type: eventType, Payload: payload}
	return nil
}

// expectEvent receives the next broadcast and fails the test unless it has
// the wanted type.
func expectEvent(t *testing.T, b *recordingBroadcaster, want events.Type) recordedEvent {
	t.Helper()
	select {
	case ev := <-b.ch:
		if ev.Type != want {
			t.Fatalf("expected event %s, got %s (payload %+v)", want, ev.Type, ev.Payload)
		}
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event %s", want)
		return recordedEvent{}
	}
}

// expectNoEvent asserts nothing is broadcast within the window.
func expectNoEvent(t *testing.T, b *recordingBroadcaster) {
	t.Helper()
	select {
	case ev := <-b.ch:
		t.Fatalf("unexpected event %s (payload %+v)", ev.Type, ev.Payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func waitingSession(code string) *models.Session {
	return &models.Session{
		ID:     uuid.New(),
		Code:   code,
		Title:  "test quiz",
		Status: models.SessionStatusWaiting,
	}
}

func makeQuestions(code string, n int) []models.Question {
	questions := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.Question{
			ID:          uuid.New(),
			SessionCode: code,
			Text:        "question",
			Options: []models.Option{
				{Text: "wrong"},
				{Text: "right", IsCorrect: true},
			},
			Position: i,
		})
	}
	return questions
}
