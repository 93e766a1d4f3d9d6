package httpapi

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/participant"
	"github.com/quizdeck/quizdeck/internal/quiz/question"
	"github.com/quizdeck/quizdeck/internal/quiz/response"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
)

type fakeSessions struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
}

func newFakeSessions(sessions ...*models.Session) *fakeSessions {
	f := &fakeSessions{sessions: make(map[string]*models.Session)}
	for _, s := range sessions {
		f.sessions[s.Code] = s
	}
	return f
}

func (f *fakeSessions) Create(ctx context.Context, req session.CreateSessionRequest) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code := models.CanonicalCode(req.Code)
	if _, ok := f.sessions[code]; ok {
		return nil, session.ErrCodeExists
	}
	sess := &models.Session{
		ID:          uuid.New(),
		Code:        code,
		Title:       req.Title,
		Description: req.Description,
		Status:      models.SessionStatusWaiting,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.sessions[code] = sess
	return sess, nil
}

func (f *fakeSessions) GetByCode(ctx context.Context, code string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[models.CanonicalCode(code)]
	if !ok {
		return nil, session.ErrNotFound
	}
	snapshot := *sess
	return &snapshot, nil
}

func (f *fakeSessions) List(ctx context.Context) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Session
	for _, s := range f.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSessions) UpdateStatus(ctx context.Context, code string, status models.SessionStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[models.CanonicalCode(code)]
	if !ok {
		return session.ErrNotFound
	}
	sess.Status = status
	return nil
}

func (f *fakeSessions) Reset(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sess, ok := f.sessions[models.CanonicalCode(code)]
	if !ok {
		return session.ErrNotFound
	}
	sess.Status = models.SessionStatusWaiting
	sess.CurrentQuestionID = nil
	sess.QuestionEndsAt = nil
	sess.StartedAt = nil
	return nil
}

func (f *fakeSessions) Delete(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	if _, ok := f.sessions[code]; !ok {
		return session.ErrNotFound
	}
	delete(f.sessions, code)
	return nil
}

type fakeQuestions struct {
	mu        sync.Mutex
	questions []models.Question
}

func (f *fakeQuestions) Create(ctx context.Context, req question.CreateQuestionRequest) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	q := models.Question{
		ID:          uuid.New(),
		SessionCode: models.CanonicalCode(req.SessionCode),
		Text:        req.Text,
		Options:     req.Options,
		Position:    req.Position,
		CreatedAt:   time.Now(),
	}
	f.questions = append(f.questions, q)
	return &q, nil
}

func (f *fakeQuestions) ListBySession(ctx context.Context, code string) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	var out []models.Question
	for _, q := range f.questions {
		if q.SessionCode == code {
			out = append(out, q)
		}
	}
	return out, nil
}

func (f *fakeQuestions) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, q := range f.questions {
		if q.ID == id {
			f.questions = append(f.questions[:i], f.questions[i+1:]...)
			return nil
		}
	}
	return question.ErrNotFound
}

func (f *fakeQuestions) DeleteBySession(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	kept := f.questions[:0]
	for _, q := range f.questions {
		if q.SessionCode != code {
			kept = append(kept, q)
		}
	}
	f.questions = kept
	return nil
}

type fakeParticipants struct {
	mu           sync.Mutex
	participants []models.Participant
}

func (f *fakeParticipants) Create(ctx context.Context, req participant.CreateParticipantRequest) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p := models.Participant{
		ID:          uuid.New(),
		SessionCode: models.CanonicalCode(req.SessionCode),
		Name:        req.Name,
		JoinedAt:    time.Now(),
	}
	f.participants = append(f.participants, p)
	return &p, nil
}

func (f *fakeParticipants) Get(ctx context.Context, id uuid.UUID) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.ID == id {
			snapshot := p
			return &snapshot, nil
		}
	}
	return nil, participant.ErrNotFound
}

func (f *fakeParticipants) ListTop(ctx context.Context, code string, limit int) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	var out []models.Participant
	for _, p := range f.participants {
		if p.SessionCode == code {
			out = append(out, p)
		}
	}
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeParticipants) AddScore(ctx context.Context, id uuid.UUID, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.participants {
		if f.participants[i].ID == id {
			f.participants[i].TotalScore += points
			return nil
		}
	}
	return participant.ErrNotFound
}

func (f *fakeParticipants) DeleteBySession(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	kept := f.participants[:0]
	for _, p := range f.participants {
		if p.SessionCode != code {
			kept = append(kept, p)
		}
	}
	f.participants = kept
	return nil
}

func (f *fakeParticipants) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.participants), nil
}

type fakeResponses struct {
	mu        sync.Mutex
	responses []models.Response
}

func (f *fakeResponses) Create(ctx context.Context, req response.CreateResponseRequest) (*models.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := models.Response{
		ID:            uuid.New(),
		SessionCode:   models.CanonicalCode(req.SessionCode),
		QuestionID:    req.QuestionID,
		ParticipantID: req.ParticipantID,
		OptionIndex:   req.OptionIndex,
		Correct:       req.Correct,
		Points:        req.Points,
		SubmittedAt:   time.Now(),
	}
	f.responses = append(f.responses, resp)
	return &resp, nil
}

func (f *fakeResponses) DeleteBySession(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	code = models.CanonicalCode(code)
	kept := f.responses[:0]
	for _, r := range f.responses {
		if r.SessionCode != code {
			kept = append(kept, r)
		}
	}
	f.responses = kept
	return nil
}

type fakeGame struct {
	mu      sync.Mutex
	err     error
	started []string
}

func (f *fakeGame) StartGame(ctx context.Context, code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.started = append(f.started, models.CanonicalCode(code))
	return nil
}

type recordedEvent struct {
	Code    string
	Type    events.Type
	Payload any
}

type recBroadcaster struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recBroadcaster) Broadcast(ctx context.Context, code string, eventType events.Type, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{Code: code, Type: eventType, Payload: payload})
	return nil
}

func (b *recBroadcaster) all() []recordedEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]recordedEvent(nil), b.events...)
}

func participantReq(code, name string) participant.CreateParticipantRequest {
	return participant.CreateParticipantRequest{SessionCode: code, Name: name}
}

func questionReq(code string) question.CreateQuestionRequest {
	return question.CreateQuestionRequest{
		SessionCode: code,
		Text:        "which?",
		Options: []models.Option{
			{Text: "wrong"},
			{Text: "right", IsCorrect: true},
		},
	}
}
