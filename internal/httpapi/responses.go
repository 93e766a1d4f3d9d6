package httpapi

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/participant"
	"github.com/quizdeck/quizdeck/internal/quiz/response"
	"github.com/rs/zerolog/log"
)

type submitResponseRequest struct {
	SessionCode   string `json:"session_code"`
	QuestionID    string `json:"question_id"`
	ParticipantID string `json:"participant_id"`
	OptionIndex   int    `json:"option_index"`
}

type submitResponseResult struct {
	Correct bool `json:"correct"`
	Points  int  `json:"points"`
}

// handleSubmitResponse records an answer, grades it server-side, and
// applies the earned points to the participant's running total. Whether
// the answer arrived within the question window is the client's problem;
// the server only checks it against the named question.
func (a *API) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var req submitResponseRequest
	if !decodeBody(w, r, &req) {
		return
	}

	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	participantID, err := uuid.Parse(req.ParticipantID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid participant id")
		return
	}

	ctx := r.Context()
	if _, err := a.participants.Get(ctx, participantID); err != nil {
		if errors.Is(err, participant.ErrNotFound) {
			respondError(w, http.StatusNotFound, "participant not found")
			return
		}
		log.Error().Err(err).Msg("failed to load participant")
		respondError(w, http.StatusInternalServerError, "failed to submit response")
		return
	}

	q, ok := a.findQuestion(w, r, req.SessionCode, questionID)
	if !ok {
		return
	}
	if req.OptionIndex < 0 || req.OptionIndex >= len(q.Options) {
		respondError(w, http.StatusBadRequest, "option index out of range")
		return
	}

	correct := q.Options[req.OptionIndex].IsCorrect
	points := a.scorer.Points(correct)

	if _, err := a.responses.Create(ctx, response.CreateResponseRequest{
		SessionCode:   req.SessionCode,
		QuestionID:    questionID,
		ParticipantID: participantID,
		OptionIndex:   req.OptionIndex,
		Correct:       correct,
		Points:        points,
	}); err != nil {
		log.Error().Err(err).Msg("failed to record response")
		respondError(w, http.StatusInternalServerError, "failed to submit response")
		return
	}

	if points != 0 {
		if err := a.participants.AddScore(ctx, participantID, points); err != nil {
			log.Error().Err(err).Str("participant_id", participantID.String()).Msg("failed to apply score")
			respondError(w, http.StatusInternalServerError, "failed to submit response")
			return
		}
	}

	respondData(w, http.StatusCreated, submitResponseResult{Correct: correct, Points: points})
}

// findQuestion resolves a question id within its session's list. Writes
// the error response itself on failure.
func (a *API) findQuestion(w http.ResponseWriter, r *http.Request, code string, id uuid.UUID) (models.Question, bool) {
	questions, err := a.questions.ListBySession(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to list questions")
		respondError(w, http.StatusInternalServerError, "failed to submit response")
		return models.Question{}, false
	}
	for _, q := range questions {
		if q.ID == id {
			return q, true
		}
	}
	respondError(w, http.StatusNotFound, "question not found")
	return models.Question{}, false
}
