package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/question"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

type createQuestionRequest struct {
	Text     string          `json:"question_text"`
	Options  []models.Option `json:"options"`
	Position int             `json:"position"`
}

func (a *API) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req createQuestionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" || len(req.Options) < 2 {
		respondError(w, http.StatusBadRequest, "question_text and at least two options are required")
		return
	}
	correct := 0
	for _, o := range req.Options {
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		respondError(w, http.StatusBadRequest, "exactly one option must be marked correct")
		return
	}

	if _, err := a.sessions.GetByCode(r.Context(), code); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("failed to load session")
		respondError(w, http.StatusInternalServerError, "failed to create question")
		return
	}

	q, err := a.questions.Create(r.Context(), question.CreateQuestionRequest{
		SessionCode: code,
		Text:        req.Text,
		Options:     req.Options,
		Position:    req.Position,
	})
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to create question")
		respondError(w, http.StatusInternalServerError, "failed to create question")
		return
	}
	respondData(w, http.StatusCreated, q)
}

func (a *API) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	questions, err := a.questions.ListBySession(r.Context(), code)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to list questions")
		respondError(w, http.StatusInternalServerError, "failed to list questions")
		return
	}
	if questions == nil {
		questions = []models.Question{}
	}
	respondData(w, http.StatusOK, questions)
}

func (a *API) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid question id")
		return
	}

	if err := a.questions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, question.ErrNotFound) {
			respondError(w, http.StatusNotFound, "question not found")
			return
		}
		log.Error().Err(err).Str("question_id", id.String()).Msg("failed to delete question")
		respondError(w, http.StatusInternalServerError, "failed to delete question")
		return
	}
	respondMessage(w, http.StatusOK, "question deleted")
}
