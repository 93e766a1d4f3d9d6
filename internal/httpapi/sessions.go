package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/quizdeck/internal/game"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

type createSessionRequest struct {
	Code        string `json:"session_code"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (a *API) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if models.CanonicalCode(req.Code) == "" || req.Title == "" {
		respondError(w, http.StatusBadRequest, "session_code and title are required")
		return
	}

	sess, err := a.sessions.Create(r.Context(), session.CreateSessionRequest{
		Code:        req.Code,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, session.ErrCodeExists) {
			respondError(w, http.StatusBadRequest, "session code already exists")
			return
		}
		log.Error().Err(err).Msg("failed to create session")
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	respondData(w, http.StatusCreated, sess)
}

func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.sessions.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions")
		respondError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	respondData(w, http.StatusOK, sessions)
}

func (a *API) handleGetSession(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	sess, err := a.sessions.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("failed to get session")
		respondError(w, http.StatusInternalServerError, "failed to get session")
		return
	}
	respondData(w, http.StatusOK, sess)
}

type startGameRequest struct {
	Code string `json:"session_code"`
}

// handleStartGame kicks off the timed question loop. The request returns
// as soon as the loop is accepted; progress is observed over the socket.
func (a *API) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if models.CanonicalCode(req.Code) == "" {
		respondError(w, http.StatusBadRequest, "session_code is required")
		return
	}

	err := a.game.StartGame(r.Context(), req.Code)
	switch {
	case err == nil:
		respondMessage(w, http.StatusOK, "game started")
	case errors.Is(err, game.ErrAlreadyRunning):
		respondError(w, http.StatusBadRequest, "game already running")
	case errors.Is(err, game.ErrNoQuestions):
		respondError(w, http.StatusBadRequest, "no questions in this quiz")
	case errors.Is(err, session.ErrNotFound):
		respondError(w, http.StatusNotFound, "session not found")
	default:
		log.Error().Err(err).Str("session_code", req.Code).Msg("failed to start game")
		respondError(w, http.StatusInternalServerError, "failed to start game")
	}
}

type updateStatusRequest struct {
	Status models.SessionStatus `json:"status"`
}

// handleUpdateStatus lets the admin force a lifecycle transition, typically
// to FINISHED to stop a running game. The loop notices the change at its
// next question boundary. ACTIVE is only ever entered through game start.
func (a *API) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	var req updateStatusRequest
	if !decodeBody(w, r, &req) {
		return
	}

	switch req.Status {
	case models.SessionStatusWaiting, models.SessionStatusFinished, models.SessionStatusCompleted:
	case models.SessionStatusActive:
		respondError(w, http.StatusBadRequest, "use game start to activate a session")
		return
	default:
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := a.sessions.UpdateStatus(r.Context(), code, req.Status); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("failed to update status")
		respondError(w, http.StatusInternalServerError, "failed to update status")
		return
	}
	respondMessage(w, http.StatusOK, "status updated")
}

// handleResetSession wipes a session back to the lobby: scores and
// responses are deleted, status returns to WAITING, and the room is told
// to reload.
func (a *API) handleResetSession(w http.ResponseWriter, r *http.Request) {
	code := models.CanonicalCode(chi.URLParam(r, "code"))
	ctx := r.Context()

	if _, err := a.sessions.GetByCode(ctx, code); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("failed to load session")
		respondError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}

	if err := a.responses.DeleteBySession(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete responses")
		respondError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	if err := a.participants.DeleteBySession(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete participants")
		respondError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	if err := a.sessions.Reset(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to reset session")
		respondError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}

	a.broadcast(ctx, code, events.TypeSessionReset, struct{}{})
	respondMessage(w, http.StatusOK, "session reset")
}

// handleDeleteSession permanently removes a session and everything under
// it. Connected clients get a force-stop before the data goes away.
func (a *API) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	code := models.CanonicalCode(chi.URLParam(r, "code"))
	ctx := r.Context()

	if _, err := a.sessions.GetByCode(ctx, code); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", code).Msg("failed to load session")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	a.broadcast(ctx, code, events.TypeGameForceStop, struct{}{})

	if err := a.responses.DeleteBySession(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete responses")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if err := a.participants.DeleteBySession(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete participants")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if err := a.questions.DeleteBySession(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete questions")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	if err := a.sessions.Delete(ctx, code); err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to delete session")
		respondError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	respondMessage(w, http.StatusOK, "session deleted")
}
