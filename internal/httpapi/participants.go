package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/quizdeck/quizdeck/internal/quiz/participant"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/rs/zerolog/log"
)

type joinSessionRequest struct {
	SessionCode string `json:"session_code"`
	Name        string `json:"name"`
}

// handleJoinSession registers a player in a session. Joining is allowed at
// any point in the lifecycle; a mid-game joiner catches up via sync:state.
func (a *API) handleJoinSession(w http.ResponseWriter, r *http.Request) {
	var req joinSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if models.CanonicalCode(req.SessionCode) == "" || req.Name == "" {
		respondError(w, http.StatusBadRequest, "session_code and name are required")
		return
	}

	if _, err := a.sessions.GetByCode(r.Context(), req.SessionCode); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			respondError(w, http.StatusNotFound, "session not found")
			return
		}
		log.Error().Err(err).Str("session_code", req.SessionCode).Msg("failed to load session")
		respondError(w, http.StatusInternalServerError, "failed to join session")
		return
	}

	p, err := a.participants.Create(r.Context(), participant.CreateParticipantRequest{
		SessionCode: req.SessionCode,
		Name:        req.Name,
	})
	if err != nil {
		log.Error().Err(err).Str("session_code", req.SessionCode).Msg("failed to create participant")
		respondError(w, http.StatusInternalServerError, "failed to join session")
		return
	}
	respondData(w, http.StatusCreated, p)
}

// handleLeaderboard returns the full score ordering for a session.
func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	participants, err := a.participants.ListTop(r.Context(), code, 0)
	if err != nil {
		log.Error().Err(err).Str("session_code", code).Msg("failed to load leaderboard")
		respondError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if participants == nil {
		participants = []models.Participant{}
	}
	respondData(w, http.StatusOK, participants)
}
