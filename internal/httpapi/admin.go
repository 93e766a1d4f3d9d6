package httpapi

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/quizdeck/quizdeck/internal/models"
	"github.com/rs/zerolog/log"
)

type verifyPasscodeRequest struct {
	Passcode string `json:"passcode"`
}

// handleVerifyPasscode gates the admin console. An unset passcode rejects
// everything rather than letting everyone in.
func (a *API) handleVerifyPasscode(w http.ResponseWriter, r *http.Request) {
	var req verifyPasscodeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if a.cfg.AdminPasscode == "" ||
		subtle.ConstantTimeCompare([]byte(req.Passcode), []byte(a.cfg.AdminPasscode)) != 1 {
		respondError(w, http.StatusUnauthorized, "invalid passcode")
		return
	}
	respondMessage(w, http.StatusOK, "passcode verified")
}

type adminStats struct {
	TotalSessions     int    `json:"total_sessions"`
	ActiveSessions    int    `json:"active_sessions"`
	TotalParticipants int    `json:"total_participants"`
	Uptime            string `json:"uptime"`
}

func (a *API) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := a.sessions.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list sessions for stats")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	active := 0
	for _, s := range sessions {
		if s.Status == models.SessionStatusActive {
			active++
		}
	}

	participants, err := a.participants.Count(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to count participants for stats")
		respondError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}

	respondData(w, http.StatusOK, adminStats{
		TotalSessions:     len(sessions),
		ActiveSessions:    active,
		TotalParticipants: participants,
		Uptime:            time.Since(a.startedAt).Round(time.Second).String(),
	})
}
