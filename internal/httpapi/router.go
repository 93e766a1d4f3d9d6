package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Routes builds the REST router.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", a.handleCreateSession)
			r.Get("/", a.handleListSessions)
			r.Post("/start", a.handleStartGame)

			r.Route("/{code}", func(r chi.Router) {
				r.Get("/", a.handleGetSession)
				r.Patch("/status", a.handleUpdateStatus)
				r.Post("/reset", a.handleResetSession)
				r.Delete("/", a.handleDeleteSession)

				r.Get("/questions", a.handleListQuestions)
				r.Post("/questions", a.handleCreateQuestion)
				r.Get("/leaderboard", a.handleLeaderboard)
			})
		})

		r.Delete("/questions/{id}", a.handleDeleteQuestion)

		r.Post("/participants", a.handleJoinSession)
		r.Post("/responses", a.handleSubmitResponse)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/verify-passcode", a.handleVerifyPasscode)
			r.Get("/stats", a.handleAdminStats)
		})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]string{"status": "ok"})
}
