package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/quizdeck/quizdeck/internal/broadcast"
	"github.com/quizdeck/quizdeck/internal/game"
	"github.com/quizdeck/quizdeck/internal/gateway"
	"github.com/quizdeck/quizdeck/internal/httpapi"
	"github.com/quizdeck/quizdeck/internal/quiz/participant"
	"github.com/quizdeck/quizdeck/internal/quiz/question"
	"github.com/quizdeck/quizdeck/internal/quiz/response"
	"github.com/quizdeck/quizdeck/internal/quiz/session"
	"github.com/quizdeck/quizdeck/internal/ranking"
)

// correctAnswerPoints is the flat award applied by the default scorer.
const correctAnswerPoints = 100

type Services struct {
	API         *httpapi.API
	Gateway     *gateway.Service
	Broadcaster *broadcast.NATSPublisher
}

// setupServices wires the dependency chain:
// repositories → ranking → orchestrator/resyncer → bus → gateway → API.
// ctx is the process context; game loops started over HTTP outlive their
// request and stop with it.
func setupServices(ctx context.Context, database *sql.DB, config *Config) (*Services, error) {
	sessionRepo := session.NewRepository(database)
	questionRepo := question.NewRepository(database)
	participantRepo := participant.NewRepository(database)
	responseRepo := response.NewRepository(database)

	rankingService := ranking.NewService(participantRepo)

	natsConfig := broadcast.DefaultNATSConfig()
	natsConfig.URL = config.natsURL()
	publisher, err := broadcast.NewNATSPublisher(natsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}

	orchestrator := game.New(ctx, sessionRepo, questionRepo, rankingService, publisher, config.gameConfig())
	resyncer := game.NewResyncer(sessionRepo, questionRepo, rankingService)

	gatewayConfig := gateway.DefaultServiceConfig()
	gatewayConfig.Consumer.NATSUrl = config.natsURL()
	gatewayService, err := gateway.NewService(gatewayConfig, resyncer)
	if err != nil {
		publisher.Close()
		return nil, fmt.Errorf("failed to create gateway: %w", err)
	}

	api := httpapi.New(
		sessionRepo,
		questionRepo,
		participantRepo,
		responseRepo,
		orchestrator,
		publisher,
		response.FixedScorer{Award: correctAnswerPoints},
		httpapi.Config{AdminPasscode: getEnv("ADMIN_PASSCODE", "")},
	)

	return &Services{
		API:         api,
		Gateway:     gatewayService,
		Broadcaster: publisher,
	}, nil
}
