package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Service ties the connection manager, the bus consumer, and the HTTP
// handler together.
type Service struct {
	manager  *ConnectionManager
	consumer *EventConsumer
	handler  *WebSocketHandler
}

// ServiceConfig holds configuration for the gateway service.
type ServiceConfig struct {
	Connection ConnectionConfig
	Consumer   ConsumerConfig
}

// DefaultServiceConfig returns default gateway configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Connection: DefaultConnectionConfig(),
		Consumer:   DefaultConsumerConfig(),
	}
}

// NewService creates a gateway service wired to the given resyncer.
func NewService(config ServiceConfig, resyncer StateResyncer) (*Service, error) {
	manager := NewConnectionManager(config.Connection)

	consumer, err := NewEventConsumer(config.Consumer, manager)
	if err != nil {
		return nil, fmt.Errorf("create event consumer: %w", err)
	}

	return &Service{
		manager:  manager,
		consumer: consumer,
		handler:  NewWebSocketHandler(manager, resyncer),
	}, nil
}

// Start runs the manager and the consumer until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting gateway service")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.manager.Start(ctx)
		return nil
	})
	g.Go(func() error {
		return s.consumer.Start(ctx)
	})
	return g.Wait()
}

// WebSocketHandler returns the HTTP handler for /ws.
func (s *Service) WebSocketHandler() http.HandlerFunc {
	return s.handler.HandleWebSocket
}

// StatsHandler returns the HTTP handler for gateway statistics.
func (s *Service) StatsHandler() http.HandlerFunc {
	return s.handler.HandleStats
}

// Manager exposes the connection manager for room-count queries.
func (s *Service) Manager() *ConnectionManager {
	return s.manager
}
