package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/quizdeck/quizdeck/internal/broadcast"
	"github.com/rs/zerolog/log"
)

// EventConsumer subscribes to the bus and routes room events to the
// connection manager.
type EventConsumer struct {
	nc      *nats.Conn
	manager *ConnectionManager
	config  ConsumerConfig

	sub *nats.Subscription
}

// ConsumerConfig holds configuration for the event consumer.
type ConsumerConfig struct {
	NATSUrl       string
	Subject       string // wildcard, e.g. "quiz.events.>"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultConsumerConfig returns default consumer configuration.
func DefaultConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		NATSUrl:       nats.DefaultURL,
		Subject:       "quiz.events.>",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NewEventConsumer creates a consumer connected to NATS.
func NewEventConsumer(config ConsumerConfig, manager *ConnectionManager) (*EventConsumer, error) {
	opts := []nats.Option{
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	nc, err := nats.Connect(config.NATSUrl, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &EventConsumer{
		nc:      nc,
		manager: manager,
		config:  config,
	}, nil
}

// Start subscribes to room events and blocks until ctx is cancelled.
// Events are ephemeral broadcasts: a client that was offline catches up
// through sync:state, not through replay.
func (ec *EventConsumer) Start(ctx context.Context) error {
	sub, err := ec.nc.Subscribe(ec.config.Subject, ec.handleMessage)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", ec.config.Subject, err)
	}
	ec.sub = sub

	log.Info().Str("subject", ec.config.Subject).Msg("event consumer started")

	<-ctx.Done()
	log.Info().Msg("event consumer shutting down")
	return ec.Stop()
}

func (ec *EventConsumer) handleMessage(msg *nats.Msg) {
	var envelope broadcast.Envelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("failed to unmarshal event envelope")
		return
	}

	ec.manager.BroadcastToRoom(envelope.SessionCode, &Event{
		ID:          envelope.EventID,
		SessionCode: envelope.SessionCode,
		Type:        envelope.EventType,
		Timestamp:   envelope.Timestamp,
		Data:        envelope.Payload,
	})
}

// Stop unsubscribes and closes the NATS connection.
func (ec *EventConsumer) Stop() error {
	if ec.sub != nil {
		if err := ec.sub.Unsubscribe(); err != nil {
			log.Error().Err(err).Msg("failed to unsubscribe")
		}
		ec.sub = nil
	}
	ec.nc.Close()
	return nil
}
