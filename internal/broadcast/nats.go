package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/quizdeck/quizdeck/internal/game/events"
	"github.com/rs/zerolog/log"
)

// NATSConfig holds connection settings for the event bus.
type NATSConfig struct {
	URL           string
	SubjectPrefix string // e.g. "quiz.events"
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns the default bus configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "quiz.events",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// NATSPublisher publishes room events to quiz.events.<CODE> subjects.
// Events are ephemeral realtime broadcasts, so this uses plain NATS
// publish rather than a persisted stream.
type NATSPublisher struct {
	nc     *nats.Conn
	config NATSConfig
}

func NewNATSPublisher(config NATSConfig) (*NATSPublisher, error) {
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

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &NATSPublisher{nc: nc, config: config}, nil
}

// Broadcast publishes one envelope for the session's room.
func (p *NATSPublisher) Broadcast(ctx context.Context, code string, eventType events.Type, payload any) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := Envelope{
		EventID:     uuid.New().String(),
		EventType:   eventType,
		SessionCode: code,
		Timestamp:   time.Now(),
		Payload:     payloadBytes,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.config.SubjectPrefix, code)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().
		Str("subject", subject).
		Str("event_type", string(eventType)).
		Msg("event published")
	return nil
}

// Close drains the NATS connection.
func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Close()
	}
}
