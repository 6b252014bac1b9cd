package service

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/engtrack/internal/dto"
	"github.com/noah-isme/engtrack/internal/observability"
)

// ChangeNotifier broadcasts committed activity mutations.
type ChangeNotifier interface {
	Notify(ctx context.Context, event dto.ActivityChangeEvent)
}

type eventPublisher interface {
	Publish(subject string, data []byte) error
}

type natsChangeNotifier struct {
	publisher eventPublisher
	subject   string
	logger    zerolog.Logger
}

type noopChangeNotifier struct{}

func (noopChangeNotifier) Notify(context.Context, dto.ActivityChangeEvent) {}

// NewChangeNotifier publishes events on the NATS subject. Without a connection events are dropped.
func NewChangeNotifier(conn *nats.Conn, subject string, logger zerolog.Logger) ChangeNotifier {
	if conn == nil || subject == "" {
		return noopChangeNotifier{}
	}
	return newChangeNotifier(conn, subject, logger)
}

func newChangeNotifier(publisher eventPublisher, subject string, logger zerolog.Logger) *natsChangeNotifier {
	return &natsChangeNotifier{
		publisher: publisher,
		subject:   subject,
		logger:    logger.With().Str("component", "change_notifier").Logger(),
	}
}

// Notify never fails the caller; publish errors are only logged.
func (n *natsChangeNotifier) Notify(ctx context.Context, event dto.ActivityChangeEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Str("type", event.Type).Msg("failed to encode change event")
		observability.ChangeEvents().WithLabelValues(event.Type, "error").Inc()
		return
	}

	if err := n.publisher.Publish(n.subject, payload); err != nil {
		n.logger.Warn().Err(err).Str("type", event.Type).Uint("activity_id", event.ActivityID).Msg("failed to publish change event")
		observability.ChangeEvents().WithLabelValues(event.Type, "error").Inc()
		return
	}

	observability.ChangeEvents().WithLabelValues(event.Type, "published").Inc()
}
