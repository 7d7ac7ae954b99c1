package events

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/georgemunganga/qrpay/internal/config"
)

// Open returns a RabbitMQ publisher when a broker URL is configured and the log publisher
// otherwise.
func Open(cfg config.Config) (Publisher, error) {
	if cfg.RabbitURL == "" {
		return NewLogPublisher(), nil
	}
	return NewRabbitPublisher(cfg.RabbitURL, cfg.EventsExchange)
}

// Emit publishes ev and only logs a failure.
func Emit(ctx context.Context, p Publisher, ev Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		log.Warn().Err(err).Str("event", ev.Name).Str("transaction_id", ev.TransactionID).Msg("event not published")
	}
}
