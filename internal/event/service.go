package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aryankodi12/AmazonWebScraper/internal/storage/mq"
)

// AlertMailer delivers a price drop alert to the configured recipient.
type AlertMailer interface {
	SendPriceDropAlert(ctx context.Context, ev PriceDroppedEvent) error
}

// Service consumes price dropped events and delivers the alerts.
type Service struct {
	logger     *slog.Logger
	mqConsumer mq.Consumer
	mailer     AlertMailer
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	mailer AlertMailer,
) *Service {
	return &Service{
		logger:     logger,
		mqConsumer: mqConsumer,
		mailer:     mailer,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(
		TopicPriceDropped,
		func(ctx context.Context, topic string, payload []byte) error {
			var ev PriceDroppedEvent
			if err := json.Unmarshal(payload, &ev); err != nil {
				return fmt.Errorf("unmarshal price dropped event: %w", err)
			}

			if err := s.handlePriceDroppedEvent(ctx, ev); err != nil {
				return fmt.Errorf("handle price dropped event: %w", err)
			}

			return nil
		},
	); err != nil {
		return nil, fmt.Errorf("register price dropped event handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}
