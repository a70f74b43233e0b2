package event

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const TopicPriceDropped = "product.price_dropped"

// PriceDroppedEvent is published whenever a refresh observes a product at or
// below its target price.
type PriceDroppedEvent struct {
	ProductID    string    `json:"product_id"`
	ProductRef   string    `json:"product_ref"`
	Title        string    `json:"title"`
	CurrentPrice float64   `json:"current_price"`
	TargetPrice  float64   `json:"target_price"`
	ObservedAt   time.Time `json:"observed_at"`
}

func (s *Service) handlePriceDroppedEvent(ctx context.Context, ev PriceDroppedEvent) error {
	s.logger.InfoContext(ctx, "handling price dropped event",
		slog.String("product_id", ev.ProductID),
		slog.String("product_ref", ev.ProductRef),
		slog.Float64("current_price", ev.CurrentPrice),
	)

	if err := s.mailer.SendPriceDropAlert(ctx, ev); err != nil {
		return fmt.Errorf("send price drop alert: %w", err)
	}

	return nil
}
