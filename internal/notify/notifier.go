// Package notify defines the alert contract and its delivery adapters.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Alert carries the data needed to tell the user a tracked product is at or
// below its target price.
type Alert struct {
	ProductID    uuid.UUID
	ProductRef   string
	Title        string
	CurrentPrice float64
	TargetPrice  float64
	ObservedAt   time.Time
}

// Notifier delivers a price drop alert. Delivery failures are reported to the
// caller but never undo the price update that triggered them.
type Notifier interface {
	NotifyPriceDrop(ctx context.Context, alert Alert) error
}
