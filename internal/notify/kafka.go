package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aryankodi12/AmazonWebScraper/internal/event"
	"github.com/aryankodi12/AmazonWebScraper/internal/storage/mq"
	"github.com/aryankodi12/AmazonWebScraper/pkg/ptr"
)

var _ Notifier = (*KafkaNotifier)(nil)

// KafkaNotifier publishes the alert as a price dropped event. The event
// service consumes it and handles the actual delivery, so a slow or failing
// mail server never stalls a refresh.
type KafkaNotifier struct {
	producer mq.Producer
}

func NewKafkaNotifier(producer mq.Producer) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

func (n *KafkaNotifier) NotifyPriceDrop(ctx context.Context, alert Alert) error {
	ev := event.PriceDroppedEvent{
		ProductID:    alert.ProductID.String(),
		ProductRef:   alert.ProductRef,
		Title:        alert.Title,
		CurrentPrice: alert.CurrentPrice,
		TargetPrice:  alert.TargetPrice,
		ObservedAt:   alert.ObservedAt,
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	// Partition by product id so alerts for one product stay ordered.
	if err := n.producer.Produce(ctx, mq.ProduceMsg{
		Topic:        event.TopicPriceDropped,
		Headers:      mq.BuildHeaders(ctx),
		Payload:      payload,
		PartitionKey: ptr.New(alert.ProductID.String()),
	}); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	return nil
}
