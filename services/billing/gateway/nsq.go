package gateway

import (
	"context"
	"fmt"

	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
)

// Producer is the publishing side of an NSQ producer
type Producer interface {
	Publish(topic string, message interface{}) error
}

// NSQPublisher publishes billing events on NSQ topics
type NSQPublisher struct {
	producer Producer
}

// NewNSQPublisher creates a new NSQ publisher
func NewNSQPublisher(producer Producer) *NSQPublisher {
	return &NSQPublisher{producer: producer}
}

// PublishUserEvent publishes event on the shared user events topic
func (p *NSQPublisher) PublishUserEvent(ctx context.Context, event models.UserEvent) error {
	if err := p.producer.Publish(constants.TopicUserEvents, event); err != nil {
		logger.Error("Failed to publish user event",
			logger.String("user_id", event.UserID),
			logger.String("event", event.Event),
			logger.Err(err))
		return fmt.Errorf("failed to publish user event: %w", err)
	}
	return nil
}

// PublishTransactionCompleted publishes a settled deposit for downstream consumers
func (p *NSQPublisher) PublishTransactionCompleted(ctx context.Context, event models.TransactionCompletedEvent) error {
	if err := p.producer.Publish(constants.TopicTransactionCompleted, event); err != nil {
		logger.Error("Failed to publish transaction completed event",
			logger.String("transaction_id", event.TransactionID),
			logger.Err(err))
		return fmt.Errorf("failed to publish transaction completed event: %w", err)
	}
	return nil
}
