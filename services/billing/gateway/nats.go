package gateway

import (
	"context"
	"fmt"

	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
	natspkg "github.com/piresc/vidcredit/internal/pkg/nats"
)

// NATSPublisher publishes billing events on core NATS
type NATSPublisher struct {
	client *natspkg.Client
}

// NewNATSPublisher creates a new NATS publisher
func NewNATSPublisher(client *natspkg.Client) *NATSPublisher {
	return &NATSPublisher{client: client}
}

// UserSubject is the subject carrying live events for userID
func UserSubject(userID string) string {
	return constants.SubjectUserEventPrefix + "." + userID
}

// PublishUserEvent publishes event on the user's subject
func (p *NATSPublisher) PublishUserEvent(ctx context.Context, event models.UserEvent) error {
	if err := p.client.PublishJSON(UserSubject(event.UserID), event); err != nil {
		logger.Error("Failed to publish user event",
			logger.String("user_id", event.UserID),
			logger.String("event", event.Event),
			logger.Err(err))
		return fmt.Errorf("failed to publish user event: %w", err)
	}
	return nil
}

// PublishTransactionCompleted publishes a settled deposit for downstream consumers
func (p *NATSPublisher) PublishTransactionCompleted(ctx context.Context, event models.TransactionCompletedEvent) error {
	if err := p.client.PublishJSON(constants.SubjectTransactionCompleted, event); err != nil {
		logger.Error("Failed to publish transaction completed event",
			logger.String("transaction_id", event.TransactionID),
			logger.Err(err))
		return fmt.Errorf("failed to publish transaction completed event: %w", err)
	}
	return nil
}
