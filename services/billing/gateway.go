package billing

import (
	"context"

	"github.com/piresc/vidcredit/internal/pkg/models"
)

// PaymentGateway creates hosted payment links
//
//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks github.com/piresc/vidcredit/services/billing PaymentGateway,EventPublisher
type PaymentGateway interface {
	Name() string
	CreatePaymentLink(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error)
}

// EventPublisher puts billing events on the event bus
type EventPublisher interface {
	PublishUserEvent(ctx context.Context, event models.UserEvent) error
	PublishTransactionCompleted(ctx context.Context, event models.TransactionCompletedEvent) error
}
