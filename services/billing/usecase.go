package billing

import (
	"context"

	"github.com/piresc/vidcredit/internal/pkg/models"
)

// DepositUC starts deposits
//
//go:generate mockgen -destination=mocks/mock_usecase.go -package=mocks github.com/piresc/vidcredit/services/billing DepositUC,ReconcileUC,LedgerUC,NotificationUC
type DepositUC interface {
	CreateDeposit(ctx context.Context, userID string, req models.DepositRequest) (*models.DepositResponse, error)
}

// ReconcileUC applies gateway confirmations to the ledger. It never returns an
// error: every outcome is a result the caller acknowledges.
type ReconcileUC interface {
	HandleWebhook(ctx context.Context, body []byte, signatureHeader string) models.ReconcileResult
	Reconcile(ctx context.Context, event models.GatewayEvent) models.ReconcileResult
}

// LedgerUC serves a user's balance and history
type LedgerUC interface {
	GetBalance(ctx context.Context, userID string) (*models.BalanceResponse, error)
	ListTransactions(ctx context.Context, userID string, page, limit int) (*models.TransactionPage, error)
	GetDeposit(ctx context.Context, userID, id string) (*models.Transaction, error)
}

// NotificationUC serves a user's notifications
type NotificationUC interface {
	ListNotifications(ctx context.Context, userID string, page, limit int) (*models.NotificationPage, error)
	MarkRead(ctx context.Context, userID, id string) error
}
