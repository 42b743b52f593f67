package billing

import (
	"context"

	"github.com/piresc/vidcredit/internal/pkg/models"
)

// TransactionRepo defines the ledger operations on deposit transactions
//
//go:generate mockgen -destination=mocks/mock_repository.go -package=mocks github.com/piresc/vidcredit/services/billing TransactionRepo,UserRepo,NotificationRepo,OrderLock
type TransactionRepo interface {
	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	GetTransactionByOrderCode(ctx context.Context, orderCode int64) (*models.Transaction, error)
	ReserveOrderCode(ctx context.Context, id string, orderCode int64) error
	AttachGatewayLink(ctx context.Context, id string, link models.GatewayLink) error
	ListTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, int, error)
	// SettleTransaction marks a pending transaction completed and credits the
	// user in one database transaction, returning the new balance.
	SettleTransaction(ctx context.Context, id, userID string, credit int64, settlement models.Settlement) (int64, error)
}

// UserRepo defines read access to credit holders
type UserRepo interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// NotificationRepo defines the durable notification store
type NotificationRepo interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit, offset int) ([]*models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
}

// OrderLock serializes reconciliation per gateway order code
type OrderLock interface {
	// Acquire returns acquired=false without error when another holder has the lock
	Acquire(ctx context.Context, orderCode int64) (release func(), acquired bool, err error)
}
