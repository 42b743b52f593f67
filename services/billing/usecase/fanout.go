package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/metrics"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/pkg/retry"
	"github.com/piresc/vidcredit/services/billing"
)

// Fan-out step names, used in logs and the failure metric
const (
	stepTransactionCompleted = "transaction_completed"
	stepBalanceChanged       = "balance_changed"
	stepNotification         = "notification"
)

// settlement is a completed deposit handed to the fan-out
type settlement struct {
	txn     *models.Transaction
	credit  int64
	balance int64
	paidAt  time.Time
}

// fanout delivers the side effects of a settled deposit. Each step is retried
// on its own and a failing step never stops the next one.
type fanout struct {
	publisher billing.EventPublisher
	notifRepo billing.NotificationRepo
	retrier   *retry.Retrier
	now       func() time.Time
}

func newFanout(publisher billing.EventPublisher, notifRepo billing.NotificationRepo, retrier *retry.Retrier) *fanout {
	if retrier == nil {
		retrier = retry.NewWithDefaults(nil)
	}
	return &fanout{
		publisher: publisher,
		notifRepo: notifRepo,
		retrier:   retrier,
		now:       models.Now,
	}
}

func (f *fanout) run(ctx context.Context, s settlement) {
	f.step(ctx, stepTransactionCompleted, s, f.transactionCompleted(s))
	f.step(ctx, stepBalanceChanged, s, f.balanceChanged(s))
	f.step(ctx, stepNotification, s, f.notification(s))
}

func (f *fanout) step(ctx context.Context, name string, s settlement, fn retry.RetryableFunc) {
	if err := f.retrier.Execute(ctx, name, fn); err != nil {
		metrics.FanoutFailure(name)
		logger.Error("Fan-out step failed",
			logger.String("step", name),
			logger.String("transaction_id", s.txn.ID),
			logger.String("user_id", s.txn.UserID),
			logger.Err(err))
	}
}

func (f *fanout) transactionCompleted(s settlement) retry.RetryableFunc {
	completed := models.TransactionCompletedEvent{
		TransactionID: s.txn.ID,
		UserID:        s.txn.UserID,
		ReferenceCode: s.txn.ReferenceCode,
		Amount:        s.txn.Amount,
		Credit:        s.credit,
		Status:        models.TransactionStatusCompleted,
		PaidAt:        s.paidAt,
	}
	if s.txn.OrderCode != nil {
		completed.OrderCode = *s.txn.OrderCode
	}

	return func(ctx context.Context) error {
		event, err := f.userEvent(s.txn.UserID, constants.EventTransactionCompleted, completed)
		if err != nil {
			return retry.Permanent(err)
		}
		if err := f.publisher.PublishUserEvent(ctx, event); err != nil {
			return err
		}
		return f.publisher.PublishTransactionCompleted(ctx, completed)
	}
}

func (f *fanout) balanceChanged(s settlement) retry.RetryableFunc {
	changed := models.BalanceChangedEvent{
		Balance: s.balance,
		Delta:   s.credit,
		Message: fmt.Sprintf("%d credits added to your balance", s.credit),
	}

	return func(ctx context.Context) error {
		event, err := f.userEvent(s.txn.UserID, constants.EventBalanceChanged, changed)
		if err != nil {
			return retry.Permanent(err)
		}
		return f.publisher.PublishUserEvent(ctx, event)
	}
}

func (f *fanout) notification(s settlement) retry.RetryableFunc {
	id := uuid.New().String()

	return func(ctx context.Context) error {
		data, err := json.Marshal(models.PaymentNotificationData{
			TransactionID: s.txn.ID,
			Amount:        s.txn.Amount,
			Credit:        s.credit,
		})
		if err != nil {
			return retry.Permanent(err)
		}
		return f.notifRepo.CreateNotification(ctx, &models.Notification{
			ID:      id,
			UserID:  s.txn.UserID,
			Type:    models.NotificationPaymentSuccess,
			Title:   "Payment successful",
			Message: fmt.Sprintf("Your deposit of %d was received and %d credits were added.", s.txn.Amount, s.credit),
			Data:    data,
		})
	}
}

func (f *fanout) userEvent(userID, event string, payload interface{}) (models.UserEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.UserEvent{}, fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	return models.UserEvent{
		UserID:     userID,
		Event:      event,
		Data:       data,
		OccurredAt: f.now(),
	}, nil
}
