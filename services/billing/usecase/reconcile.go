package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/metrics"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/pkg/retry"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/webhook"
	"github.com/shopspring/decimal"
)

// amountTolerance is the largest accepted gap between the paid and the stored amount
var amountTolerance = decimal.NewFromInt(1)

const (
	defaultLockWait = 2 * time.Second
	defaultLockPoll = 50 * time.Millisecond
)

var errLockBusy = errors.New("order lock still held by another delivery")

// reconcileUC implements billing.ReconcileUC
type reconcileUC struct {
	cfg      *models.Config
	txnRepo  billing.TransactionRepo
	userRepo billing.UserRepo
	lock     billing.OrderLock
	gateway  billing.PaymentGateway
	verifier *webhook.Verifier
	fanout   *fanout
	rate     decimal.Decimal
	now      func() time.Time
	lockWait time.Duration
	lockPoll time.Duration
}

// NewReconcileUC creates the reconciliation engine
func NewReconcileUC(
	cfg *models.Config,
	txnRepo billing.TransactionRepo,
	userRepo billing.UserRepo,
	notifRepo billing.NotificationRepo,
	lock billing.OrderLock,
	gateway billing.PaymentGateway,
	publisher billing.EventPublisher,
	retrier *retry.Retrier,
) (billing.ReconcileUC, error) {
	rate, err := parseExchangeRate(cfg.Billing.ExchangeRate)
	if err != nil {
		return nil, err
	}
	return &reconcileUC{
		cfg:      cfg,
		txnRepo:  txnRepo,
		userRepo: userRepo,
		lock:     lock,
		gateway:  gateway,
		verifier: webhook.NewVerifier(cfg.PaymentGateway.ChecksumKey),
		fanout:   newFanout(publisher, notifRepo, retrier),
		rate:     rate,
		now:      models.Now,
		lockWait: defaultLockWait,
		lockPoll: defaultLockPoll,
	}, nil
}

// HandleWebhook parses and verifies a raw gateway callback, then reconciles it
func (uc *reconcileUC) HandleWebhook(ctx context.Context, body []byte, signatureHeader string) models.ReconcileResult {
	env, err := webhook.Parse(body)
	if err != nil {
		logger.Warn("Rejected webhook", logger.String("reason", string(models.ReasonMalformedPayload)), logger.Err(err))
		return uc.record(models.ReconcileResult{Reason: models.ReasonMalformedPayload})
	}
	if err := uc.verifier.Verify(env, signatureHeader); err != nil {
		logger.Warn("Rejected webhook", logger.String("reason", string(models.ReasonInvalidSignature)), logger.Err(err))
		return uc.record(models.ReconcileResult{Reason: models.ReasonInvalidSignature})
	}
	return uc.Reconcile(ctx, webhook.Normalize(env))
}

// Reconcile applies a verified gateway event to the ledger at most once
func (uc *reconcileUC) Reconcile(ctx context.Context, event models.GatewayEvent) models.ReconcileResult {
	return uc.record(uc.reconcile(ctx, event))
}

func (uc *reconcileUC) record(result models.ReconcileResult) models.ReconcileResult {
	metrics.ReconcileResult(string(result.Reason))
	if result.Applied {
		metrics.CreditsApplied(result.Credit)
	}
	return result
}

func (uc *reconcileUC) reconcile(ctx context.Context, event models.GatewayEvent) models.ReconcileResult {
	if !event.HasOrderCode || !event.HasAmount {
		return reject(event, models.ReasonMissingFields)
	}
	if !event.Success() {
		return reject(event, models.ReasonNonSuccessStatus)
	}

	release, err := uc.acquireLock(ctx, event.OrderCode)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return reject(event, models.ReasonInProgress)
	case err != nil:
		logger.Warn("Order lock unavailable, reconciling without it",
			logger.Int64("order_code", event.OrderCode),
			logger.Err(err))
	default:
		defer release()
	}

	txn, err := uc.txnRepo.GetTransactionByOrderCode(ctx, event.OrderCode)
	if err != nil {
		if errors.Is(err, billing.ErrTransactionNotFound) {
			return reject(event, models.ReasonTransactionNotFound)
		}
		return storeError(event, err)
	}

	if txn.Status == models.TransactionStatusCompleted {
		return reject(event, models.ReasonAlreadyProcessed)
	}
	if txn.Status != models.TransactionStatusPending || !txn.PaymentMethod.HostedLink() {
		return reject(event, models.ReasonTransactionNotFound)
	}

	if event.TransferAmount.Sub(decimal.NewFromInt(txn.Amount)).Abs().GreaterThan(amountTolerance) {
		logger.Warn("Webhook amount does not match transaction",
			logger.Int64("order_code", event.OrderCode),
			logger.String("transaction_id", txn.ID),
			logger.Int64("expected", txn.Amount),
			logger.String("received", event.TransferAmount.String()))
		return reject(event, models.ReasonAmountMismatch)
	}

	if _, err := uc.userRepo.GetUserByID(ctx, txn.UserID); err != nil {
		if errors.Is(err, billing.ErrUserNotFound) {
			return reject(event, models.ReasonUserNotFound)
		}
		return storeError(event, err)
	}

	credit := creditFor(txn.Amount, uc.rate)
	paidAt := event.PaidAt
	if paidAt.IsZero() {
		paidAt = uc.now()
	}

	balance, err := uc.txnRepo.SettleTransaction(ctx, txn.ID, txn.UserID, credit, models.Settlement{
		GatewayReference: event.Reference,
		Gateway:          uc.gateway.Name(),
		PaidAt:           paidAt,
	})
	switch {
	case errors.Is(err, billing.ErrAlreadyProcessed):
		return reject(event, models.ReasonAlreadyProcessed)
	case errors.Is(err, billing.ErrUserNotFound):
		return reject(event, models.ReasonUserNotFound)
	case err != nil:
		return storeError(event, err)
	}

	logger.Info("Deposit reconciled",
		logger.Int64("order_code", event.OrderCode),
		logger.String("transaction_id", txn.ID),
		logger.String("user_id", txn.UserID),
		logger.Int64("credit", credit),
		logger.Int64("balance", balance))

	// Ledger is committed; fan-out outlives the request context.
	uc.fanout.run(context.WithoutCancel(ctx), settlement{
		txn:     txn,
		credit:  credit,
		balance: balance,
		paidAt:  paidAt,
	})

	return models.ReconcileResult{
		Applied:       true,
		Reason:        models.ReasonApplied,
		TransactionID: txn.ID,
		Credit:        credit,
		Balance:       balance,
	}
}

// acquireLock waits up to lockWait for the order lock. A lock that stays busy
// is reported as an error so the caller settles without it and relies on the
// conditional update.
func (uc *reconcileUC) acquireLock(ctx context.Context, orderCode int64) (func(), error) {
	deadline := time.Now().Add(uc.lockWait)
	for {
		release, acquired, err := uc.lock.Acquire(ctx, orderCode)
		if err != nil {
			return nil, err
		}
		if acquired {
			return release, nil
		}
		if !time.Now().Before(deadline) {
			return nil, errLockBusy
		}

		timer := time.NewTimer(uc.lockPoll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func reject(event models.GatewayEvent, reason models.ReconcileReason) models.ReconcileResult {
	logger.Warn("Webhook not applied",
		logger.Int64("order_code", event.OrderCode),
		logger.String("reason", string(reason)),
		logger.String("code", event.Code))
	return models.ReconcileResult{Reason: reason}
}

func storeError(event models.GatewayEvent, err error) models.ReconcileResult {
	logger.Error("Webhook not applied",
		logger.Int64("order_code", event.OrderCode),
		logger.String("reason", string(models.ReasonStoreError)),
		logger.Err(err))
	return models.ReconcileResult{Reason: models.ReasonStoreError}
}
