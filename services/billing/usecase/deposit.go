package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/metrics"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/utils"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/shopspring/decimal"
)

const (
	orderCodeAttempts    = 3
	gatewayDescMaxLength = 25
)

// depositUC implements billing.DepositUC
type depositUC struct {
	cfg       *models.Config
	txnRepo   billing.TransactionRepo
	gateway   billing.PaymentGateway
	rate      decimal.Decimal
	orderCode func() int64
	now       func() time.Time
}

// NewDepositUC creates the deposit initiator. The exchange rate must be a
// positive decimal.
func NewDepositUC(
	cfg *models.Config,
	txnRepo billing.TransactionRepo,
	gateway billing.PaymentGateway,
) (billing.DepositUC, error) {
	rate, err := parseExchangeRate(cfg.Billing.ExchangeRate)
	if err != nil {
		return nil, err
	}
	return &depositUC{
		cfg:       cfg,
		txnRepo:   txnRepo,
		gateway:   gateway,
		rate:      rate,
		orderCode: newOrderCode,
		now:       models.Now,
	}, nil
}

func parseExchangeRate(raw string) (decimal.Decimal, error) {
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid exchange rate %q: %w", raw, err)
	}
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("invalid exchange rate %q: must be positive", raw)
	}
	return rate, nil
}

// creditFor converts a currency amount to whole credits. The remainder is forfeited.
func creditFor(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Div(rate).Floor().IntPart()
}

// CreateDeposit records a pending deposit and, for hosted-link methods, asks
// the gateway for a payment link. Gateway failures leave the deposit pending
// without a link.
func (uc *depositUC) CreateDeposit(ctx context.Context, userID string, req models.DepositRequest) (*models.DepositResponse, error) {
	if userID == "" {
		return nil, billing.ErrUnauthorized
	}
	amount, err := uc.validateAmount(req.Amount)
	if err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, billing.ErrInvalidPaymentMethod
	}

	id := uuid.New().String()
	metadata, err := json.Marshal(models.TransactionMetadata{ReferenceCode: id})
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	txn := &models.Transaction{
		ID:            id,
		UserID:        userID,
		Amount:        amount,
		Credit:        creditFor(amount, uc.rate),
		PaymentMethod: req.PaymentMethod,
		Status:        models.TransactionStatusPending,
		ReferenceCode: id,
		Metadata:      types.JSONText(metadata),
	}
	if err := uc.txnRepo.CreateTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	metrics.DepositCreated(string(req.PaymentMethod))

	logger.Info("Deposit created",
		logger.String("transaction_id", id),
		logger.String("user_id", userID),
		logger.Int64("amount", amount),
		logger.String("payment_method", string(req.PaymentMethod)))

	resp := &models.DepositResponse{
		TransactionID: txn.ID,
		Amount:        txn.Amount,
		Credit:        txn.Credit,
		PaymentMethod: txn.PaymentMethod,
		Status:        txn.Status,
		ReferenceCode: txn.ReferenceCode,
	}

	if req.PaymentMethod.HostedLink() {
		link, err := uc.requestPaymentLink(ctx, txn)
		if err != nil {
			logger.Error("Failed to create payment link, deposit left pending",
				logger.String("transaction_id", id),
				logger.Err(err))
			return resp, nil
		}
		resp.OrderCode = &link.OrderCode
		resp.QRCodeURL = link.QRCode
		resp.PaymentLink = link.CheckoutURL
		resp.AccountNumber = link.AccountNumber
		resp.AccountName = link.AccountName
	}

	return resp, nil
}

// validateAmount accepts whole, positive currency amounts no smaller than the minimum
func (uc *depositUC) validateAmount(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() || !amount.IsInteger() || !amount.BigInt().IsInt64() {
		return 0, billing.ErrInvalidAmount
	}
	if amount.LessThan(decimal.NewFromInt(uc.cfg.Billing.MinDeposit)) {
		return 0, billing.ErrInvalidAmount
	}
	return amount.IntPart(), nil
}

// requestPaymentLink reserves an order code, calls the gateway and persists the link
func (uc *depositUC) requestPaymentLink(ctx context.Context, txn *models.Transaction) (*models.GatewayLink, error) {
	orderCode, err := uc.reserveOrderCode(ctx, txn.ID)
	if err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, uc.cfg.PaymentGateway.Timeout)
	defer cancel()

	description := utils.Truncate("Deposit "+txn.ReferenceCode, gatewayDescMaxLength)
	link, err := uc.gateway.CreatePaymentLink(gwCtx, models.PaymentLinkRequest{
		OrderCode:   orderCode,
		Amount:      txn.Amount,
		Description: description,
		ExpiredAt:   uc.now().Add(uc.cfg.PaymentGateway.LinkExpiry).Unix(),
	})
	if err != nil {
		return nil, err
	}

	gatewayLink := models.GatewayLink{
		OrderCode:     orderCode,
		QRCode:        link.QRCode,
		CheckoutURL:   link.CheckoutURL,
		AccountNumber: utils.MaskString(link.AccountNumber, 0, 4, "*"),
		AccountName:   link.AccountName,
		Metadata: models.TransactionMetadata{
			AccountNumber: link.AccountNumber,
			PaymentLinkID: link.PaymentLinkID,
			Description:   description,
			ReferenceCode: txn.ReferenceCode,
		},
	}
	if err := uc.txnRepo.AttachGatewayLink(ctx, txn.ID, gatewayLink); err != nil {
		return nil, fmt.Errorf("failed to attach payment link: %w", err)
	}
	return &gatewayLink, nil
}

// reserveOrderCode assigns a fresh order code to the transaction, retrying on collisions
func (uc *depositUC) reserveOrderCode(ctx context.Context, id string) (int64, error) {
	for attempt := 1; attempt <= orderCodeAttempts; attempt++ {
		code := uc.orderCode()
		err := uc.txnRepo.ReserveOrderCode(ctx, id, code)
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, billing.ErrOrderCodeTaken) {
			return 0, fmt.Errorf("failed to reserve order code: %w", err)
		}
		logger.Warn("Order code collision",
			logger.String("transaction_id", id),
			logger.Int64("order_code", code),
			logger.Int("attempt", attempt))
	}
	return 0, fmt.Errorf("failed to reserve order code after %d attempts: %w", orderCodeAttempts, billing.ErrOrderCodeTaken)
}
