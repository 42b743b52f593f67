package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
)

const defaultPageSize = 20

// ledgerUC implements billing.LedgerUC
type ledgerUC struct {
	cfg      *models.Config
	txnRepo  billing.TransactionRepo
	userRepo billing.UserRepo
}

// NewLedgerUC creates the balance and history reader
func NewLedgerUC(
	cfg *models.Config,
	txnRepo billing.TransactionRepo,
	userRepo billing.UserRepo,
) (billing.LedgerUC, error) {
	return &ledgerUC{
		cfg:      cfg,
		txnRepo:  txnRepo,
		userRepo: userRepo,
	}, nil
}

// GetBalance reads the caller's credit straight from the store
func (uc *ledgerUC) GetBalance(ctx context.Context, userID string) (*models.BalanceResponse, error) {
	if userID == "" {
		return nil, billing.ErrUnauthorized
	}
	user, err := uc.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.BalanceResponse{UserID: user.ID, Credit: user.Credit}, nil
}

// ListTransactions returns one page of the caller's deposits, newest first
func (uc *ledgerUC) ListTransactions(ctx context.Context, userID string, page, limit int) (*models.TransactionPage, error) {
	if userID == "" {
		return nil, billing.ErrUnauthorized
	}
	page, limit = normalizePage(page, limit, uc.cfg.Billing.MaxPageSize)

	items, total, err := uc.txnRepo.ListTransactionsByUser(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	if items == nil {
		items = []*models.Transaction{}
	}
	return &models.TransactionPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

// GetDeposit returns one of the caller's own transactions. Other users'
// transactions are reported as not found.
func (uc *ledgerUC) GetDeposit(ctx context.Context, userID, id string) (*models.Transaction, error) {
	if userID == "" {
		return nil, billing.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, billing.ErrTransactionNotFound
	}
	txn, err := uc.txnRepo.GetTransactionByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn.UserID != userID {
		return nil, billing.ErrTransactionNotFound
	}
	return txn, nil
}

func normalizePage(page, limit, maxLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if maxLimit > 0 && limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
