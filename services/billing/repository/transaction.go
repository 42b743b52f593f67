package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
)

const uniqueViolation = "23505"

const transactionColumns = `
	id, user_id, amount, credit, payment_method, status, reference_code, order_code,
	gateway_reference, gateway, paid_at, qr_code, checkout_url, account_number, account_name,
	metadata, created_at, updated_at`

// TransactionRepo stores deposits in Postgres
type TransactionRepo struct {
	cfg *models.Config
	db  *sqlx.DB
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(cfg *models.Config, db *sqlx.DB) *TransactionRepo {
	return &TransactionRepo{cfg: cfg, db: db}
}

// CreateTransaction inserts a new transaction
func (r *TransactionRepo) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	now := models.Now()
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = now
	}
	txn.UpdatedAt = now
	if len(txn.Metadata) == 0 {
		txn.Metadata = types.JSONText("{}")
	}

	query := `
		INSERT INTO transactions (
			id, user_id, amount, credit, payment_method, status, reference_code, metadata, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Amount,
		txn.Credit,
		txn.PaymentMethod,
		txn.Status,
		txn.ReferenceCode,
		txn.Metadata,
		txn.CreatedAt,
		txn.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a transaction by ID
func (r *TransactionRepo) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE id = $1`
	return r.getOne(ctx, query, id)
}

// GetTransactionByOrderCode retrieves the transaction holding orderCode, in any status
func (r *TransactionRepo) GetTransactionByOrderCode(ctx context.Context, orderCode int64) (*models.Transaction, error) {
	query := `SELECT` + transactionColumns + ` FROM transactions WHERE order_code = $1`
	return r.getOne(ctx, query, orderCode)
}

func (r *TransactionRepo) getOne(ctx context.Context, query string, arg interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.GetContext(ctx, &txn, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// ReserveOrderCode assigns orderCode to a pending transaction. The unique
// index on order_code turns a collision into ErrOrderCodeTaken.
func (r *TransactionRepo) ReserveOrderCode(ctx context.Context, id string, orderCode int64) error {
	query := `
		UPDATE transactions
		SET order_code = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, orderCode, models.Now(), id, models.TransactionStatusPending)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.ErrOrderCodeTaken
		}
		return fmt.Errorf("failed to reserve order code: %w", err)
	}
	return expectOne(result, billing.ErrTransactionNotFound)
}

// AttachGatewayLink stores the hosted payment details on a pending transaction
func (r *TransactionRepo) AttachGatewayLink(ctx context.Context, id string, link models.GatewayLink) error {
	metadata, err := r.mergeMetadata(ctx, id, link.Metadata)
	if err != nil {
		return err
	}

	query := `
		UPDATE transactions
		SET order_code = $1, qr_code = $2, checkout_url = $3, account_number = $4, account_name = $5,
			metadata = $6, updated_at = $7
		WHERE id = $8 AND status = $9
	`
	result, err := r.db.ExecContext(ctx, query,
		link.OrderCode,
		nullString(link.QRCode),
		nullString(link.CheckoutURL),
		nullString(link.AccountNumber),
		nullString(link.AccountName),
		metadata,
		models.Now(),
		id,
		models.TransactionStatusPending,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return billing.ErrOrderCodeTaken
		}
		return fmt.Errorf("failed to attach gateway link: %w", err)
	}
	return expectOne(result, billing.ErrTransactionNotFound)
}

// mergeMetadata overlays the non-empty fields of extra onto the stored metadata bag
func (r *TransactionRepo) mergeMetadata(ctx context.Context, id string, extra models.TransactionMetadata) (types.JSONText, error) {
	var stored types.JSONText
	if err := r.db.GetContext(ctx, &stored, `SELECT metadata FROM transactions WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, billing.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to read transaction metadata: %w", err)
	}

	bag := map[string]interface{}{}
	if len(stored) > 0 {
		if err := stored.Unmarshal(&bag); err != nil {
			return nil, fmt.Errorf("failed to decode transaction metadata: %w", err)
		}
	}

	raw, err := json.Marshal(extra)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction metadata: %w", err)
	}
	overlay := map[string]interface{}{}
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("failed to encode transaction metadata: %w", err)
	}
	for k, v := range overlay {
		bag[k] = v
	}

	merged, err := json.Marshal(bag)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction metadata: %w", err)
	}
	return types.JSONText(merged), nil
}

// ListTransactionsByUser returns one page of a user's transactions, newest first, and the total count
func (r *TransactionRepo) ListTransactionsByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Transaction, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM transactions WHERE user_id = $1`, userID); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	txns := []*models.Transaction{}
	if total == 0 {
		return txns, 0, nil
	}

	query := `SELECT` + transactionColumns + `
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &txns, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

// SettleTransaction transitions the transaction from pending to completed and
// adds credit to the user's balance in one database transaction. The status
// predicate on the UPDATE is the compare-and-swap: a concurrent settle of the
// same row blocks on the row lock, then matches zero rows.
func (r *TransactionRepo) SettleTransaction(ctx context.Context, id, userID string, credit int64, settlement models.Settlement) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin settlement: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := models.Now()
	result, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET status = $1, gateway_reference = $2, gateway = $3, paid_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`,
		models.TransactionStatusCompleted,
		nullString(settlement.GatewayReference),
		nullString(settlement.Gateway),
		settlement.PaidAt,
		now,
		id,
		models.TransactionStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to complete transaction: %w", err)
	}
	if err := expectOne(result, billing.ErrAlreadyProcessed); err != nil {
		return 0, err
	}

	var balance int64
	err = tx.QueryRowxContext(ctx, `
		UPDATE users
		SET credit = credit + $1, updated_at = $2
		WHERE id = $3
		RETURNING credit
	`, credit, now, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, billing.ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to credit user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit settlement: %w", err)
	}
	return balance, nil
}

func expectOne(result sql.Result, none error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return none
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
