package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "sqlmock"), mock
}

var transactionCols = []string{
	"id", "user_id", "amount", "credit", "payment_method", "status", "reference_code", "order_code",
	"gateway_reference", "gateway", "paid_at", "qr_code", "checkout_url", "account_number", "account_name",
	"metadata", "created_at", "updated_at",
}

func pendingRow(id, userID string, orderCode int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(transactionCols).AddRow(
		id, userID, int64(50000), int64(50), "payos", "pending", id, orderCode,
		nil, nil, nil, "qr-data", "https://pay.example/checkout", "12345678", "VIDCREDIT",
		[]byte(`{"referenceCode":"`+id+`"}`), now, now,
	)
}

func TestCreateTransaction_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	txn := &models.Transaction{
		ID:            uuid.NewString(),
		UserID:        uuid.NewString(),
		Amount:        50000,
		Credit:        50,
		PaymentMethod: models.PaymentMethodPayOS,
		Status:        models.TransactionStatusPending,
	}
	txn.ReferenceCode = txn.ID

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(txn.ID, txn.UserID, txn.Amount, txn.Credit, txn.PaymentMethod, txn.Status, txn.ReferenceCode,
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.CreateTransaction(context.Background(), txn)

	require.NoError(t, err)
	assert.Equal(t, "{}", string(txn.Metadata))
	assert.False(t, txn.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTransaction_Error(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).WillReturnError(assert.AnError)

	err := repo.CreateTransaction(context.Background(), &models.Transaction{ID: "x"})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestGetTransactionByOrderCode(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)
	id, userID := uuid.NewString(), uuid.NewString()

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE order_code = $1")).
		WithArgs(int64(1234567890)).
		WillReturnRows(pendingRow(id, userID, 1234567890))

	txn, err := repo.GetTransactionByOrderCode(context.Background(), 1234567890)

	require.NoError(t, err)
	assert.Equal(t, id, txn.ID)
	assert.Equal(t, userID, txn.UserID)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	require.NotNil(t, txn.OrderCode)
	assert.Equal(t, int64(1234567890), *txn.OrderCode)
	assert.Nil(t, txn.GatewayReference)
	assert.Nil(t, txn.PaidAt)
	require.NotNil(t, txn.AccountNumber)
	assert.Equal(t, "12345678", *txn.AccountNumber)
}

func TestGetTransactionByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetTransactionByID(context.Background(), "missing")
	assert.ErrorIs(t, err, billing.ErrTransactionNotFound)
}

func TestReserveOrderCode(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "reserved",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
					WithArgs(int64(1234567890), sqlmock.AnyArg(), "txn-1", models.TransactionStatusPending).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
		},
		{
			name: "collision",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
					WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "transactions_order_code_key"})
			},
			wantErr: billing.ErrOrderCodeTaken,
		},
		{
			name: "no longer pending",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: billing.ErrTransactionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := setupMockDB(t)
			repo := repository.NewTransactionRepository(&models.Config{}, db)
			tt.setup(mock)

			err := repo.ReserveOrderCode(context.Background(), "txn-1", 1234567890)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAttachGatewayLink_MergesMetadata(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT metadata FROM transactions WHERE id = $1")).
		WithArgs("txn-1").
		WillReturnRows(sqlmock.NewRows([]string{"metadata"}).AddRow([]byte(`{"referenceCode":"txn-1","source":"web"}`)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WithArgs(int64(1234567890), "qr", "https://pay.example/c", "12345678", "VIDCREDIT",
			sqlmock.AnyArg(), sqlmock.AnyArg(), "txn-1", models.TransactionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.AttachGatewayLink(context.Background(), "txn-1", models.GatewayLink{
		OrderCode:     1234567890,
		QRCode:        "qr",
		CheckoutURL:   "https://pay.example/c",
		AccountNumber: "12345678",
		AccountName:   "VIDCREDIT",
		Metadata:      models.TransactionMetadata{PaymentLinkID: "plink-1", AccountNumber: "12345678"},
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListTransactionsByUser(t *testing.T) {
	t.Run("empty history skips the page query", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewTransactionRepository(&models.Config{}, db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		txns, total, err := repo.ListTransactionsByUser(context.Background(), "user-1", 20, 0)

		require.NoError(t, err)
		assert.Equal(t, 0, total)
		assert.Empty(t, txns)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("page", func(t *testing.T) {
		db, mock := setupMockDB(t)
		repo := repository.NewTransactionRepository(&models.Config{}, db)

		mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions")).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC")).
			WithArgs("user-1", 20, 20).
			WillReturnRows(pendingRow("txn-21", "user-1", 1111111111))

		txns, total, err := repo.ListTransactionsByUser(context.Background(), "user-1", 20, 20)

		require.NoError(t, err)
		assert.Equal(t, 21, total)
		require.Len(t, txns, 1)
		assert.Equal(t, "txn-21", txns[0].ID)
	})
}

func settlement() models.Settlement {
	return models.Settlement{GatewayReference: "FT123", Gateway: "payos", PaidAt: time.Now()}
}

func TestSettleTransaction_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WithArgs(models.TransactionStatusCompleted, "FT123", "payos", sqlmock.AnyArg(), sqlmock.AnyArg(),
			"txn-1", models.TransactionStatusPending).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WithArgs(int64(50), sqlmock.AnyArg(), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"credit"}).AddRow(int64(150)))
	mock.ExpectCommit()

	balance, err := repo.SettleTransaction(context.Background(), "txn-1", "user-1", 50, settlement())

	require.NoError(t, err)
	assert.Equal(t, int64(150), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTransaction_AlreadyProcessed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.SettleTransaction(context.Background(), "txn-1", "user-1", 50, settlement())

	assert.ErrorIs(t, err, billing.ErrAlreadyProcessed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTransaction_UserMissingRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnRows(sqlmock.NewRows([]string{"credit"}))
	mock.ExpectRollback()

	_, err := repo.SettleTransaction(context.Background(), "txn-1", "user-1", 50, settlement())

	assert.ErrorIs(t, err, billing.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettleTransaction_CommitError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := repository.NewTransactionRepository(&models.Config{}, db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).
		WillReturnRows(sqlmock.NewRows([]string{"credit"}).AddRow(int64(50)))
	mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))

	_, err := repo.SettleTransaction(context.Background(), "txn-1", "user-1", 50, settlement())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit settlement")
}
