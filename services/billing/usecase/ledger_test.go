package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxnRepo := mocks.NewMockTransactionRepo(ctrl)
	mockUserRepo := mocks.NewMockUserRepo(ctrl)
	uc, err := NewLedgerUC(testConfig(), mockTxnRepo, mockUserRepo)
	require.NoError(t, err)

	mockUserRepo.EXPECT().GetUserByID(gomock.Any(), "user-1").Return(&models.User{ID: "user-1", Credit: 75}, nil)

	balance, err := uc.GetBalance(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, &models.BalanceResponse{UserID: "user-1", Credit: 75}, balance)

	_, err = uc.GetBalance(context.Background(), "")
	assert.ErrorIs(t, err, billing.ErrUnauthorized)
}

func TestListTransactions(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		wantLimit  int
		wantOffset int
	}{
		{"first page", 1, 10, 10, 0},
		{"third page", 3, 10, 10, 20},
		{"defaults", 0, 0, defaultPageSize, 0},
		{"capped limit", 2, 500, 100, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTxnRepo := mocks.NewMockTransactionRepo(ctrl)
			uc, err := NewLedgerUC(testConfig(), mockTxnRepo, mocks.NewMockUserRepo(ctrl))
			require.NoError(t, err)

			mockTxnRepo.EXPECT().
				ListTransactionsByUser(gomock.Any(), "user-1", tt.wantLimit, tt.wantOffset).
				Return(nil, 42, nil)

			page, err := uc.ListTransactions(context.Background(), "user-1", tt.page, tt.limit)

			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, page.Limit)
			assert.Equal(t, 42, page.Total)
			assert.NotNil(t, page.Items)
		})
	}
}

func TestListTransactions_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxnRepo := mocks.NewMockTransactionRepo(ctrl)
	uc, err := NewLedgerUC(testConfig(), mockTxnRepo, mocks.NewMockUserRepo(ctrl))
	require.NoError(t, err)

	mockTxnRepo.EXPECT().ListTransactionsByUser(gomock.Any(), "user-1", 20, 0).Return(nil, 0, errors.New("db down"))

	page, err := uc.ListTransactions(context.Background(), "user-1", 1, 20)
	assert.Error(t, err)
	assert.Nil(t, page)
}

func TestGetDeposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockTxnRepo := mocks.NewMockTransactionRepo(ctrl)
	uc, err := NewLedgerUC(testConfig(), mockTxnRepo, mocks.NewMockUserRepo(ctrl))
	require.NoError(t, err)

	const (
		known   = "6f1c7c3e-2a4b-4d1e-9a57-3f0c2b8e1d44"
		missing = "0b9e2f5a-7c61-4e0d-8f3a-1d2c4b6a8e90"
	)
	stored := pendingTxn()
	stored.ID = known

	mockTxnRepo.EXPECT().GetTransactionByID(gomock.Any(), known).Return(stored, nil).Times(2)
	mockTxnRepo.EXPECT().GetTransactionByID(gomock.Any(), missing).Return(nil, billing.ErrTransactionNotFound)

	txn, err := uc.GetDeposit(context.Background(), "user-1", known)
	require.NoError(t, err)
	assert.Equal(t, known, txn.ID)

	_, err = uc.GetDeposit(context.Background(), "user-2", known)
	assert.ErrorIs(t, err, billing.ErrTransactionNotFound)

	_, err = uc.GetDeposit(context.Background(), "user-1", missing)
	assert.ErrorIs(t, err, billing.ErrTransactionNotFound)
}

func TestGetDeposit_MalformedIDIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// no repository calls expected
	uc, err := NewLedgerUC(testConfig(), mocks.NewMockTransactionRepo(ctrl), mocks.NewMockUserRepo(ctrl))
	require.NoError(t, err)

	for _, id := range []string{"txn-1", "", "12345", "6f1c7c3e-2a4b-4d1e-9a57"} {
		_, err := uc.GetDeposit(context.Background(), "user-1", id)
		assert.ErrorIs(t, err, billing.ErrTransactionNotFound, id)
	}
}

func TestNotificationUC(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mocks.NewMockNotificationRepo(ctrl)
	uc, err := NewNotificationUC(testConfig(), mockRepo)
	require.NoError(t, err)

	const (
		unread = "9d3b1a7e-5c2f-4e8a-b6d0-2f4e6a8c0b13"
		other  = "3a5c7e9b-1d2f-4a6c-8e0b-5d7f9a1c3e25"
	)
	items := []*models.Notification{{ID: unread, UserID: "user-1"}}
	mockRepo.EXPECT().ListNotifications(gomock.Any(), "user-1", 10, 10).Return(items, 11, nil)
	mockRepo.EXPECT().MarkNotificationRead(gomock.Any(), unread, "user-1").Return(nil)
	mockRepo.EXPECT().MarkNotificationRead(gomock.Any(), other, "user-1").Return(billing.ErrNotificationNotFound)

	page, err := uc.ListNotifications(context.Background(), "user-1", 2, 10)
	require.NoError(t, err)
	assert.Equal(t, items, page.Items)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 11, page.Total)

	assert.NoError(t, uc.MarkRead(context.Background(), "user-1", unread))
	assert.ErrorIs(t, uc.MarkRead(context.Background(), "user-1", other), billing.ErrNotificationNotFound)
	assert.ErrorIs(t, uc.MarkRead(context.Background(), "", unread), billing.ErrUnauthorized)
	assert.ErrorIs(t, uc.MarkRead(context.Background(), "user-1", "n-1"), billing.ErrNotificationNotFound)
}
