package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDepositUC(t *testing.T, ctrl *gomock.Controller) (*depositUC, *mocks.MockTransactionRepo, *mocks.MockPaymentGateway) {
	mockRepo := mocks.NewMockTransactionRepo(ctrl)
	mockGW := mocks.NewMockPaymentGateway(ctrl)

	uc, err := NewDepositUC(testConfig(), mockRepo, mockGW)
	require.NoError(t, err)

	d := uc.(*depositUC)
	d.orderCode = func() int64 { return 1234567890 }
	d.now = func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }
	return d, mockRepo, mockGW
}

func TestNewDepositUC_InvalidExchangeRate(t *testing.T) {
	for _, rate := range []string{"", "abc", "0", "-5"} {
		cfg := testConfig()
		cfg.Billing.ExchangeRate = rate

		uc, err := NewDepositUC(cfg, nil, nil)
		assert.Error(t, err, rate)
		assert.Nil(t, uc)
	}
}

func TestCreateDeposit_PendingWithoutGateway(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, _ := newTestDepositUC(t, ctrl)

	var created *models.Transaction
	mockRepo.EXPECT().
		CreateTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, txn *models.Transaction) error {
			created = txn
			return nil
		})

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(50000),
		PaymentMethod: models.PaymentMethodVisa,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(50), resp.Credit)
	assert.Equal(t, models.TransactionStatusPending, resp.Status)
	assert.Equal(t, resp.TransactionID, resp.ReferenceCode)
	assert.Nil(t, resp.OrderCode)

	require.NotNil(t, created)
	assert.Equal(t, "user-1", created.UserID)
	assert.Equal(t, int64(50000), created.Amount)
	assert.Equal(t, int64(50), created.Credit)
	assert.Equal(t, created.ID, created.ReferenceCode)

	var meta models.TransactionMetadata
	require.NoError(t, json.Unmarshal(created.Metadata, &meta))
	assert.Equal(t, created.ID, meta.ReferenceCode)
}

func TestCreateDeposit_CreditTruncates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, _ := newTestDepositUC(t, ctrl)
	mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(12999),
		PaymentMethod: models.PaymentMethodPayPal,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(12), resp.Credit)
}

func TestCreateDeposit_HostedLink(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, mockGW := newTestDepositUC(t, ctrl)

	gomock.InOrder(
		mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil),
		mockRepo.EXPECT().ReserveOrderCode(gomock.Any(), gomock.Any(), int64(1234567890)).Return(nil),
		mockGW.EXPECT().
			CreatePaymentLink(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, req models.PaymentLinkRequest) (*models.PaymentLink, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				assert.Equal(t, int64(1234567890), req.OrderCode)
				assert.Equal(t, int64(50000), req.Amount)
				assert.LessOrEqual(t, len(req.Description), gatewayDescMaxLength)
				assert.Equal(t, time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC).Unix(), req.ExpiredAt)
				return &models.PaymentLink{
					OrderCode:     req.OrderCode,
					CheckoutURL:   "https://pay.payos.vn/web/abc",
					QRCode:        "000201010212",
					AccountNumber: "0123456789",
					AccountName:   "VIDCREDIT",
					PaymentLinkID: "abc",
				}, nil
			}),
		mockRepo.EXPECT().
			AttachGatewayLink(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, link models.GatewayLink) error {
				assert.Equal(t, "******6789", link.AccountNumber)
				assert.Equal(t, "0123456789", link.Metadata.AccountNumber)
				assert.Equal(t, "abc", link.Metadata.PaymentLinkID)
				assert.NotEmpty(t, link.Metadata.ReferenceCode)
				return nil
			}),
	)

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(50000),
		PaymentMethod: models.PaymentMethodPayOS,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.OrderCode)
	assert.Equal(t, int64(1234567890), *resp.OrderCode)
	assert.Equal(t, "000201010212", resp.QRCodeURL)
	assert.Equal(t, "https://pay.payos.vn/web/abc", resp.PaymentLink)
	assert.Equal(t, "******6789", resp.AccountNumber)
	assert.Equal(t, "VIDCREDIT", resp.AccountName)
}

func TestCreateDeposit_GatewayFailureKeepsPending(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, mockGW := newTestDepositUC(t, ctrl)

	mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().ReserveOrderCode(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	mockGW.EXPECT().CreatePaymentLink(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(50000),
		PaymentMethod: models.PaymentMethodPayOS,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.TransactionID)
	assert.Equal(t, models.TransactionStatusPending, resp.Status)
	assert.Empty(t, resp.PaymentLink)
	assert.Empty(t, resp.QRCodeURL)
}

func TestCreateDeposit_OrderCodeCollisionRetries(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, mockGW := newTestDepositUC(t, ctrl)
	codes := []int64{1000000001, 1000000002}
	uc.orderCode = func() int64 {
		c := codes[0]
		codes = codes[1:]
		return c
	}

	mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().ReserveOrderCode(gomock.Any(), gomock.Any(), int64(1000000001)).Return(billing.ErrOrderCodeTaken)
	mockRepo.EXPECT().ReserveOrderCode(gomock.Any(), gomock.Any(), int64(1000000002)).Return(nil)
	mockGW.EXPECT().
		CreatePaymentLink(gomock.Any(), gomock.Any()).
		Return(&models.PaymentLink{OrderCode: 1000000002, CheckoutURL: "https://pay/x"}, nil)
	mockRepo.EXPECT().AttachGatewayLink(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(20000),
		PaymentMethod: models.PaymentMethodPayOS,
	})

	require.NoError(t, err)
	require.NotNil(t, resp.OrderCode)
	assert.Equal(t, int64(1000000002), *resp.OrderCode)
}

func TestCreateDeposit_OrderCodeExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, _ := newTestDepositUC(t, ctrl)

	mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(nil)
	mockRepo.EXPECT().ReserveOrderCode(gomock.Any(), gomock.Any(), gomock.Any()).Return(billing.ErrOrderCodeTaken).Times(orderCodeAttempts)

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(20000),
		PaymentMethod: models.PaymentMethodPayOS,
	})

	require.NoError(t, err)
	assert.Nil(t, resp.OrderCode)
	assert.Empty(t, resp.PaymentLink)
}

func TestCreateDeposit_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		userID  string
		amount  decimal.Decimal
		method  models.PaymentMethod
		wantErr error
	}{
		{"no caller", "", decimal.NewFromInt(50000), models.PaymentMethodPayOS, billing.ErrUnauthorized},
		{"below minimum", "user-1", decimal.NewFromInt(9999), models.PaymentMethodPayOS, billing.ErrInvalidAmount},
		{"zero", "user-1", decimal.Zero, models.PaymentMethodPayOS, billing.ErrInvalidAmount},
		{"negative", "user-1", decimal.NewFromInt(-50000), models.PaymentMethodPayOS, billing.ErrInvalidAmount},
		{"fractional", "user-1", decimal.RequireFromString("50000.5"), models.PaymentMethodPayOS, billing.ErrInvalidAmount},
		{"unknown method", "user-1", decimal.NewFromInt(50000), models.PaymentMethod("cash"), billing.ErrInvalidPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			// No repository or gateway expectations: any write fails the test.
			uc, _, _ := newTestDepositUC(t, ctrl)

			resp, err := uc.CreateDeposit(context.Background(), tt.userID, models.DepositRequest{
				Amount:        tt.amount,
				PaymentMethod: tt.method,
			})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, resp)
		})
	}
}

func TestCreateDeposit_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	uc, mockRepo, _ := newTestDepositUC(t, ctrl)
	mockRepo.EXPECT().CreateTransaction(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	resp, err := uc.CreateDeposit(context.Background(), "user-1", models.DepositRequest{
		Amount:        decimal.NewFromInt(50000),
		PaymentMethod: models.PaymentMethodPayOS,
	})

	assert.ErrorContains(t, err, "connection refused")
	assert.Nil(t, resp)
}

func TestNewOrderCode_TenDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := newOrderCode()
		assert.GreaterOrEqual(t, code, int64(1_000_000_000))
		assert.Less(t, code, int64(10_000_000_000))
	}
}
