package usecase

import (
	"time"

	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/internal/pkg/retry"
)

func testConfig() *models.Config {
	return &models.Config{
		PaymentGateway: models.PaymentGatewayConfig{
			ChecksumKey: "checksum-key",
			Timeout:     time.Second,
			LinkExpiry:  5 * time.Minute,
		},
		Billing: models.BillingConfig{
			ExchangeRate: "1000",
			MinDeposit:   10000,
			MaxPageSize:  100,
		},
	}
}

func fastRetrier() *retry.Retrier {
	return retry.New(retry.Config{
		MaxRetries: 1,
		BaseDelay:  time.Millisecond,
		MaxDelay:   time.Millisecond,
		Multiplier: 1,
	}, nil)
}

func int64Ptr(v int64) *int64 {
	return &v
}
