package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/piresc/vidcredit/internal/pkg/circuitbreaker"
	httpclient "github.com/piresc/vidcredit/internal/pkg/http"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/metrics"
	"github.com/piresc/vidcredit/internal/pkg/models"
	nrpkg "github.com/piresc/vidcredit/internal/pkg/newrelic"
	"github.com/piresc/vidcredit/services/billing/webhook"
)

const (
	payOSName            = "payos"
	payOSPaymentRequests = "/v2/payment-requests"
)

type payOSRequest struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	ExpiredAt   int64  `json:"expiredAt"`
	Signature   string `json:"signature"`
}

type payOSResponse struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data *struct {
		OrderCode     int64  `json:"orderCode"`
		CheckoutURL   string `json:"checkoutUrl"`
		QRCode        string `json:"qrCode"`
		AccountNumber string `json:"accountNumber"`
		AccountName   string `json:"accountName"`
		PaymentLinkID string `json:"paymentLinkId"`
	} `json:"data"`
}

// PayOSGateway creates hosted payment links on PayOS
type PayOSGateway struct {
	cfg    models.PaymentGatewayConfig
	client *httpclient.Client
}

// NewPayOSGateway creates the gateway client behind a circuit breaker.
// 4xx answers do not trip the breaker.
func NewPayOSGateway(cfg models.PaymentGatewayConfig, zl *logger.ZapLogger) *PayOSGateway {
	breakerCfg := circuitbreaker.DefaultConfig(payOSName)
	breakerCfg.IsFailure = func(err error) bool {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) {
			return httpErr.StatusCode >= 500
		}
		return err != nil && !errors.Is(err, context.Canceled)
	}
	breakerCfg.OnStateChange = func(name string, _, to circuitbreaker.State) {
		metrics.BreakerState(name, int(to))
	}

	client := httpclient.NewClient(httpclient.Config{
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
		Headers: map[string]string{
			"x-client-id": cfg.ClientID,
			"x-api-key":   cfg.APIKey,
		},
		Breaker: circuitbreaker.New(breakerCfg, zl),
	}, zl)

	return &PayOSGateway{cfg: cfg, client: client}
}

// Name identifies the gateway on settled transactions
func (g *PayOSGateway) Name() string {
	return payOSName
}

// CreatePaymentLink requests a hosted checkout and VietQR code for req
func (g *PayOSGateway) CreatePaymentLink(ctx context.Context, req models.PaymentLinkRequest) (link *models.PaymentLink, err error) {
	defer nrpkg.StartSegment(ctx, "PayOS.CreatePaymentLink")()
	start := time.Now()
	defer func() { metrics.ObserveGateway("create_payment_link", start, err) }()

	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = g.cfg.ReturnURL
	}
	cancelURL := req.CancelURL
	if cancelURL == "" {
		cancelURL = g.cfg.CancelURL
	}

	body := payOSRequest{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   returnURL,
		CancelURL:   cancelURL,
		ExpiredAt:   req.ExpiredAt,
		Signature: webhook.Sign(g.cfg.ChecksumKey, map[string]interface{}{
			"amount":      req.Amount,
			"cancelUrl":   cancelURL,
			"description": req.Description,
			"orderCode":   req.OrderCode,
			"returnUrl":   returnURL,
		}),
	}

	var resp payOSResponse
	if err := g.client.PostJSON(ctx, payOSPaymentRequests, body, &resp); err != nil {
		return nil, fmt.Errorf("payos create payment link: %w", err)
	}
	if resp.Code != models.GatewaySuccessCode || resp.Data == nil {
		return nil, fmt.Errorf("payos create payment link: %s (code %s)", resp.Desc, resp.Code)
	}

	orderCode := resp.Data.OrderCode
	if orderCode == 0 {
		orderCode = req.OrderCode
	}
	return &models.PaymentLink{
		OrderCode:     orderCode,
		CheckoutURL:   resp.Data.CheckoutURL,
		QRCode:        resp.Data.QRCode,
		AccountNumber: resp.Data.AccountNumber,
		AccountName:   resp.Data.AccountName,
		PaymentLinkID: resp.Data.PaymentLinkID,
	}, nil
}
