package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GatewaySuccessCode is the gateway's code for a settled payment
const GatewaySuccessCode = "00"

// GatewayEvent is a webhook payload normalized from either the nested or the flat shape
type GatewayEvent struct {
	OrderCode      int64
	HasOrderCode   bool
	TransferAmount decimal.Decimal
	HasAmount      bool
	Code           string
	Desc           string
	Reference      string
	PaymentLinkID  string
	PaidAt         time.Time // zero when absent or unparseable
}

// Success reports whether the gateway marked the payment settled
func (e GatewayEvent) Success() bool {
	return e.Code == GatewaySuccessCode
}

// ReconcileReason explains the outcome of a reconciliation attempt
type ReconcileReason string

const (
	ReasonApplied             ReconcileReason = "applied"
	ReasonMissingFields       ReconcileReason = "missing-fields"
	ReasonNonSuccessStatus    ReconcileReason = "non-success-status"
	ReasonAlreadyProcessed    ReconcileReason = "already-processed"
	ReasonTransactionNotFound ReconcileReason = "transaction-not-found"
	ReasonAmountMismatch      ReconcileReason = "amount-mismatch"
	ReasonUserNotFound        ReconcileReason = "user-not-found"
	ReasonInProgress          ReconcileReason = "in-progress"
	ReasonInvalidSignature    ReconcileReason = "invalid-signature"
	ReasonMalformedPayload    ReconcileReason = "malformed-payload"
	ReasonStoreError          ReconcileReason = "store-error"
)

// ReconcileResult is the outcome of applying one gateway event
type ReconcileResult struct {
	Applied       bool            `json:"applied"`
	Reason        ReconcileReason `json:"reason"`
	TransactionID string          `json:"transaction_id,omitempty"`
	Credit        int64           `json:"credit,omitempty"`
	Balance       int64           `json:"balance,omitempty"`
}

// WebhookAck is the body returned to the gateway; the HTTP status is always 200
type WebhookAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
