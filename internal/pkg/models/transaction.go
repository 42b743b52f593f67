package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TransactionStatus is the lifecycle state of a deposit
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// PaymentMethod enumerates the supported deposit methods
type PaymentMethod string

const (
	PaymentMethodPayOS   PaymentMethod = "payos"
	PaymentMethodPayPal  PaymentMethod = "paypal"
	PaymentMethodBitcoin PaymentMethod = "bitcoin"
	PaymentMethodVisa    PaymentMethod = "visa"
)

// Valid reports whether m is a supported payment method
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodPayOS, PaymentMethodPayPal, PaymentMethodBitcoin, PaymentMethodVisa:
		return true
	}
	return false
}

// HostedLink reports whether deposits with m go through the hosted QR gateway
func (m PaymentMethod) HostedLink() bool {
	return m == PaymentMethodPayOS
}

// Transaction represents one attempted or completed deposit
type Transaction struct {
	ID               string            `json:"id" db:"id"`
	UserID           string            `json:"user_id" db:"user_id"`
	Amount           int64             `json:"amount" db:"amount"`
	Credit           int64             `json:"credit" db:"credit"`
	PaymentMethod    PaymentMethod     `json:"payment_method" db:"payment_method"`
	Status           TransactionStatus `json:"status" db:"status"`
	ReferenceCode    string            `json:"reference_code" db:"reference_code"`
	OrderCode        *int64            `json:"order_code,omitempty" db:"order_code"`
	GatewayReference *string           `json:"gateway_reference,omitempty" db:"gateway_reference"`
	Gateway          *string           `json:"gateway,omitempty" db:"gateway"`
	PaidAt           *time.Time        `json:"paid_at,omitempty" db:"paid_at"`
	QRCode           *string           `json:"qr_code,omitempty" db:"qr_code"`
	CheckoutURL      *string           `json:"checkout_url,omitempty" db:"checkout_url"`
	AccountNumber    *string           `json:"account_number,omitempty" db:"account_number"`
	AccountName      *string           `json:"account_name,omitempty" db:"account_name"`
	Metadata         types.JSONText    `json:"metadata,omitempty" db:"metadata"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// TransactionMetadata is the gateway audit data stored in Transaction.Metadata
type TransactionMetadata struct {
	AccountNumber string `json:"accountNumber,omitempty"`
	PaymentLinkID string `json:"paymentLinkId,omitempty"`
	Description   string `json:"description,omitempty"`
	ReferenceCode string `json:"referenceCode,omitempty"`
}

// GatewayLink holds the hosted payment details persisted onto a pending transaction
type GatewayLink struct {
	OrderCode     int64
	QRCode        string
	CheckoutURL   string
	AccountNumber string
	AccountName   string
	Metadata      TransactionMetadata
}

// Settlement holds the fields written when a transaction completes
type Settlement struct {
	GatewayReference string
	Gateway          string
	PaidAt           time.Time
}

// TransactionPage is one page of a user's transaction history
type TransactionPage struct {
	Items []*Transaction `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}
