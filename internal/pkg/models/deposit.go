package models

import "github.com/shopspring/decimal"

// DepositRequest is the body of a deposit creation call
type DepositRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
}

// DepositResponse is returned to the caller after a deposit is created
type DepositResponse struct {
	TransactionID string            `json:"transactionId"`
	Amount        int64             `json:"amount"`
	Credit        int64             `json:"credit"`
	PaymentMethod PaymentMethod     `json:"paymentMethod"`
	Status        TransactionStatus `json:"status"`
	ReferenceCode string            `json:"referenceCode"`
	OrderCode     *int64            `json:"orderCode,omitempty"`
	QRCodeURL     string            `json:"qrCodeUrl,omitempty"`
	PaymentLink   string            `json:"paymentLink,omitempty"`
	AccountNumber string            `json:"accountNumber,omitempty"`
	AccountName   string            `json:"accountName,omitempty"`
}

// PaymentLinkRequest asks the hosted gateway for a payment link
type PaymentLinkRequest struct {
	OrderCode   int64
	Amount      int64
	Description string
	ReturnURL   string
	CancelURL   string
	ExpiredAt   int64 // unix seconds
}

// PaymentLink is the hosted gateway's answer
type PaymentLink struct {
	OrderCode     int64
	CheckoutURL   string
	QRCode        string
	AccountNumber string
	AccountName   string
	PaymentLinkID string
}

// BalanceResponse is the caller's current credit
type BalanceResponse struct {
	UserID string `json:"user_id"`
	Credit int64  `json:"credit"`
}
