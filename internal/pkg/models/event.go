package models

import (
	"encoding/json"
	"time"
)

// UserEvent is a live event addressed to every open connection of one user
type UserEvent struct {
	UserID     string          `json:"user_id"`
	Event      string          `json:"event"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// TransactionCompletedEvent is published when a deposit settles
type TransactionCompletedEvent struct {
	TransactionID string            `json:"transactionId"`
	UserID        string            `json:"userId"`
	ReferenceCode string            `json:"referenceCode"`
	OrderCode     int64             `json:"orderCode"`
	Amount        int64             `json:"amount"`
	Credit        int64             `json:"credit"`
	Status        TransactionStatus `json:"status"`
	PaidAt        time.Time         `json:"paidAt"`
}

// BalanceChangedEvent carries the new balance after a credit
type BalanceChangedEvent struct {
	Balance int64  `json:"balance"`
	Delta   int64  `json:"delta"`
	Message string `json:"message"`
}
