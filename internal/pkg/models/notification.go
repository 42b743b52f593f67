package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Notification types
const (
	NotificationPaymentSuccess = "payment_success"
)

// Notification is a durable user-facing record
type Notification struct {
	ID        string         `json:"id" db:"id"`
	UserID    string         `json:"user_id" db:"user_id"`
	Type      string         `json:"type" db:"type"`
	Title     string         `json:"title" db:"title"`
	Message   string         `json:"message" db:"message"`
	Data      types.JSONText `json:"data,omitempty" db:"data"`
	IsRead    bool           `json:"is_read" db:"is_read"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}

// PaymentNotificationData is stored in Notification.Data for payment notifications
type PaymentNotificationData struct {
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	Credit        int64  `json:"credit"`
}

// NotificationPage is one page of a user's notifications
type NotificationPage struct {
	Items []*Notification `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}
