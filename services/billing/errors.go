package billing

import "errors"

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrOrderCodeTaken       = errors.New("order code already assigned")
	ErrAlreadyProcessed     = errors.New("transaction already processed")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrMalformedPayload     = errors.New("malformed webhook payload")
)
