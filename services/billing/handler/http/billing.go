package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/middleware"
	"github.com/piresc/vidcredit/internal/pkg/models"
	nrpkg "github.com/piresc/vidcredit/internal/pkg/newrelic"
	"github.com/piresc/vidcredit/internal/utils"
	"github.com/piresc/vidcredit/services/billing"
	"github.com/piresc/vidcredit/services/billing/webhook"
)

const (
	maxWebhookBody   = 1 << 20
	defaultPageLimit = 20
)

// BillingHandler handles HTTP requests for deposits, webhooks and ledger reads
type BillingHandler struct {
	cfg            *models.Config
	depositUC      billing.DepositUC
	reconcileUC    billing.ReconcileUC
	ledgerUC       billing.LedgerUC
	notificationUC billing.NotificationUC
}

// NewBillingHandler creates a new billing HTTP handler
func NewBillingHandler(
	cfg *models.Config,
	depositUC billing.DepositUC,
	reconcileUC billing.ReconcileUC,
	ledgerUC billing.LedgerUC,
	notificationUC billing.NotificationUC,
) *BillingHandler {
	return &BillingHandler{
		cfg:            cfg,
		depositUC:      depositUC,
		reconcileUC:    reconcileUC,
		ledgerUC:       ledgerUC,
		notificationUC: notificationUC,
	}
}

// CreateDeposit starts a deposit for the authenticated user
func (h *BillingHandler) CreateDeposit(c echo.Context) error {
	var req models.DepositRequest
	if err := c.Bind(&req); err != nil {
		return utils.BadRequestResponse(c, "Invalid request body")
	}

	resp, err := h.depositUC.CreateDeposit(c.Request().Context(), middleware.UserID(c), req)
	if err != nil {
		return h.errorResponse(c, "Failed to create deposit", err)
	}

	return utils.SuccessResponse(c, http.StatusCreated, "Deposit created", resp)
}

// PaymentWebhook receives gateway callbacks. It always answers 200 so the
// gateway never retries because of our own outcome.
func (h *BillingHandler) PaymentWebhook(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		logger.Warn("Failed to read webhook body", logger.Err(err))
		return c.JSON(http.StatusOK, models.WebhookAck{Success: false, Message: string(models.ReasonMalformedPayload)})
	}

	result := h.reconcileUC.HandleWebhook(c.Request().Context(), body, c.Request().Header.Get(webhook.SignatureHeader))

	return c.JSON(http.StatusOK, models.WebhookAck{
		Success: result.Applied,
		Message: string(result.Reason),
	})
}

// GetBalance returns the caller's credit
func (h *BillingHandler) GetBalance(c echo.Context) error {
	balance, err := h.ledgerUC.GetBalance(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return h.errorResponse(c, "Failed to get balance", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Balance retrieved", balance)
}

// ListTransactions returns the caller's deposit history, newest first
func (h *BillingHandler) ListTransactions(c echo.Context) error {
	page, limit := utils.Pagination(c, defaultPageLimit, h.cfg.Billing.MaxPageSize)

	result, err := h.ledgerUC.ListTransactions(c.Request().Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return h.errorResponse(c, "Failed to list transactions", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Transactions retrieved", result)
}

// GetDeposit returns one of the caller's transactions
func (h *BillingHandler) GetDeposit(c echo.Context) error {
	txn, err := h.ledgerUC.GetDeposit(c.Request().Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		return h.errorResponse(c, "Failed to get deposit", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Deposit retrieved", txn)
}

// ListNotifications returns the caller's notifications, newest first
func (h *BillingHandler) ListNotifications(c echo.Context) error {
	page, limit := utils.Pagination(c, defaultPageLimit, h.cfg.Billing.MaxPageSize)

	result, err := h.notificationUC.ListNotifications(c.Request().Context(), middleware.UserID(c), page, limit)
	if err != nil {
		return h.errorResponse(c, "Failed to list notifications", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Notifications retrieved", result)
}

// MarkNotificationRead flags one of the caller's notifications as read
func (h *BillingHandler) MarkNotificationRead(c echo.Context) error {
	if err := h.notificationUC.MarkRead(c.Request().Context(), middleware.UserID(c), c.Param("id")); err != nil {
		return h.errorResponse(c, "Failed to mark notification read", err)
	}
	return utils.SuccessResponse(c, http.StatusOK, "Notification marked as read", nil)
}

// errorResponse maps domain errors onto the response envelope
func (h *BillingHandler) errorResponse(c echo.Context, msg string, err error) error {
	switch {
	case errors.Is(err, billing.ErrUnauthorized):
		return utils.UnauthorizedResponse(c, "")
	case errors.Is(err, billing.ErrInvalidAmount):
		return utils.BadRequestResponse(c, "Amount must be a whole number of at least the minimum deposit")
	case errors.Is(err, billing.ErrInvalidPaymentMethod):
		return utils.BadRequestResponse(c, "Unsupported payment method")
	case errors.Is(err, billing.ErrTransactionNotFound):
		return utils.NotFoundResponse(c, "Transaction not found")
	case errors.Is(err, billing.ErrUserNotFound):
		return utils.NotFoundResponse(c, "User not found")
	case errors.Is(err, billing.ErrNotificationNotFound):
		return utils.NotFoundResponse(c, "Notification not found")
	}

	logger.Error(msg,
		logger.String("user_id", middleware.UserID(c)),
		logger.String("path", c.Path()),
		logger.Err(err))
	nrpkg.NoticeError(c.Request().Context(), err)
	return utils.InternalServerErrorResponse(c, msg)
}
