package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/piresc/vidcredit/internal/pkg/models"
	wspkg "github.com/piresc/vidcredit/internal/pkg/websocket"
	"github.com/piresc/vidcredit/services/billing"
	httpHandler "github.com/piresc/vidcredit/services/billing/handler/http"
	wsHandler "github.com/piresc/vidcredit/services/billing/handler/websocket"
)

// Middlewares are the route guards supplied by main
type Middlewares struct {
	Auth           echo.MiddlewareFunc
	WebSocketAuth  echo.MiddlewareFunc
	DepositLimiter echo.MiddlewareFunc
}

// Handler combines all HTTP-facing handlers for the billing service
type Handler struct {
	billingHTTP *httpHandler.BillingHandler
	billingWS   *wsHandler.WebSocketHandler
	cfg         *models.Config
}

// NewHandler creates a new combined handler
func NewHandler(
	cfg *models.Config,
	depositUC billing.DepositUC,
	reconcileUC billing.ReconcileUC,
	ledgerUC billing.LedgerUC,
	notificationUC billing.NotificationUC,
	manager *wspkg.Manager,
) *Handler {
	return &Handler{
		billingHTTP: httpHandler.NewBillingHandler(cfg, depositUC, reconcileUC, ledgerUC, notificationUC),
		billingWS:   wsHandler.NewWebSocketHandler(manager),
		cfg:         cfg,
	}
}

// RegisterRoutes registers all billing routes
func (h *Handler) RegisterRoutes(e *echo.Echo, mw Middlewares) {
	api := e.Group("/api/v1")

	// Gateway callbacks are authenticated by signature, not by JWT
	api.POST("/billing/webhook/payos", h.billingHTTP.PaymentWebhook)

	billingGroup := api.Group("/billing", optional(mw.Auth)...)
	billingGroup.POST("/deposits", h.billingHTTP.CreateDeposit, optional(mw.DepositLimiter)...)
	billingGroup.GET("/deposits/:id", h.billingHTTP.GetDeposit)
	billingGroup.GET("/balance", h.billingHTTP.GetBalance)
	billingGroup.GET("/transactions", h.billingHTTP.ListTransactions)

	notificationsGroup := api.Group("/notifications", optional(mw.Auth)...)
	notificationsGroup.GET("", h.billingHTTP.ListNotifications)
	notificationsGroup.PUT("/:id/read", h.billingHTTP.MarkNotificationRead)

	e.GET("/ws", h.billingWS.Serve, optional(mw.WebSocketAuth)...)
}

func optional(m echo.MiddlewareFunc) []echo.MiddlewareFunc {
	if m == nil {
		return nil
	}
	return []echo.MiddlewareFunc{m}
}
