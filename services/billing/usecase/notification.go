package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/piresc/vidcredit/internal/pkg/models"
	"github.com/piresc/vidcredit/services/billing"
)

// notificationUC implements billing.NotificationUC
type notificationUC struct {
	cfg       *models.Config
	notifRepo billing.NotificationRepo
}

// NewNotificationUC creates the notification reader
func NewNotificationUC(cfg *models.Config, notifRepo billing.NotificationRepo) (billing.NotificationUC, error) {
	return &notificationUC{cfg: cfg, notifRepo: notifRepo}, nil
}

func (uc *notificationUC) ListNotifications(ctx context.Context, userID string, page, limit int) (*models.NotificationPage, error) {
	if userID == "" {
		return nil, billing.ErrUnauthorized
	}
	page, limit = normalizePage(page, limit, uc.cfg.Billing.MaxPageSize)

	items, total, err := uc.notifRepo.ListNotifications(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []*models.Notification{}
	}
	return &models.NotificationPage{Items: items, Page: page, Limit: limit, Total: total}, nil
}

func (uc *notificationUC) MarkRead(ctx context.Context, userID, id string) error {
	if userID == "" {
		return billing.ErrUnauthorized
	}
	if _, err := uuid.Parse(id); err != nil {
		return billing.ErrNotificationNotFound
	}
	return uc.notifRepo.MarkNotificationRead(ctx, id, userID)
}
