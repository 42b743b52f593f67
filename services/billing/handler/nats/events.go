package nats

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
	natspkg "github.com/piresc/vidcredit/internal/pkg/nats"
)

// Deliverer pushes a message to every open socket of a user
type Deliverer interface {
	Deliver(userID string, msg models.WSMessage) int
}

// EventsHandler relays billing user events from NATS to connected sockets.
// Every instance subscribes without a queue group so each one sees every event.
type EventsHandler struct {
	client    *natspkg.Client
	deliverer Deliverer
	subs      []*nats.Subscription
}

// NewEventsHandler creates a new NATS events handler
func NewEventsHandler(client *natspkg.Client, deliverer Deliverer) *EventsHandler {
	return &EventsHandler{
		client:    client,
		deliverer: deliverer,
		subs:      make([]*nats.Subscription, 0),
	}
}

// InitNATSConsumers subscribes to the per-user billing subjects
func (h *EventsHandler) InitNATSConsumers() error {
	sub, err := h.client.Subscribe(constants.SubjectUserEventAll, func(msg *nats.Msg) {
		if err := h.handleUserEvent(msg.Data); err != nil {
			logger.Warn("Dropped billing user event",
				logger.String("subject", msg.Subject),
				logger.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", constants.SubjectUserEventAll, err)
	}
	h.subs = append(h.subs, sub)

	logger.Info("Subscribed to billing user events", logger.String("subject", constants.SubjectUserEventAll))
	return nil
}

// Close drains all subscriptions
func (h *EventsHandler) Close() {
	for _, sub := range h.subs {
		if err := sub.Unsubscribe(); err != nil {
			logger.Warn("Failed to unsubscribe", logger.String("subject", sub.Subject), logger.Err(err))
		}
	}
	h.subs = nil
}

func (h *EventsHandler) handleUserEvent(data []byte) error {
	var event models.UserEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("invalid user event: %w", err)
	}
	if event.UserID == "" || event.Event == "" {
		return fmt.Errorf("user event missing user or event name")
	}

	delivered := h.deliverer.Deliver(event.UserID, models.WSMessage{Event: event.Event, Data: event.Data})
	logger.Debug("Delivered billing user event",
		logger.String("user_id", event.UserID),
		logger.String("event", event.Event),
		logger.Int("sockets", delivered))
	return nil
}
