package nsq

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/piresc/vidcredit/internal/pkg/constants"
	"github.com/piresc/vidcredit/internal/pkg/logger"
	"github.com/piresc/vidcredit/internal/pkg/models"
	nsqpkg "github.com/piresc/vidcredit/internal/pkg/nsq"
)

// Deliverer pushes a message to every open socket of a user
type Deliverer interface {
	Deliver(userID string, msg models.WSMessage) int
}

// EventsHandler relays billing user events from NSQ to connected sockets
type EventsHandler struct {
	cfg       models.NSQConfig
	deliverer Deliverer
	consumer  *nsqpkg.Consumer
}

// NewEventsHandler creates a new NSQ events handler
func NewEventsHandler(cfg models.NSQConfig, deliverer Deliverer) *EventsHandler {
	return &EventsHandler{cfg: cfg, deliverer: deliverer}
}

// ChannelName returns a per-instance ephemeral channel so every instance
// receives every user event and nsqd drops the channel when it disconnects
func ChannelName(prefix string) string {
	if prefix == "" {
		prefix = "ws"
	}
	return fmt.Sprintf("%s-%s%s", prefix, uuid.NewString()[:8], constants.EphemeralChannelSuffix)
}

// Start connects the consumer
func (h *EventsHandler) Start() error {
	channel := ChannelName(h.cfg.ChannelPrefix)
	consumer, err := nsqpkg.NewConsumer(nsqpkg.ConsumerConfig{
		Topic:          constants.TopicUserEvents,
		Channel:        channel,
		NSQDAddress:    h.cfg.NSQDAddress,
		LookupdAddress: h.cfg.LookupdAddress,
		MaxInFlight:    h.cfg.MaxInFlight,
	}, h.handleMessage)
	if err != nil {
		return err
	}
	h.consumer = consumer

	logger.Info("Consuming billing user events",
		logger.String("topic", constants.TopicUserEvents),
		logger.String("channel", channel))
	return nil
}

// Stop disconnects the consumer
func (h *EventsHandler) Stop() {
	if h.consumer != nil {
		h.consumer.Stop()
	}
}

// handleMessage never asks for a requeue: a live event is worthless once stale
func (h *EventsHandler) handleMessage(body []byte) error {
	var event models.UserEvent
	if err := nsqpkg.UnmarshalMessage(body, &event); err != nil {
		logger.Warn("Dropped malformed billing user event", logger.Err(err))
		return nil
	}
	if event.UserID == "" || event.Event == "" {
		logger.Warn("Dropped billing user event", logger.Err(errors.New("missing user or event name")))
		return nil
	}

	h.deliverer.Deliver(event.UserID, models.WSMessage{Event: event.Event, Data: event.Data})
	return nil
}
