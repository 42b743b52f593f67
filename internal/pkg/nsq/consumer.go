package nsq

import (
	"encoding/json"
	"fmt"

	"github.com/nsqio/go-nsq"
	"github.com/piresc/vidcredit/internal/pkg/logger"
)

// MessageHandler is a function that processes NSQ messages
type MessageHandler func(message []byte) error

// ConsumerConfig describes one topic/channel subscription
type ConsumerConfig struct {
	Topic          string
	Channel        string
	NSQDAddress    string
	LookupdAddress string
	MaxInFlight    int
}

// Consumer handles consuming messages from NSQ topics
type Consumer struct {
	consumer *nsq.Consumer
}

// NewConsumer subscribes handler to cfg.Topic/cfg.Channel, preferring lookupd discovery when configured
func NewConsumer(cfg ConsumerConfig, handler MessageHandler) (*Consumer, error) {
	config := nsq.NewConfig()
	if cfg.MaxInFlight > 0 {
		config.MaxInFlight = cfg.MaxInFlight
	}

	consumer, err := nsq.NewConsumer(cfg.Topic, cfg.Channel, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create NSQ consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelWarning)
	consumer.AddHandler(handlerFunc(cfg.Topic, handler))

	if cfg.LookupdAddress != "" {
		err = consumer.ConnectToNSQLookupd(cfg.LookupdAddress)
	} else {
		err = consumer.ConnectToNSQD(cfg.NSQDAddress)
	}
	if err != nil {
		consumer.Stop()
		return nil, fmt.Errorf("failed to connect NSQ consumer: %w", err)
	}

	return &Consumer{consumer: consumer}, nil
}

// handlerFunc adapts handler; a returned error requeues the message
func handlerFunc(topic string, handler MessageHandler) nsq.HandlerFunc {
	return func(message *nsq.Message) error {
		if err := handler(message.Body); err != nil {
			logger.Warn("Error processing NSQ message",
				logger.String("topic", topic),
				logger.Err(err))
			return err
		}
		return nil
	}
}

// UnmarshalMessage deserializes a JSON message into the provided struct
func UnmarshalMessage(messageBody []byte, v interface{}) error {
	if err := json.Unmarshal(messageBody, v); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	return nil
}

// Stop gracefully stops the consumer and waits for in-flight handlers
func (c *Consumer) Stop() {
	c.consumer.Stop()
	<-c.consumer.StopChan
}
