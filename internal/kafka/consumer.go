package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is done or handler fails. A canceled ctx ends it
// without error.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// ErrUnknownEvent marks a message whose type is not handled.
var ErrUnknownEvent = errors.New("unknown event type")

// DecodePredictionEvent parses a message published by Producer.
func DecodePredictionEvent(msg kafka.Message) (PredictionEvent, error) {
	var event PredictionEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return PredictionEvent{}, err
	}
	if event.Type != EventPredictionRecorded {
		return event, ErrUnknownEvent
	}
	return event, nil
}
