package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightontime/config"
	"github.com/Domenick1991/flightontime/internal/audit"
	"github.com/Domenick1991/flightontime/internal/kafka"
	"github.com/Domenick1991/flightontime/internal/logging"
	kafkaGo "github.com/segmentio/kafka-go"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatalw("kafka.brokers is empty, nothing to consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.PredictionTopic)
	defer consumer.Close()

	sink := audit.NewSink(logger)
	logger.Infow("audit worker started", "topic", cfg.Kafka.PredictionTopic, "group_id", cfg.Kafka.GroupID)

	err = consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
		event, err := kafka.DecodePredictionEvent(msg)
		if err != nil {
			if errors.Is(err, kafka.ErrUnknownEvent) {
				logger.Debugw("skipping event", "type", event.Type, "offset", msg.Offset)
				return nil
			}
			logger.Warnw("decode event error", "offset", msg.Offset, "error", err)
			return nil
		}
		return sink.Record(ctx, event)
	})
	if err != nil {
		logger.Errorw("consumer stopped", "error", err)
	}
	logger.Infow("audit worker stopped", "recorded", sink.Recorded())
}
