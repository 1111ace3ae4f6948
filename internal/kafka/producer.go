package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/segmentio/kafka-go"
)

const EventPredictionRecorded = "prediction_recorded"

// PredictionEvent is published after a prediction has been stored.
type PredictionEvent struct {
	Type          string    `json:"type"`
	ID            int64     `json:"id"`
	Airline       string    `json:"aerolinea"`
	Origin        string    `json:"origen"`
	Destination   string    `json:"destino"`
	DepartureTime string    `json:"fecha_partida"`
	DistanceKm    int       `json:"distancia_km"`
	Prediction    string    `json:"prevision"`
	Probability   float64   `json:"probabilidad"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewPredictionEvent(record domain.HistoryRecord) PredictionEvent {
	return PredictionEvent{
		Type:          EventPredictionRecorded,
		ID:            record.ID,
		Airline:       record.Airline,
		Origin:        record.Origin,
		Destination:   record.Destination,
		DepartureTime: record.DepartureTime.Format(domain.DateTimeLayout),
		DistanceKm:    record.DistanceKm,
		Prediction:    record.Result.Label(),
		Probability:   record.Probability,
		CreatedAt:     record.CreatedAt,
	}
}

// Key partitions events by route.
func (e PredictionEvent) Key() string {
	return e.Airline + ":" + e.Origin + "-" + e.Destination
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and lists the cluster partitions,
// bounded by the ctx deadline.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := conn.ReadPartitions(); err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}
	return nil
}
