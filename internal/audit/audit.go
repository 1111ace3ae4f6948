// Package audit records prediction events consumed from Kafka.
package audit

import (
	"context"
	"sync/atomic"

	"github.com/Domenick1991/flightontime/internal/kafka"
	"github.com/Domenick1991/flightontime/internal/logging"
	"go.uber.org/zap"
)

type Sink struct {
	logger   *zap.SugaredLogger
	recorded atomic.Int64
}

func NewSink(logger *zap.SugaredLogger) *Sink {
	return &Sink{logger: logging.OrNop(logger)}
}

func (s *Sink) Record(ctx context.Context, event kafka.PredictionEvent) error {
	s.recorded.Add(1)
	s.logger.Infow("prediction recorded",
		"id", event.ID,
		"aerolinea", event.Airline,
		"origen", event.Origin,
		"destino", event.Destination,
		"fecha_partida", event.DepartureTime,
		"distancia_km", event.DistanceKm,
		"prevision", event.Prediction,
		"probabilidad", event.Probability,
		"created_at", event.CreatedAt,
	)
	return nil
}

// Recorded is the number of events seen since start.
func (s *Sink) Recorded() int64 {
	return s.recorded.Load()
}
