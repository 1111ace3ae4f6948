package history

import (
	"context"
	"errors"

	"github.com/Domenick1991/flightontime/internal/cache"
	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/kafka"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/repository"
	"go.uber.org/zap"
)

type HistoryUseCase interface {
	Record(ctx context.Context, record *domain.HistoryRecord) error
	FindAll(ctx context.Context) ([]domain.HistoryRecord, error)
}

// Cache holds the history listing. SetHistory must reject a fill whose
// version was superseded by InvalidateHistory.
type Cache interface {
	GetHistory(ctx context.Context) ([]domain.HistoryRecord, error)
	HistoryVersion(ctx context.Context) (int64, error)
	SetHistory(ctx context.Context, version int64, records []domain.HistoryRecord) error
	InvalidateHistory(ctx context.Context) error
}

type EventProducer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type HistoryService struct {
	repo     repository.HistoryRepository
	cache    Cache
	producer EventProducer
	topic    string
	logger   *zap.SugaredLogger
}

type Option func(*HistoryService)

func WithCache(cache Cache) Option {
	return func(s *HistoryService) {
		s.cache = cache
	}
}

// WithProducer publishes a prediction_recorded event to topic after each record.
func WithProducer(producer EventProducer, topic string) Option {
	return func(s *HistoryService) {
		s.producer = producer
		s.topic = topic
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *HistoryService) {
		s.logger = logger
	}
}

func NewHistoryService(repo repository.HistoryRepository, opts ...Option) *HistoryService {
	s := &HistoryService{repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Record stores record. Only the store write can fail the call; cache
// invalidation and event publishing are logged on failure.
func (s *HistoryService) Record(ctx context.Context, record *domain.HistoryRecord) error {
	if err := s.repo.Create(ctx, record); err != nil {
		return domain.NewError(domain.KindPersistence, "failed to store prediction", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateHistory(ctx); err != nil {
			s.logger.Warnw("failed to invalidate history cache", "error", err)
		}
	}

	if s.producer != nil {
		event := kafka.NewPredictionEvent(*record)
		if err := s.producer.Publish(ctx, s.topic, event.Key(), event); err != nil {
			s.logger.Warnw("failed to publish prediction event", "id", record.ID, "topic", s.topic, "error", err)
		}
	}
	return nil
}

// FindAll returns every record, newest first. The cache is filled only if
// no record was written while the store was being read.
func (s *HistoryService) FindAll(ctx context.Context) ([]domain.HistoryRecord, error) {
	fill := false
	var version int64
	if s.cache != nil {
		if cached, err := s.cache.GetHistory(ctx); err == nil && cached != nil {
			return cached, nil
		}
		v, err := s.cache.HistoryVersion(ctx)
		fill, version = err == nil, v
	}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if fill {
		if err := s.cache.SetHistory(ctx, version, records); err != nil && !errors.Is(err, cache.ErrStaleHistory) {
			s.logger.Debugw("failed to fill history cache", "error", err)
		}
	}
	return records, nil
}

var _ HistoryUseCase = (*HistoryService)(nil)
