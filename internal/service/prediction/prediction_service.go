package prediction

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/Domenick1991/flightontime/internal/model"
	"go.uber.org/zap"
)

type PredictionUseCase interface {
	Predict(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error)
}

type RequestValidator interface {
	Validate(ctx context.Context, req domain.PredictionRequest) (domain.PredictionRequest, error)
}

type HistoryRecorder interface {
	Record(ctx context.Context, record *domain.HistoryRecord) error
}

type PredictionService struct {
	validator RequestValidator
	predictor model.Predictor
	history   HistoryRecorder
	metrics   *metrics.Registry
	logger    *zap.SugaredLogger
	now       func() time.Time
}

type Option func(*PredictionService)

func WithMetrics(m *metrics.Registry) Option {
	return func(s *PredictionService) {
		s.metrics = m
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(s *PredictionService) {
		s.logger = logger
	}
}

// WithClock replaces time.Now for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *PredictionService) {
		s.now = now
	}
}

func NewPredictionService(validator RequestValidator, predictor model.Predictor, history HistoryRecorder, opts ...Option) *PredictionService {
	s := &PredictionService{
		validator: validator,
		predictor: predictor,
		history:   history,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s
}

// Predict validates req, asks the model and records the outcome. The model's
// answer is returned unchanged; a failed history write is logged only. The
// write is detached from ctx cancellation so a client disconnect after the
// model answered does not drop the record.
func (s *PredictionService) Predict(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error) {
	normalized, err := s.validator.Validate(ctx, req)
	if err != nil {
		return nil, s.fail(err)
	}

	resp, err := s.predictor.PredictDelay(ctx, normalized)
	if err != nil {
		return nil, s.fail(classifyModelError(err))
	}

	result, ok := domain.ParsePredictionResult(resp.Prevision)
	if !ok {
		s.logger.Warnw("unrecognized prediction label, treating as delayed",
			"prevision", resp.Prevision,
			"fallback", string(result),
		)
	}
	s.metrics.PredictionSucceeded(string(result))

	if s.history != nil {
		s.persist(context.WithoutCancel(ctx), normalized, result, resp.Probabilidad)
	}
	return resp, nil
}

func (s *PredictionService) persist(ctx context.Context, req domain.PredictionRequest, result domain.PredictionResult, probability float64) {
	now := s.now()
	record := &domain.HistoryRecord{
		Airline:       req.Airline,
		Origin:        req.Origin,
		Destination:   req.Destination,
		DepartureTime: req.DepartureTime,
		DistanceKm:    int(req.DistanceKm),
		Result:        result,
		Probability:   probability,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.history.Record(ctx, record); err != nil {
		s.metrics.HistoryWriteFailed()
		s.logger.Errorw("failed to record prediction",
			"code", domain.KindPersistence.Code(),
			"aerolinea", req.Airline,
			"origen", req.Origin,
			"destino", req.Destination,
			"error", err,
		)
	}
}

func (s *PredictionService) fail(err error) error {
	kind := domain.KindOf(err)
	s.metrics.PredictionFailed(kind.Code())
	if kind.HTTPStatus() >= http.StatusInternalServerError {
		s.logger.Errorw("prediction failed", "code", kind.Code(), "error", err)
	}
	return err
}

// classifyModelError maps a Predictor failure onto the error taxonomy.
func classifyModelError(err error) error {
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}

	var serr *model.StatusError
	if errors.As(err, &serr) {
		switch {
		case serr.StatusCode == http.StatusUnprocessableEntity:
			return domain.NewError(domain.KindModelUnprocessable, "model could not process request", err)
		case serr.StatusCode >= http.StatusInternalServerError:
			return domain.NewError(domain.KindModelServer, "internal error in prediction model", err)
		default:
			return domain.NewError(domain.KindModelClient, "prediction model rejected the request", err)
		}
	}

	var terr *model.TransportError
	if errors.As(err, &terr) {
		return domain.NewError(domain.KindModelUnavailable, "prediction service temporarily unavailable", err)
	}

	return domain.NewError(domain.KindUnexpected, "unexpected error", err)
}

var _ PredictionUseCase = (*PredictionService)(nil)
