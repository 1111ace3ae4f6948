// Package model talks to the external delay prediction model.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/Domenick1991/flightontime/internal/retry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	mockPrediction  = domain.LabelDelayed
	mockProbability = 0.78

	maxErrorBody = 4 << 10
)

type Predictor interface {
	PredictDelay(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error)
}

// StatusError is a non-2xx answer from the model.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("prediction model returned status %d", e.StatusCode)
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "prediction model unreachable: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is a 2xx answer that does not carry a usable prediction.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed prediction response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed prediction response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed: transport failures
// and 5xx answers.
func Retryable(err error) bool {
	var terr *TransportError
	if errors.As(err, &terr) {
		return true
	}
	var serr *StatusError
	return errors.As(err, &serr) && serr.StatusCode >= http.StatusInternalServerError
}

type predictRequest struct {
	Aerolinea    string  `json:"aerolinea"`
	Origen       string  `json:"origen"`
	Destino      string  `json:"destino"`
	FechaPartida string  `json:"fecha_partida"`
	DistanciaKm  float64 `json:"distancia_km"`
}

type predictResponse struct {
	Prevision    *string  `json:"prevision"`
	Probabilidad *float64 `json:"probabilidad"`
}

// Client calls the model over HTTP. With no URL it answers with a fixed mock
// prediction and makes no calls.
type Client struct {
	url        string
	httpClient *http.Client
	policy     retry.Policy
	limiter    *rate.Limiter
	sleep      func(ctx context.Context, d time.Duration) error
	metrics    *metrics.Registry
	logger     *zap.SugaredLogger
}

type Option func(*Client)

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds a single attempt, connection and body included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithRateLimit allows perSecond calls with the given burst. Zero disables it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSleep replaces the wait between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) {
		c.sleep = sleep
	}
}

func WithMetrics(m *metrics.Registry) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		policy:     retry.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger)
	return c
}

// MockMode reports whether the client answers without calling the model.
func (c *Client) MockMode() bool {
	return c.url == ""
}

func (c *Client) PredictDelay(ctx context.Context, req domain.PredictionRequest) (*domain.PredictionResponse, error) {
	if c.MockMode() {
		return &domain.PredictionResponse{Prevision: mockPrediction, Probabilidad: mockProbability}, nil
	}

	body, err := json.Marshal(predictRequest{
		Aerolinea:    req.Airline,
		Origen:       req.Origin,
		Destino:      req.Destination,
		FechaPartida: req.DepartureTime.Format(domain.DateTimeLayout),
		DistanciaKm:  req.DistanceKm,
	})
	if err != nil {
		return nil, fmt.Errorf("encode prediction request: %w", err)
	}

	opts := []retry.Option{
		retry.OnRetry(func(attempt int, delay time.Duration, err error) {
			c.logger.Warnw("prediction model call failed, retrying",
				"attempt", attempt,
				"max_attempts", c.policy.MaxAttempts,
				"backoff", delay.String(),
				"error", err,
			)
		}),
	}
	if c.sleep != nil {
		opts = append(opts, retry.WithSleep(c.sleep))
	}

	resp, err := retry.Do(ctx, c.policy, func(ctx context.Context) (*domain.PredictionResponse, error) {
		return c.attempt(ctx, body)
	}, Retryable, opts...)
	if err != nil {
		c.logger.Errorw("prediction model call failed", "error", err)
		return nil, err
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, body []byte) (*domain.PredictionResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.post(ctx, body)
	switch {
	case err == nil:
		c.metrics.ModelAttempt("success")
	case Retryable(err):
		c.metrics.ModelAttempt("retryable_error")
	default:
		c.metrics.ModelAttempt("terminal_error")
	}
	return resp, err
}

func (c *Client) post(ctx context.Context, body []byte) (*domain.PredictionResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build prediction request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: httpResp.StatusCode, Body: string(raw)}
	}

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	return decodePrediction(raw)
}

func decodePrediction(raw []byte) (*domain.PredictionResponse, error) {
	var payload predictResponse
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &MalformedResponseError{Reason: "undecodable body", Err: err}
	}
	if payload.Prevision == nil {
		return nil, &MalformedResponseError{Reason: "missing prevision"}
	}
	if payload.Probabilidad == nil {
		return nil, &MalformedResponseError{Reason: "missing probabilidad"}
	}
	if p := *payload.Probabilidad; p < 0 || p > 1 {
		return nil, &MalformedResponseError{Reason: fmt.Sprintf("probabilidad %v outside [0,1]", p)}
	}
	return &domain.PredictionResponse{Prevision: *payload.Prevision, Probabilidad: *payload.Probabilidad}, nil
}

var _ Predictor = (*Client)(nil)
