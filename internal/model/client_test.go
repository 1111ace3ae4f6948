package model

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/flightontime/internal/domain"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(waits *[]time.Duration) Option {
	return WithSleep(func(ctx context.Context, d time.Duration) error {
		if waits != nil {
			*waits = append(*waits, d)
		}
		return nil
	})
}

func sampleRequest() domain.PredictionRequest {
	return domain.PredictionRequest{
		Airline:       "AA",
		Origin:        "SFO",
		Destination:   "LAX",
		DepartureTime: time.Date(2026, 12, 25, 14, 30, 0, 0, time.UTC),
		DistanceKm:    559.23,
	}
}

// countingServer answers with handler and counts the calls.
func countingServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestClient_MockMode(t *testing.T) {
	c := NewClient("")

	first, err := c.PredictDelay(context.Background(), sampleRequest())
	require.NoError(t, err)
	second, err := c.PredictDelay(context.Background(), sampleRequest())
	require.NoError(t, err)

	assert.True(t, c.MockMode())
	assert.Equal(t, &domain.PredictionResponse{Prevision: "RETRASADO", Probabilidad: 0.78}, first)
	assert.Equal(t, first, second)

	result, ok := domain.ParsePredictionResult(first.Prevision)
	assert.True(t, ok)
	assert.Equal(t, domain.PredictionDelayed, result)
}

func TestClient_PredictDelay_SendsOutboundPayload(t *testing.T) {
	var got map[string]any
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"prevision":"A TIEMPO","probabilidad":0.12}`))
	})

	resp, err := NewClient(srv.URL).PredictDelay(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, &domain.PredictionResponse{Prevision: "A TIEMPO", Probabilidad: 0.12}, resp)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, map[string]any{
		"aerolinea":     "AA",
		"origen":        "SFO",
		"destino":       "LAX",
		"fecha_partida": "2026-12-25 14:30:00",
		"distancia_km":  559.23,
	}, got)
}

func TestClient_PredictDelay_ConnectionFailuresExhaustRetries(t *testing.T) {
	var attempts atomic.Int32
	// closed port: every dial is refused
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	var waits []time.Duration
	c := NewClient(url, noSleep(&waits), WithHTTPClient(&http.Client{
		Timeout: time.Second,
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			attempts.Add(1)
			return http.DefaultTransport.RoundTrip(r)
		}),
	}))

	_, err := c.PredictDelay(context.Background(), sampleRequest())

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, int32(3), attempts.Load())
	assert.Equal(t, []time.Duration{500 * time.Millisecond, time.Second}, waits)
}

func TestClient_PredictDelay_ClientErrorIsNotRetried(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"bad airline"}`, http.StatusBadRequest)
	})

	_, err := NewClient(srv.URL, noSleep(nil)).PredictDelay(context.Background(), sampleRequest())

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusBadRequest, serr.StatusCode)
	assert.Contains(t, serr.Body, "bad airline")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PredictDelay_UnprocessableIsNotRetried(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})

	_, err := NewClient(srv.URL, noSleep(nil)).PredictDelay(context.Background(), sampleRequest())

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusUnprocessableEntity, serr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_PredictDelay_ServerErrorThenSuccess(t *testing.T) {
	var n atomic.Int32
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if n.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"prevision":"RETRASADO","probabilidad":0.64}`))
	})

	reg := metrics.NewRegistry(prometheus.NewRegistry())
	resp, err := NewClient(srv.URL, noSleep(nil), WithMetrics(reg)).PredictDelay(context.Background(), sampleRequest())

	require.NoError(t, err)
	assert.Equal(t, 0.64, resp.Probabilidad)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ModelCallAttempts.WithLabelValues("retryable_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(reg.ModelCallAttempts.WithLabelValues("success")))
}

func TestClient_PredictDelay_ServerErrorExhaustion(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := NewClient(srv.URL, noSleep(nil)).PredictDelay(context.Background(), sampleRequest())

	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusServiceUnavailable, serr.StatusCode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_PredictDelay_MalformedResponse(t *testing.T) {
	cases := map[string]string{
		"not json":            `<html>oops</html>`,
		"missing prevision":   `{"probabilidad":0.5}`,
		"missing probability": `{"prevision":"A TIEMPO"}`,
		"probability above 1": `{"prevision":"A TIEMPO","probabilidad":1.5}`,
		"probability below 0": `{"prevision":"A TIEMPO","probabilidad":-0.1}`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})

			_, err := NewClient(srv.URL, noSleep(nil)).PredictDelay(context.Background(), sampleRequest())

			var merr *MalformedResponseError
			require.ErrorAs(t, err, &merr)
			assert.Equal(t, int32(1), calls.Load())
		})
	}
}

func TestClient_PredictDelay_BoundaryProbabilities(t *testing.T) {
	for _, body := range []string{`{"prevision":"A TIEMPO","probabilidad":0}`, `{"prevision":"RETRASADO","probabilidad":1}`} {
		srv, _ := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})

		_, err := NewClient(srv.URL).PredictDelay(context.Background(), sampleRequest())
		assert.NoError(t, err, body)
	}
}

func TestClient_PredictDelay_ContextCanceled(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	ctx, cancel := context.WithCancel(context.Background())

	c := NewClient(srv.URL, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	}))
	_, err := c.PredictDelay(ctx, sampleRequest())

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_WithRateLimit(t *testing.T) {
	srv, calls := countingServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prevision":"A TIEMPO","probabilidad":0.3}`))
	})
	c := NewClient(srv.URL, WithRateLimit(1000, 2))
	require.NotNil(t, c.limiter)

	for i := 0; i < 3; i++ {
		_, err := c.PredictDelay(context.Background(), sampleRequest())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())

	assert.Nil(t, NewClient(srv.URL, WithRateLimit(0, 0)).limiter)
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(&TransportError{Err: errors.New("dial tcp: connection refused")}))
	assert.True(t, Retryable(&StatusError{StatusCode: http.StatusInternalServerError}))
	assert.True(t, Retryable(&StatusError{StatusCode: http.StatusGatewayTimeout}))
	assert.False(t, Retryable(&StatusError{StatusCode: http.StatusBadRequest}))
	assert.False(t, Retryable(&StatusError{StatusCode: http.StatusUnprocessableEntity}))
	assert.False(t, Retryable(&MalformedResponseError{Reason: "missing prevision"}))
	assert.False(t, Retryable(errors.New("boom")))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}
