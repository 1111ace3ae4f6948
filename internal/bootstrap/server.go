package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Domenick1991/flightontime/api"
	"github.com/Domenick1991/flightontime/config"
	_ "github.com/Domenick1991/flightontime/docs"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/Domenick1991/flightontime/internal/metrics"
	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type HTTPDeps struct {
	Handler        *api.PredictionHandler
	Metrics        *metrics.Registry
	Gatherer       prometheus.Gatherer
	Logger         *zap.SugaredLogger
	AllowedOrigins []string
}

// NewHTTPHandler builds the gin engine with every route and wraps it in CORS.
func NewHTTPHandler(d HTTPDeps) http.Handler {
	engine := gin.New()
	engine.Use(gin.Recovery(), api.RequestID(), api.Observe(d.Metrics, d.Logger))

	d.Handler.Register(engine.Group("/predict"))

	if d.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}
	engine.GET("/swagger/*any", gin.WrapH(httpSwagger.WrapHandler))

	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", api.HeaderRequestID},
		ExposedHeaders:   []string{api.HeaderRequestID},
		AllowCredentials: false,
		MaxAge:           300,
	})(engine)
}

type Servers struct {
	grpcServer *grpc.Server
	health     *health.Server
	httpServer *http.Server
}

func NewServers(cfg *config.Config, handler http.Handler) *Servers {
	s := &Servers{
		httpServer: &http.Server{
			Addr:              cfg.HTTP.Address,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	if cfg.GRPC.Address != "" {
		s.grpcServer = grpc.NewServer()
		s.health = health.NewServer()
		s.health.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
		healthpb.RegisterHealthServer(s.grpcServer, s.health)
	}
	return s
}

// SetServing flips the gRPC health status once dependencies are ready.
func (s *Servers) SetServing(serving bool) {
	if s.health == nil {
		return
	}
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", status)
}

// Run starts the HTTP server and, when configured, the gRPC health server.
// It blocks until ctx is canceled or a server fails.
func (s *Servers) Run(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) error {
	logger = logging.OrNop(logger)
	errCh := make(chan error, 2)

	if s.grpcServer != nil {
		lis, err := net.Listen("tcp", cfg.GRPC.Address)
		if err != nil {
			return fmt.Errorf("listen gRPC %s: %w", cfg.GRPC.Address, err)
		}
		logger.Infow("gRPC health server listening", "address", cfg.GRPC.Address)
		go func() { errCh <- s.grpcServer.Serve(lis) }()
	}

	logger.Infow("HTTP server listening", "address", cfg.HTTP.Address)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Infow("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.health != nil {
			s.health.Shutdown()
		}
		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
