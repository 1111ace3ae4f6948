package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/flightontime/config"
	"github.com/Domenick1991/flightontime/internal/bootstrap"
	"github.com/Domenick1991/flightontime/internal/logging"
	"github.com/gin-gonic/gin"
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

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Fatalw("failed to start", "error", err)
	}
	defer app.Close()

	servers := bootstrap.NewServers(cfg, app.Handler)
	servers.SetServing(true)

	if err := servers.Run(ctx, cfg, logger); err != nil {
		logger.Errorw("server error", "error", err)
	}
}
