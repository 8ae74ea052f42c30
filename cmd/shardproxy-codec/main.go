package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/guileen/shardproxy/config"
	"github.com/guileen/shardproxy/errors"
	"github.com/guileen/shardproxy/logger"
	"github.com/guileen/shardproxy/protocol/api"
	"github.com/guileen/shardproxy/protocol/mysql/execute"
	"github.com/guileen/shardproxy/protocol/mysql/payload"
)

func main() {
	var (
		configPath = flag.String("config", "", "TOML config file path")
		addr       = flag.String("addr", "", "Listen address, overrides the config")
	)
	flag.Parse()

	logger.Configure(logger.LoadConfig())

	cfg, err := loadConfig(*configPath)
	if err != nil {
		errors.LogError(context.Background(), err)
		log.Fatalf("failed to load config: %v", err)
	}
	if *addr != "" {
		cfg.API.Address = *addr
	}

	registry := execute.NewStatementRegistry(cfg.Codec.MaxPreparedStatements)
	handler := execute.NewHandler(registry, cfg.Codec.MaxPayloadSize)
	pool := payload.NewBufferPool(cfg.Codec.PayloadBufferInitialSize)
	restHandler := api.NewRESTHandler(handler, pool, cfg.API.BodyLimit)

	r := chi.NewRouter()
	r.Use(api.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	restHandler.RegisterRoutes(r)

	server := &http.Server{
		Addr:              cfg.API.Address,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", cfg.API.Address)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed to start", "error", err, "address", cfg.API.Address)
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownStart := time.Now()
	logger.Info("Shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
		log.Fatalf("HTTP server shutdown failed: %v", err)
	}
	logger.Info("HTTP server shutdown complete",
		"shutdown_duration", time.Since(shutdownStart).String(),
		"prepared_statements", registry.Len())
}

func loadConfig(path string) (config.ProxyConfig, error) {
	if path == "" {
		cfg := config.LoadProxyConfig()
		return cfg, cfg.Validate()
	}
	return config.LoadProxyConfigFile(path)
}
