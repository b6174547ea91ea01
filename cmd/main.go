package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ukydev/metro-telemetry/internal/app"
	"github.com/ukydev/metro-telemetry/internal/auth"
	"github.com/ukydev/metro-telemetry/internal/config"
	"github.com/ukydev/metro-telemetry/internal/handlers"
	"github.com/ukydev/metro-telemetry/internal/middleware"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		log.WithError(err).Warn("Failed to load .env file")
	}
	cfg := config.Load()
	config.ConfigureLogging(cfg)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	network, err := app.LoadNetwork(cfg.RoutesFile)
	if err != nil {
		return err
	}
	runner := app.NewRunner(network, cfg)

	mongoClient, err := app.ConnectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.DisconnectMongo(mongoClient)

	routerCfg, err := routerConfig(ctx, cfg, mongoClient)
	if err != nil {
		return err
	}

	sinks, err := app.BuildSinks(ctx, cfg, mongoClient)
	if err != nil {
		return err
	}
	waitDispatcher := app.StartDispatcher(ctx, runner, cfg, sinks)

	runnerDone := make(chan struct{})
	go func() {
		defer close(runnerDone)
		runner.Run(ctx)
	}()

	api := handlers.NewAPI(runner, network, cfg.CORSOrigins)
	srv := newServer(ctx, cfg, handlers.NewRouter(api, routerCfg))

	serveErr := make(chan error, 1)
	go func() {
		defer close(serveErr)
		log.WithFields(log.Fields{
			"addr": srv.Addr,
			"auth": cfg.AuthEnabled,
		}).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down")
	case err = <-serveErr:
	}
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		log.WithError(shutdownErr).Warn("HTTP shutdown incomplete")
	}
	<-runnerDone
	waitDispatcher()
	return err
}

// routerConfig enables token auth when configured. Rate limiting always applies.
func routerConfig(ctx context.Context, cfg *config.Config, mongoClient *mongo.Client) (handlers.RouterConfig, error) {
	rc := handlers.RouterConfig{
		RateLimiter:       middleware.NewRateLimitMiddleware(),
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitWindow:   cfg.RateLimitWindowSecs,
		CORSOrigins:       cfg.CORSOrigins,
	}
	if !cfg.AuthEnabled {
		log.Warn("Authentication disabled; every endpoint is public")
		return rc, nil
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return rc, err
	}
	operators, err := app.Operators(ctx, cfg, authService, mongoClient)
	if err != nil {
		return rc, err
	}
	rc.Auth = middleware.NewAuthMiddleware(authService)
	rc.Tokens = handlers.NewAuthHandler(authService, operators)
	return rc, nil
}

// newServer ties request contexts to ctx so open streams end when the process stops.
func newServer(ctx context.Context, cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}
