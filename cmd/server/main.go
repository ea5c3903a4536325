package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mcoot/chessrooms/internal/api"
	"github.com/mcoot/chessrooms/internal/api/handler"
	"github.com/mcoot/chessrooms/internal/config"
	"github.com/mcoot/chessrooms/internal/factory"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	env, err := config.Load(".env")
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Handle graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Create application factory
	app, err := factory.New(ctx, factory.FromEnv(env, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Start(ctx)

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Sessions:      app.Sessions,
		KeyExchange:   app.KeyExchange,
		Accounts:      app.Accounts,
		Engine:        app.Engine,
		Rooms:         app.Rooms,
		Connections:   app.Connections,
		Realtime:      app.Realtime,
		Cookie:        handler.CookieConfig{Secure: env.CookieSecure},
		AllowedOrigin: env.AllowedOrigin,
	})

	serverConfig := api.DefaultServerConfig().WithEngineTimeout(env.EngineTimeout)
	serverConfig.Port = env.Port
	server := api.NewServer(router, serverConfig, logger)
	server.OnShutdown(app.Realtime.Shutdown)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("session_store", env.SessionStore),
		slog.String("user_store", env.UserStore),
		slog.String("engine", env.EnginePath))

	// Wait for shutdown or error
	exitCode := 0
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			exitCode = 1
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			exitCode = 1
		}
	}

	if err := app.Close(); err != nil {
		logger.Error("close error", slog.String("error", err.Error()))
		exitCode = 1
	}
	logger.Info("server stopped")
	os.Exit(exitCode)
}
