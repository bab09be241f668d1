package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"hayoungplace/internal/bootstrap"
	"hayoungplace/internal/server"
	"hayoungplace/pkg/config"
	"hayoungplace/pkg/logger"
)

func main() {
	appConfig := config.Read()
	log := logger.New(appConfig.AppEnv)
	defer log.Sync()

	zap.L().Info("app starting...")
	zap.L().Info("app config", zap.Any("appConfig", appConfig.Redacted()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := bootstrap.Build(ctx, appConfig, bootstrap.Options{Publish: true, Cache: true, Images: true})
	cancel()
	if err != nil {
		zap.L().Fatal("Failed to initialise services", zap.Error(err))
	}

	app := server.New(server.Dependencies{
		Places:   container.Places,
		Comments: container.Comments,
		Parties:  container.Parties,
		Checks:   container.Checks,
	})

	// Start server in a goroutine
	go func() {
		if err := app.Listen(fmt.Sprintf("0.0.0.0:%s", appConfig.Port)); err != nil {
			zap.L().Error("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	zap.L().Info("Server started on port", zap.String("port", appConfig.Port))

	gracefulShutdown(app, container)
}

func gracefulShutdown(app *fiber.App, container *bootstrap.Container) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		zap.L().Error("Error during server shutdown", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	container.Close(ctx)

	zap.L().Info("Server gracefully stopped")
}
