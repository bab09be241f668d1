package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hayoungplace/infra/rabbitmq"
	"hayoungplace/internal/bootstrap"
	"hayoungplace/internal/consumers"
	"hayoungplace/pkg/config"
	"hayoungplace/pkg/events"
	"hayoungplace/pkg/logger"
)

func main() {
	appConfig := config.Read()
	log := logger.New(appConfig.AppEnv)
	defer log.Sync()

	zap.L().Info("Place Worker Service starting...")
	zap.L().Info("Worker config loaded",
		zap.String("serviceName", appConfig.ServiceName),
		zap.String("storageDriver", appConfig.StorageDriver),
	)

	if appConfig.RabbitMQURL == "" {
		zap.L().Fatal("RABBITMQ_URL is required for worker service")
	}

	// Cache stays on so recounts invalidate listing pages.
	buildCtx, buildCancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := bootstrap.Build(buildCtx, appConfig, bootstrap.Options{Cache: true})
	buildCancel()
	if err != nil {
		zap.L().Fatal("Failed to initialise services", zap.Error(err))
	}

	placeHandler := consumers.NewPlaceEventHandler(container.Comments)

	placeConsumer, err := rabbitmq.NewConsumer(appConfig.RabbitMQURL, rabbitmq.ConsumerConfig{
		Exchange:      events.PlaceExchange,
		QueueName:     "worker.place.reconcile.v1", // {service}.{domain}.{purpose}.{version}
		RoutingKeys:   consumers.RoutingKeys,
		ServiceName:   appConfig.ServiceName,
		PrefetchCount: 10,
	})
	if err != nil {
		zap.L().Fatal("Failed to create place consumer", zap.Error(err))
	}
	defer placeConsumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		zap.L().Info("Starting place event consumer...")
		if err := placeConsumer.Consume(ctx, placeHandler.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("Place consumer error", zap.Error(err))
		}
	}()

	zap.L().Info("Worker service started successfully. Waiting for events...",
		zap.String("exchange", events.PlaceExchange),
		zap.Strings("routingKeys", consumers.RoutingKeys),
	)

	<-sigChan
	zap.L().Info("Shutdown signal received, stopping worker service...")
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	container.Close(closeCtx)

	zap.L().Info("Worker service stopped gracefully")
}
