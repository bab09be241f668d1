package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"hayoungplace/infra/grpc"
	"hayoungplace/internal/bootstrap"
	"hayoungplace/pkg/config"
	"hayoungplace/pkg/logger"
)

func main() {
	appConfig := config.Read()
	log := logger.New(appConfig.AppEnv)
	defer log.Sync()

	zap.L().Info("Place gRPC Service starting...")

	grpcServer, err := grpc.NewServer(appConfig.GRPCPort)
	if err != nil {
		zap.L().Error("failed to create grpc server", zap.Error(err))
		os.Exit(1)
	}

	// Read-only surface, nothing to publish or upload.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := bootstrap.Build(ctx, appConfig, bootstrap.Options{Cache: true})
	cancel()
	if err != nil {
		zap.L().Error("failed to initialise services", zap.Error(err))
		os.Exit(1)
	}

	grpc.NewPlaceReadServer(container.Places, container.Comments).Register(grpcServer.GetGRPCServer())
	grpcServer.SetServing(grpc.PlaceReadServiceName, true)

	zap.L().Info("starting gRPC server...", zap.String("port", appConfig.GRPCPort))
	go func() {
		if err := grpcServer.Start(); err != nil {
			zap.L().Error("failed to start grpc server", zap.Error(err))
			os.Exit(1)
		}
	}()

	gracefulShutdown(grpcServer, container)
}

func gracefulShutdown(grpcServer *grpc.Server, container *bootstrap.Container) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	zap.L().Info("Shutting down server...")

	grpcServer.GracefulStop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	container.Close(ctx)

	zap.L().Info("Server gracefully stopped")
}
