package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"notesync-be/internal/bootstrap"
	"notesync-be/internal/config"
	"notesync-be/internal/server"
	"notesync-be/internal/tracer"
	"notesync-be/pkg/database"
)

func main() {
	cfg := config.Load()

	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	shutdownTracer := tracer.InitTracer(cfg.App, container.Logger)
	defer shutdownTracer(context.Background())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go container.WebSocketHub.Run(ctx)

	if err := container.ConsumerService.Consume(ctx); err != nil {
		log.Panicf("Unable to start note change consumer: %v", err)
	}

	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		container.Logger.Info("Main", "Shutting down", nil)
		_ = srv.Shutdown()
	}()

	if err := srv.Run(); err != nil {
		container.Logger.Error("Main", "Server stopped", map[string]interface{}{"error": err})
	}
}
