// Command api runs the fleet telemetry ingestion service.
//
// All connection lifecycle lives here: the Mongo client, Redis client, and
// Kafka producer are constructed once, injected into the router, and torn
// down in reverse order on shutdown.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/logistream/fleet-telemetry/internal/api"
	"github.com/logistream/fleet-telemetry/internal/infrastructure/db/mongo"
	"github.com/logistream/fleet-telemetry/internal/infrastructure/db/redis"
	"github.com/logistream/fleet-telemetry/internal/infrastructure/messaging/kafka"
	"github.com/logistream/fleet-telemetry/internal/pkg/config"
	"github.com/logistream/fleet-telemetry/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongodb connection failed")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}

	bus := kafka.NewBus(kafka.Config{
		Brokers:  cfg.Kafka.Brokers,
		Topic:    cfg.Kafka.Topic,
		ClientID: cfg.Kafka.ClientID,
	}, log)
	if err := bus.Connect(ctx); err != nil {
		log.Fatal().Err(err).Msg("kafka connection failed")
	}

	e := api.NewRouter(db, rdb, bus, cfg.JWTSecret, log)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("telemetry api started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	if err := bus.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("kafka disconnect failed")
	}
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("redis close failed")
	}
	if err := mongoClient.Disconnect(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("mongodb disconnect failed")
	}
}
