package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	bookingsrepository "futsal/internal/bookings/repository"
	challengesrepository "futsal/internal/challenges/repository"
	"futsal/internal/reconcile"
	slotsrepository "futsal/internal/slots/repository"
	"futsal/pkg/config"
	"futsal/pkg/kafka"
	kafka_config "futsal/pkg/kafka/config"
	kafka_middleware "futsal/pkg/kafka/middleware"

	"golang.org/x/sync/errgroup"
)

const ServiceName = "reconciler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reconciler := reconcile.New(
		slotsrepository.NewMongoSlotRepository(cfg),
		bookingsrepository.NewMongoBookingRepository(cfg),
		challengesrepository.NewMongoChallengeRepository(cfg),
		cfg,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cfg.Log.Info("Starting reconcile sweeps", "interval", cfg.ReconcileInterval, "grace_period", cfg.ReconcileGracePeriod)
		return reconciler.Run(gctx)
	})

	if cfg.EventsEnabled {
		consumer := newConsumer(cfg, reconciler)
		defer func() {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka consumer", "error", err)
			}
		}()
		g.Go(func() error {
			cfg.Log.Info("Consuming violations", "topic", cfg.InconsistencyTopic, "group", cfg.ReconcilerGroupID)
			return consumer.Start(gctx)
		})
	} else {
		cfg.Log.Info("Events disabled, relying on sweeps only")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Reconciler stopped", "error", err)
		return
	}
	cfg.Log.Info("Reconciler stopped")
}

func newConsumer(cfg *config.Config, reconciler *reconcile.Reconciler) *kafka.Consumer {
	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.InconsistencyTopic,
		cfg.ReconcilerGroupID,
		kafkaCfg.DLQTopic(cfg.InconsistencyTopic),
		reconciler.MessageHandler(),
		cfg.Log,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))
	return consumer
}
