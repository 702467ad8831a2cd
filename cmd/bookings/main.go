package main

import (
	"time"

	bookingshandler "futsal/internal/bookings/handler"
	bookingsrepository "futsal/internal/bookings/repository"
	bookingsservice "futsal/internal/bookings/service"
	bookingsvalidator "futsal/internal/bookings/validator"
	challengeshandler "futsal/internal/challenges/handler"
	challengesrepository "futsal/internal/challenges/repository"
	challengesservice "futsal/internal/challenges/service"
	challengesvalidator "futsal/internal/challenges/validator"
	"futsal/internal/events"
	slotshandler "futsal/internal/slots/handler"
	slotsrepository "futsal/internal/slots/repository"
	slotsservice "futsal/internal/slots/service"
	slotsvalidator "futsal/internal/slots/validator"
	venuesrepository "futsal/internal/venues/repository"
	"futsal/pkg/app"
	"futsal/pkg/auth"
	"futsal/pkg/config"
	"futsal/pkg/kafka"
	kafka_config "futsal/pkg/kafka/config"
	kafka_middleware "futsal/pkg/kafka/middleware"
)

const (
	ServiceName = "bookings"

	// tokens are issued by the identity provider; the TTL only matters to Issue
	tokenTTL = time.Hour
)

type services struct {
	slots      slotsservice.SlotService
	bookings   bookingsservice.BookingService
	challenges challengesservice.ChallengeService
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Bookings service")
	publisher, closePublisher := initPublisher(cfg)
	svc := initServices(cfg, publisher)

	if err := cfg.ValidateAuth(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	tokens, err := auth.NewTokenService(cfg.JWTSecret, tokenTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to create token service", "error", err)
	}
	serverApp := app.NewApplication(cfg, tokens)
	serverApp.OnShutdown(closePublisher)
	serverApp.SetApp(
		slotshandler.NewSlotHandler(svc.slots, cfg.Log),
		bookingshandler.NewBookingHandler(svc.bookings, cfg.Log),
		challengeshandler.NewChallengeHandler(svc.challenges, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) services {
	venueRepo := venuesrepository.NewMongoVenueRepository(cfg)
	slotRepo := slotsrepository.NewMongoSlotRepository(cfg)
	bookingRepo := bookingsrepository.NewMongoBookingRepository(cfg)
	challengeRepo := challengesrepository.NewMongoChallengeRepository(cfg)

	svc := services{
		slots: slotsservice.NewSlotService(
			slotRepo,
			venueRepo,
			slotsvalidator.NewSlotValidator(cfg.Log),
			cfg,
		),
		bookings: bookingsservice.NewBookingService(
			bookingRepo,
			slotRepo,
			venueRepo,
			bookingsvalidator.NewBookingValidator(cfg.Log),
			publisher,
			cfg,
		),
		challenges: challengesservice.NewChallengeService(
			challengeRepo,
			bookingRepo,
			challengesvalidator.NewChallengeValidator(cfg.Log),
			publisher,
			cfg,
		),
	}

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)
	return svc
}

// initPublisher returns the Kafka publisher when events are enabled and a
// no-op one otherwise, with a func that closes whatever it opened.
func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Events disabled, publishing nothing")
		return events.Noop(), func() {}
	}

	kafkaCfg, err := kafka_config.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log)

	eventsProducer := newProducer(cfg, kafkaCfg, cfg.EventsTopic)
	violationsProducer := newProducer(cfg, kafkaCfg, cfg.InconsistencyTopic)

	closeAll := func() {
		for _, p := range []*kafka.Producer{eventsProducer, violationsProducer} {
			if err := p.Close(); err != nil {
				cfg.Log.Error("Failed to close Kafka producer", "topic", p.Topic(), "error", err)
			}
		}
	}
	return events.NewKafkaPublisher(eventsProducer, violationsProducer, ServiceName, cfg.Log), closeAll
}

func newProducer(cfg *config.Config, kafkaCfg *kafka_config.Config, topic string) *kafka.Producer {
	producer, err := kafka.NewProducer(kafkaCfg, topic, kafkaCfg.DLQTopic(topic), cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "topic", topic, "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	return producer
}
