package main

import (
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/handler"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/service"
	"staybook/internal/bookings/validator"
	"staybook/pkg/app"
	"staybook/pkg/client"
	"staybook/pkg/config"
	"staybook/pkg/kafka"
	kafka_config "staybook/pkg/kafka/config"
	kafka_middleware "staybook/pkg/kafka/middleware"
	"staybook/pkg/metrics"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	if cfg.JWTSecret == "" {
		cfg.Log.Fatal("JWT_SECRET is required by the bookings service")
	}
	cfg.SetMongo()

	m := metrics.New(ServiceName)
	serverApp := app.NewApplication(cfg, m)

	cfg.Log.Info("Starting Bookings service")
	publisher := initPublisher(cfg, serverApp)

	repo := repository.NewMongoBookingRepository(cfg)
	reservations := client.NewReservationClient(cfg.ReservationsBaseURL, cfg.ReservationPolicy(), m, cfg.Log)
	bookingService := service.NewBookingService(
		repo,
		reservations,
		publisher,
		validator.NewBookingValidator(cfg.Log),
		m,
		cfg,
	)
	reconciler := service.NewReconciler(repo, reservations, publisher, m, cfg)

	cfg.Log.Info("Booking service initialized",
		"database", cfg.MongoDatabaseName,
		"reservations_url", cfg.ReservationsBaseURL,
	)

	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log), app.Options{Authenticate: true})
	serverApp.Go(reconciler)
	serverApp.Run()
}

func initPublisher(cfg *config.Config, serverApp *app.Application) events.Publisher {
	kafkaCfg := kafka_config.Load()
	if err := kafkaCfg.Validate(); err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return events.NopPublisher{}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	return events.NewKafkaPublisher(producer)
}
