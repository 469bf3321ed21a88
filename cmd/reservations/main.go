package main

import (
	"staybook/internal/reservations/handler"
	"staybook/internal/reservations/repository"
	"staybook/internal/reservations/service"
	"staybook/internal/reservations/validator"
	"staybook/pkg/app"
	"staybook/pkg/config"
	"staybook/pkg/metrics"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	m := metrics.New(ServiceName)

	cfg.Log.Info("Starting Reservations service")
	locks, rooms := initServices(cfg, m)

	serverApp := app.NewApplication(cfg, m)
	serverApp.SetApp(handler.NewReservationHandler(locks, rooms, cfg.Log), app.Options{})
	serverApp.Run()
}

func initServices(cfg *config.Config, m *metrics.Metrics) (service.LockService, service.RoomService) {
	lockRepo := repository.NewMongoLockRepository(cfg)
	guardRepo := repository.NewMongoRoomGuardRepository(cfg)
	roomRepo := repository.NewMongoRoomRepository(cfg)

	locks := service.NewLockService(
		lockRepo,
		guardRepo,
		roomRepo,
		validator.NewLockValidator(cfg.Log),
		m,
		cfg,
	)
	rooms := service.NewRoomService(roomRepo, cfg)

	cfg.Log.Info("Reservation services initialized", "database", cfg.MongoDatabaseName)
	return locks, rooms
}
