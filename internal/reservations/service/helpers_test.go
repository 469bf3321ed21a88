package service

import (
	"io"
	"time"

	"staybook/internal/reservations/reservationstest"
	"staybook/internal/reservations/validator"
	"staybook/pkg/config"
	"staybook/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:   "error",
			Format:  logger.JSON,
			Output:  io.Discard,
			Service: "test",
		}),
	}
}

func newTestLockService(store *reservationstest.Store) LockService {
	cfg := testConfig()
	return NewLockService(
		store.Locks(),
		store.Guards(),
		store.Rooms(),
		validator.NewLockValidator(cfg.Log),
		nil,
		cfg,
	)
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}
