package main

import (
	"context"
	"os"
	"strconv"
	"time"

	mongoMigration "staybook/internal/migrations/mongo"
	"staybook/pkg/config"
)

const (
	JobName = "mongo-migration"

	EnvSeedRooms = "SEED_ROOMS"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Mongo migration job")
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Error("Migration failed", "error", err)
		return
	}

	if n, err := strconv.Atoi(os.Getenv(EnvSeedRooms)); err == nil && n > 0 {
		if err := mongoMigration.SeedRooms(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, n, cfg.Log); err != nil {
			cfg.Log.Error("Room seeding failed", "error", err)
			return
		}
	}

	cfg.Log.Info("Migration completed successfully")
}
