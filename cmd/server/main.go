package main

import (
	"context"
	"database/sql"
	"log"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"focusroom/backend/internal/config"
	"focusroom/backend/internal/db"
	"focusroom/backend/internal/handler"
	"focusroom/backend/internal/repository"
	"focusroom/backend/internal/router"
	"focusroom/backend/internal/service"
	"focusroom/backend/migrations"
)

func main() {
	cfg := config.Load()

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	if _, err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir, migrations.FS)); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	activeTimerStore, err := newActiveTimerStore(context.Background(), cfg, database)
	if err != nil {
		log.Fatalf("init active timer store: %v", err)
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)

	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL)
	timerService := service.NewActiveTimerService(activeTimerStore, service.NewHub(), cfg.ActiveTimerStale)
	sessionService := service.NewSessionService(sessionRepo)

	authHandler := handler.NewAuthHandler(authService)
	timerHandler := handler.NewTimerHandler(timerService, cfg.StreamKeepalive)
	sessionHandler := handler.NewSessionHandler(sessionService)

	engine := router.New(authService, authHandler, timerHandler, sessionHandler, cfg.CORSOrigins)
	log.Printf("backend listening on :%s (active timers: %s)", cfg.Port, cfg.ActiveTimerBackend)
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatalf("run server: %v", err)
	}
}

func newActiveTimerStore(ctx context.Context, cfg config.Config, database *sql.DB) (repository.ActiveTimerStore, error) {
	if cfg.ActiveTimerBackend != config.ActiveTimerBackendDynamoDB {
		return repository.NewSQLiteActiveTimerStore(database), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewDynamoActiveTimerStore(dynamodb.NewFromConfig(awsCfg), cfg.ActiveTimerTable), nil
}
