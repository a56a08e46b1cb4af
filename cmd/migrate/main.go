package main

import (
	"log"

	"focusroom/backend/internal/config"
	"focusroom/backend/internal/db"
	"focusroom/backend/migrations"
)

func main() {
	cfg := config.Load()
	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	applied, err := db.RunMigrations(database, db.MigrationSource(cfg.MigrationsDir, migrations.FS))
	if err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	for _, name := range applied {
		log.Printf("applied %s", name)
	}
	log.Printf("migrations applied successfully (%d new)", len(applied))
}
