package main

import (
	"context"
	"log"
	"time"

	"datalens/adapters/memory"
	"datalens/adapters/postgres"
	"datalens/internal/config"
	"datalens/internal/errors"
	"datalens/internal/session"
	"datalens/internal/storage"
	"datalens/ports"
	"datalens/ui"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// initDatabase connects to PostgreSQL and ensures the catalog schema exists
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "failed to ping database")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		return nil, errors.Wrap(err, "failed to ensure catalog schema")
	}
	return db, nil
}

func main() {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Upload catalog: PostgreSQL when configured, in-memory otherwise
	var catalogRepo ports.CatalogRepository
	if appConfig.Database.URL != "" {
		db, err := initDatabase(appConfig)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		catalogRepo = postgres.NewCatalogRepository(db)
		log.Printf("Upload catalog: PostgreSQL")
	} else {
		catalogRepo = memory.NewCatalogRepository()
		log.Printf("Upload catalog: in-memory (set DATABASE_URL to persist history)")
	}

	fileStorage := storage.NewLocalFileStorage(appConfig.Upload.Dir)

	sessions := session.NewStore(appConfig.Session.TTL)
	defer sessions.Stop()
	sessions.StartSweeper(appConfig.Session.SweepInterval, func(sess *session.Session) {
		if sess.FilePath == "" {
			return
		}
		if err := fileStorage.Delete(context.Background(), sess.FilePath); err != nil {
			log.Printf("Failed to remove expired upload %s: %v", sess.FilePath, err)
		}
	})

	app, err := ui.NewApp(ui.Config{
		Port:           appConfig.Server.Port,
		MaxUploadBytes: appConfig.Upload.MaxSizeMB * 1024 * 1024,
		Sessions:       sessions,
		Storage:        fileStorage,
		Catalog:        catalogRepo,
	})
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	if err := app.Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
