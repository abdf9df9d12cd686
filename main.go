package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"neuromatch/adapters/postgres"
	"neuromatch/app"
	"neuromatch/internal"
	"neuromatch/internal/api"
	"neuromatch/internal/config"
	"neuromatch/internal/errors"
	"neuromatch/internal/migration"
	"neuromatch/ui"
)

func main() {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	db, err := initDatabase(appConfig)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	repo := postgres.NewCandidateRepository(db)
	matcher := app.NewMatchingService(repo, appConfig.EngineConfig())

	// JSON API (gin)
	gin.SetMode(appConfig.Server.GinMode)
	router := gin.Default()
	api.NewMatchHandler(matcher, repo).RegisterRoutes(router.Group("/api/v1"))

	go func() {
		addr := ":" + appConfig.Server.APIPort
		internal.DefaultLogger.Info("API listening on %s", addr)
		if err := router.Run(addr); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	// HTML report surface (chi)
	reportServer := ui.NewServer(matcher)
	addr := ":" + appConfig.Server.UIPort
	internal.DefaultLogger.Info("report UI listening on %s", addr)
	if err := http.ListenAndServe(addr, reportServer.Router()); err != nil {
		log.Fatalf("report server failed: %v", err)
	}
}

// initDatabase initializes the PostgreSQL database connection
func initDatabase(appConfig *config.Config) (*sqlx.DB, error) {
	if appConfig.Database.URL == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.Connect("postgres", appConfig.Database.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.DatabaseUnavailable(err)
	}

	migrator := migration.NewRunner()
	if err := migrator.Run(context.Background(), db); err != nil {
		return nil, errors.Wrap(err, "database migration failed")
	}

	return db, nil
}
