package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"EstoqueSync/internal/appmanager"
)

// InitSiagriPool opens the pgx pool against the SIAGRI database (juparana schema).
func InitSiagriPool(ctx context.Context) (*pgxpool.Pool, error) {
	user := os.Getenv("SIAGRI_DB_USER")
	pass := os.Getenv("SIAGRI_DB_PASSWORD")
	host := os.Getenv("SIAGRI_DB_HOST")
	port := os.Getenv("SIAGRI_DB_PORT")
	name := os.Getenv("SIAGRI_DB_NAME")
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
	return pgxpool.New(ctx, connStr)
}

// InitCigamDB opens the database/sql connection against the CIGAM database
// (cigam11 schema). A separate server in production; no transaction ever
// spans both connections.
func InitCigamDB() (*sql.DB, error) {
	user := os.Getenv("CIGAM_DB_USER")
	pass := os.Getenv("CIGAM_DB_PASSWORD")
	host := os.Getenv("CIGAM_DB_HOST")
	port := os.Getenv("CIGAM_DB_PORT")
	name := os.Getenv("CIGAM_DB_NAME")
	connStr := fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		user, pass, host, port, name,
	)
	return sql.Open("postgres", connStr)
}

func main() {
	// Load .env for local dev
	_ = godotenv.Load("../.env")

	// Quantities serialize as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true

	ctx := context.Background()

	pool, err := InitSiagriPool(ctx)
	if err != nil {
		log.Fatal("failed to connect to SIAGRI DB:", err)
	}
	appmanager.SetPgxPool(pool)

	cigamDB, err := InitCigamDB()
	if err != nil {
		log.Fatal("failed to connect to CIGAM DB:", err)
	}
	appmanager.SetCigamDB(cigamDB)

	manager := appmanager.NewAppManager()

	// Load service configs from YAML
	servicesCfg, err := appmanager.LoadServiceSequence("../services.yaml")
	if err != nil {
		log.Fatal("failed to load service sequence:", err)
	}

	// Automatically register all services
	manager.AutoRegisterServices(servicesCfg)

	// Start all services
	if err := manager.StartAll(); err != nil {
		log.Fatal("failed to start:", err)
	}

	// Graceful shutdown handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	// Stop all services
	if err := manager.StopAll(); err != nil {
		log.Fatal("failed to stop:", err)
	}

	pool.Close()
	cigamDB.Close()
}
