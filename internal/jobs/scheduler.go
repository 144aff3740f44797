package jobs

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/internal/config"
	"EstoqueSync/internal/serviceiface"
)

type CronService struct {
	config  map[string]interface{}
	pool    *pgxpool.Pool
	cigamDB *sql.DB
}

func NewCronService(cfg map[string]interface{}, pool *pgxpool.Pool, cigamDB *sql.DB) serviceiface.Service {
	return &CronService{config: cfg, pool: pool, cigamDB: cigamDB}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	siagri := adapters.NewSiagriSource(s.pool, config.DefaultSourceTimeout)
	cigam := adapters.NewCigamSource(s.cigamDB, config.DefaultSourceTimeout)

	cache := NewStatsCache(siagri, cigam)
	SetGlobalStatsCache(cache)

	schedule := config.DefaultStatsSchedule
	if s.config != nil {
		if v, ok := s.config["stats_schedule"].(string); ok && v != "" {
			schedule = v
		}
	}
	if err := RunStatsRefresher(schedule, cache); err != nil {
		return err
	}

	// Prime the cache so the dashboard has numbers before the first tick.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := cache.Refresh(ctx); err != nil {
			log.Printf("ERROR: initial stats refresh failed: %v", err)
		}
	}()

	log.Println("Cron service started — stats refresher scheduled")
	return nil
}

func (s *CronService) Stop() error {
	log.Println("Cron service stopped.")
	return nil
}
