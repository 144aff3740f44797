package estoque

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"EstoqueSync/api/estoque/update"
	"EstoqueSync/internal/serviceiface"
)

type EstoqueService struct {
	config  map[string]interface{}
	pool    *pgxpool.Pool
	cigamDB *sql.DB
}

func NewEstoqueService(cfg map[string]interface{}, pool *pgxpool.Pool, cigamDB *sql.DB) serviceiface.Service {
	return &EstoqueService{config: cfg, pool: pool, cigamDB: cigamDB}
}

func (s *EstoqueService) Name() string {
	return "estoque"
}

func (s *EstoqueService) Start() error {
	widths := update.DefaultWidths()
	if s.config != nil {
		if raw, ok := s.config["column_widths"].(map[string]interface{}); ok {
			widths = update.WidthsFromConfig(raw)
		}
	}
	go StartEstoqueService(s.pool, s.cigamDB, widths)
	return nil
}

func (s *EstoqueService) Stop() error {
	return nil
}
