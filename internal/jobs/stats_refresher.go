package jobs

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
	"EstoqueSync/internal/logger"
)

// Overview is the precomputed dashboard counter set. Recomputing it on every
// dashboard hit would run the full cross-system comparison per company, so
// the numbers are refreshed on a schedule and served from memory.
type Overview struct {
	Empresas     int       `json:"empresas"`
	Materiais    int       `json:"materiais"`
	Divergentes  int       `json:"divergentes"`
	ApenasSiagri int       `json:"apenas_siagri"`
	ApenasCigam  int       `json:"apenas_cigam"`
	Coincidentes int       `json:"coincidentes"`
	AtualizadoEm time.Time `json:"atualizado_em"`
}

type StatsCache struct {
	mu       sync.RWMutex
	overview Overview
	siagri   *adapters.SiagriSource
	cigam    *adapters.CigamSource
}

func NewStatsCache(siagri *adapters.SiagriSource, cigam *adapters.CigamSource) *StatsCache {
	return &StatsCache{siagri: siagri, cigam: cigam}
}

// Snapshot returns the last computed counters. AtualizadoEm is zero until
// the first refresh completes.
func (c *StatsCache) Snapshot() Overview {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.overview
}

// Refresh recomputes the counters across every active company. A failure on
// either source aborts the run and keeps the previous snapshot.
func (c *StatsCache) Refresh(ctx context.Context) error {
	empresas, err := c.siagri.Empresas(ctx)
	if err != nil {
		return err
	}

	var ov Overview
	ov.Empresas = len(empresas)
	for _, emp := range empresas {
		cod, err := strconv.Atoi(emp.Code)
		if err != nil {
			continue
		}
		f := engine.Filter{Empresa: cod}
		sRecs, err := c.siagri.FetchBalances(ctx, f)
		if err != nil {
			return err
		}
		cRecs, err := c.cigam.FetchBalances(ctx, f)
		if err != nil {
			return err
		}
		st := engine.Summarize(engine.BuildComparison(sRecs, cRecs, f))
		ov.Materiais += st.Total
		ov.Divergentes += st.Divergentes
		ov.ApenasSiagri += st.ApenasSiagri
		ov.ApenasCigam += st.ApenasCigam
		ov.Coincidentes += st.Coincidentes
	}
	ov.AtualizadoEm = time.Now()

	c.mu.Lock()
	c.overview = ov
	c.mu.Unlock()
	return nil
}

var (
	globalStatsCache *StatsCache
	globalStatsOnce  sync.Once
)

// SetGlobalStatsCache wires the cache for the dash service.
func SetGlobalStatsCache(c *StatsCache) {
	globalStatsOnce.Do(func() {
		globalStatsCache = c
	})
}

func GlobalStatsCache() *StatsCache {
	return globalStatsCache
}

// RunStatsRefresher schedules the periodic recomputation.
func RunStatsRefresher(schedule string, cache *StatsCache) error {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		if err := cache.Refresh(ctx); err != nil {
			if logger.GlobalLogger != nil {
				logger.GlobalLogger.LogAudit(fmt.Sprintf("Stats refresh failed: %v", err))
			}
			log.Printf("ERROR: stats refresh failed: %v", err)
			return
		}
		if logger.GlobalLogger != nil {
			logger.GlobalLogger.LogAudit("Stats refresh completed")
		}
	})
	if err != nil {
		return fmt.Errorf("unable to schedule stats refresher: %v", err)
	}

	c.Start()
	log.Printf("Stats refresher scheduled: %s", schedule)
	return nil
}
