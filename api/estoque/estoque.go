package estoque

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"

	"EstoqueSync/api"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/update"
	"EstoqueSync/internal/config"
)

// StartEstoqueService wires the two source adapters and the update
// orchestrator and serves the estoque routes on its own listener. The pgx
// pool is SIAGRI, the sql.DB is CIGAM; they never share a transaction.
func StartEstoqueService(pool *pgxpool.Pool, cigamDB *sql.DB, widths update.ColumnWidths) {
	siagri := adapters.NewSiagriSource(pool, config.DefaultSourceTimeout)
	cigam := adapters.NewCigamSource(cigamDB, config.DefaultSourceTimeout)
	orch := update.NewOrchestrator(pool, cigamDB, widths, config.DefaultSourceTimeout)

	r := newRouter(siagri, cigam, orch)

	log.Println("Estoque Service started on", config.EstoquePort)
	if err := http.ListenAndServe(config.EstoquePort, r); err != nil {
		log.Fatalf("Estoque Service failed: %v", err)
	}
}

func newRouter(siagri *adapters.SiagriSource, cigam *adapters.CigamSource, orch *update.Orchestrator) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/estoque/saldos", GetSaldos(siagri, cigam)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/saldos/export", ExportSaldos(siagri, cigam)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/saldos/material/{codigo}", GetMaterialDetail(siagri, cigam)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/saldos/material/{codigo}", UpdateMaterial(orch)).Methods(http.MethodPut)
	r.HandleFunc("/estoque/cigam/upload", UploadCigamSnapshot(cigam)).Methods(http.MethodPost)
	r.HandleFunc("/estoque/filters/empresas", GetEmpresas(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/grupos", GetGrupos(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/subgrupos", GetSubgrupos(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/materiais", GetMateriais(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/unidades", GetUnidades(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/tipos-produto", GetTiposProduto(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/filters/tipos-item", GetTiposItem(siagri)).Methods(http.MethodGet)
	r.HandleFunc("/estoque/health", HealthCheck(siagri, cigam)).Methods(http.MethodGet)
	return r
}

// HealthCheck pings both systems. The service stays up when a source is
// down; the payload says which side is unreachable.
func HealthCheck(siagri *adapters.SiagriSource, cigam *adapters.CigamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{
			adapters.SystemSiagri: "ok",
			adapters.SystemCigam:  "ok",
		}
		healthy := true
		if err := siagri.Ping(r.Context()); err != nil {
			status[adapters.SystemSiagri] = err.Error()
			healthy = false
		}
		if err := cigam.Ping(r.Context()); err != nil {
			status[adapters.SystemCigam] = err.Error()
			healthy = false
		}
		code := http.StatusOK
		if !healthy {
			code = http.StatusServiceUnavailable
		}
		api.RespondWithJSON(w, code, map[string]interface{}{
			"success": healthy,
			"sources": status,
		})
	}
}
