package dash

import (
	"log"
	"net/http"

	"EstoqueSync/api"
	"EstoqueSync/api/constants"
	"EstoqueSync/internal/config"
	"EstoqueSync/internal/jobs"
)

// StartDashService serves the precomputed dashboard counters. The heavy
// lifting lives in the cron service; this listener only reads the cache.
func StartDashService() {
	mux := http.NewServeMux()
	mux.HandleFunc("/dash/overview", OverviewHandler)
	mux.HandleFunc("/dash/overview/refresh", RefreshHandler)
	mux.HandleFunc("/dash/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Dash Service is healthy"))
	})

	log.Println("Dash Service started on", config.DashPort)
	if err := http.ListenAndServe(config.DashPort, mux); err != nil {
		log.Fatalf("Dash Service failed: %v", err)
	}
}

func OverviewHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	cache := jobs.GlobalStatsCache()
	if cache == nil {
		api.RespondWithError(w, http.StatusServiceUnavailable, constants.ErrStatsUnavailable)
		return
	}
	api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"overview": cache.Snapshot(),
	})
}

// RefreshHandler recomputes the counters on demand instead of waiting for
// the next scheduled tick.
func RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
		return
	}
	cache := jobs.GlobalStatsCache()
	if cache == nil {
		api.RespondWithError(w, http.StatusServiceUnavailable, constants.ErrStatsUnavailable)
		return
	}
	if err := cache.Refresh(r.Context()); err != nil {
		api.RespondWithTypedError(w, err)
		return
	}
	api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"overview": cache.Snapshot(),
	})
}
