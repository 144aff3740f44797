package estoque

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"EstoqueSync/api"
	"EstoqueSync/api/constants"
	"EstoqueSync/api/estoque/update"
)

// UpdateMaterial handles PUT /estoque/saldos/material/{codigo}. The
// orchestrator owns pre-flight validation and the ordered cross-system
// writes; this handler only shapes the transport.
func UpdateMaterial(orch *update.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req update.Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			api.RespondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		req.Material = mux.Vars(r)["codigo"]

		res, err := orch.Apply(r.Context(), req)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":         true,
			"committed_steps": res.Committed,
			"failed_steps":    res.Failed,
		})
	}
}
