package estoque

import (
	"net/http"
	"strconv"

	"EstoqueSync/api"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
)

// Dropdown endpoints feeding the hierarchical filter. Every payload goes
// through engine.NormalizeOptions before it leaves the adapter, so the
// handlers only shape the response.

func GetEmpresas(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := siagri.Empresas(r.Context())
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

func GetGrupos(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := siagri.Grupos(r.Context())
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

func GetSubgrupos(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grupo, err := positiveIntParam(r, "grupo")
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		if grupo == nil {
			api.RespondWithTypedError(w, engine.NewValidationError("grupo", "codigo do grupo e obrigatorio"))
			return
		}
		opts, err := siagri.Subgrupos(r.Context(), *grupo)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

// GetUnidades, GetTiposProduto and GetTiposItem feed the edit form's
// reference dropdowns for unid_psv, prse_psv and codi_tip.
func GetUnidades(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := siagri.Unidades(r.Context())
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

func GetTiposProduto(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := siagri.TiposProduto(r.Context())
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

func GetTiposItem(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := siagri.TiposItem(r.Context())
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

// GetMateriais is the autocomplete search. Terms below the minimum length
// return an empty list instead of an error so the frontend can query on
// every keystroke.
func GetMateriais(siagri *adapters.SiagriSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		grupo, err := positiveIntParam(r, "grupo")
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		subgrupo, err := positiveIntParam(r, "subgrupo")
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		limit := 0
		if v := q.Get("limit"); v != "" {
			limit, err = strconv.Atoi(v)
			if err != nil || limit < 0 {
				api.RespondWithTypedError(w, engine.NewValidationError("limit", "limite deve ser numerico"))
				return
			}
		}
		opts, err := siagri.Materiais(r.Context(), q.Get("termo"), grupo, subgrupo, limit)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"success": true, "options": opts})
	}
}

func positiveIntParam(r *http.Request, name string) (*int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return nil, engine.NewValidationError(name, "codigo deve ser numerico e positivo")
	}
	return &n, nil
}
