package estoque

import (
	"net/http"

	"github.com/gorilla/mux"

	"EstoqueSync/api"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
)

// GetMaterialDetail handles GET /estoque/saldos/material/{codigo}. The
// response carries the editable attributes, the cross-system comparison row
// for that single material and its recent movement history.
func GetMaterialDetail(siagri *adapters.SiagriSource, cigam *adapters.CigamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codigo := mux.Vars(r)["codigo"]

		f, err := engine.ResolveFilter(engine.RawFilter{Empresa: r.URL.Query().Get("empresa")})
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		f.Material = codigo

		detail, err := siagri.MaterialDetail(r.Context(), codigo)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		rows, err := fetchComparison(r.Context(), siagri, cigam, f)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		var comparacao *engine.ComparisonRow
		for i := range rows {
			if rows[i].Material == codigo {
				comparacao = &rows[i]
				break
			}
		}

		historico, err := siagri.Historico(r.Context(), codigo, 0)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"material": map[string]interface{}{
				"codigo":         detail.Material,
				"descricao":      detail.Descricao,
				"status":         detail.Status,
				"grupo":          detail.Grupo,
				"subgrupo":       detail.Subgrupo,
				"unidade":        detail.Unidade,
				"ncm_cla_fiscal": detail.NCM,
				"tipo_item":      detail.TipoItem,
				"tipo_material":  detail.TipoMaterial,
			},
			"comparacao": comparacao,
			"historico":  historico,
		})
	}
}
