package estoque

import (
	"net/http"

	"github.com/xuri/excelize/v2"

	"EstoqueSync/api"
	"EstoqueSync/api/constants"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
)

// ExportSaldos handles GET /estoque/saldos/export: same filter pipeline as
// the listing, but the whole filtered set lands in one xlsx instead of a
// page.
func ExportSaldos(siagri *adapters.SiagriSource, cigam *adapters.CigamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := engine.ResolveFilter(rawFilterFrom(r.URL.Query()))
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		if err := checkHierarchy(r.Context(), siagri, f); err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		rows, err := fetchComparison(r.Context(), siagri, cigam, f)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		xf := excelize.NewFile()
		defer xf.Close()
		const sheet = "Saldos"
		xf.SetSheetName("Sheet1", sheet)

		headers := []string{
			"Empresa", "Grupo", "Subgrupo", "Material", "Descricao", "Status",
			"Unidade", "NCM", "Saldo SIAGRI", "Saldo CIGAM",
			"Diferenca", "% Diferenca", "Classificacao",
		}
		for col, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			xf.SetCellValue(sheet, cell, h)
		}
		for i, row := range rows {
			values := []interface{}{
				row.Empresa, intCell(row.Grupo), intCell(row.Subgrupo),
				row.Material, row.Descricao, row.Status,
				row.Unidade, row.NCM,
				row.SaldoSiagri.InexactFloat64(), row.SaldoCigam.InexactFloat64(),
				row.DiferencaSaldo.InexactFloat64(), row.Percentual.InexactFloat64(),
				string(row.Classificacao),
			}
			for col, v := range values {
				cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
				xf.SetCellValue(sheet, cell, v)
			}
		}

		w.Header().Set(constants.HeaderContentType, constants.ContentTypeXLSX)
		w.Header().Set("Content-Disposition", `attachment; filename="saldos_comparativo.xlsx"`)
		if err := xf.Write(w); err != nil {
			api.LogError("export write failed: %v", err)
		}
	}
}

func intCell(p *int) interface{} {
	if p == nil {
		return ""
	}
	return *p
}
