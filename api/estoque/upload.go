package estoque

import (
	"encoding/csv"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"EstoqueSync/api"
	"EstoqueSync/api/constants"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
)

const maxUploadBytes = 32 << 20

// UploadCigamSnapshot handles POST /estoque/cigam/upload. CIGAM has no
// queryable API in some deployments; operators export a balance snapshot
// (csv, xls or xlsx) and push it here. Rows are validated in full before
// any write, then upserted in one transaction.
func UploadCigamSnapshot(cigam *adapters.CigamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			api.RespondWithTypedError(w, engine.NewValidationError("file", constants.ErrInvalidMultipart))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			api.RespondWithTypedError(w, engine.NewValidationError("file", constants.ErrFileRequired))
			return
		}
		defer file.Close()

		rows, err := parseSnapshotFile(file, strings.ToLower(filepath.Ext(header.Filename)))
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		snap, err := parseSnapshotRows(rows)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		count, err := cigam.UpsertSnapshot(r.Context(), snap)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"rows":    count,
		})
	}
}

func parseSnapshotFile(file multipart.File, ext string) ([][]string, error) {
	switch ext {
	case ".csv":
		r := csv.NewReader(file)
		r.FieldsPerRecord = -1
		rows, err := r.ReadAll()
		if err != nil {
			return nil, engine.NewValidationError("file", "csv invalido: "+err.Error())
		}
		return rows, nil
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, engine.NewValidationError("file", "xlsx invalido: "+err.Error())
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, engine.NewValidationError("file", "xlsx invalido: "+err.Error())
		}
		return rows, nil
	case ".xls":
		wb, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, engine.NewValidationError("file", "xls invalido: "+err.Error())
		}
		return wb.ReadAllCells(1 << 16), nil
	}
	return nil, engine.NewValidationError("file", constants.ErrUnsupportedFormat)
}

// parseSnapshotRows expects columns material, unidade, quantidade. A header
// line is detected by its non-numeric quantity column and skipped.
func parseSnapshotRows(rows [][]string) ([]adapters.SnapshotRow, error) {
	snap := make([]adapters.SnapshotRow, 0, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			continue
		}
		material := strings.TrimSpace(row[0])
		unidade := strings.TrimSpace(row[1])
		raw := strings.ReplaceAll(strings.TrimSpace(row[2]), ",", ".")
		if material == "" || unidade == "" {
			continue
		}
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, engine.NewValidationError("quantidade",
				"quantidade invalida na linha "+strconv.Itoa(i+1))
		}
		if qty.Exponent() < -3 {
			return nil, engine.NewValidationError("quantidade",
				"quantidade com mais de 3 casas decimais: "+raw)
		}
		snap = append(snap, adapters.SnapshotRow{Material: material, Unidade: unidade, Quantidade: qty})
	}
	if len(snap) == 0 {
		return nil, engine.NewValidationError("file", constants.ErrNoValidRows)
	}
	return snap, nil
}
