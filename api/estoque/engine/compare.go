package engine

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Classify decides how one material stands across the two systems. It is the
// single implementation of the divergence rules: presence is taken from the
// adapter maps, never inferred from a zero quantity.
func Classify(siagri, cigam *BalanceRecord) Classification {
	switch {
	case siagri == nil && cigam == nil:
		// A material neither system reports has no divergence to show.
		return ClassMatching
	case siagri != nil && cigam == nil:
		return ClassOnlySiagri
	case siagri == nil:
		return ClassOnlyCigam
	case siagri.Saldo.Equal(cigam.Saldo):
		return ClassMatching
	default:
		return ClassDivergent
	}
}

// Percentual returns diff/base*100 rounded to 2 places, or 0 when the SIAGRI
// balance is zero. Defined as 0 rather than NaN so the column always renders.
func Percentual(diff, base decimal.Decimal) decimal.Decimal {
	if base.IsZero() {
		return decimal.Zero
	}
	return diff.Div(base).Mul(hundred).Round(2)
}

// BuildComparison outer-joins the two adapter result maps by material code,
// classifies every material in the union, applies the boolean predicates as a
// conjunction and returns the rows ordered by material code ascending so
// pagination is stable across identical requests.
func BuildComparison(siagri, cigam map[string]BalanceRecord, f Filter) []ComparisonRow {
	codes := make([]string, 0, len(siagri)+len(cigam))
	seen := make(map[string]bool, len(siagri)+len(cigam))
	for code := range siagri {
		codes = append(codes, code)
		seen[code] = true
	}
	for code := range cigam {
		if !seen[code] {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	rows := make([]ComparisonRow, 0, len(codes))
	for _, code := range codes {
		var s, c *BalanceRecord
		if rec, ok := siagri[code]; ok {
			s = &rec
		}
		if rec, ok := cigam[code]; ok {
			c = &rec
		}
		row := joinRecords(code, s, c)
		if matchesFlags(row, f) {
			rows = append(rows, row)
		}
	}
	return rows
}

// joinRecords builds one row from whichever sides reported the material.
// Descriptive fields prefer SIAGRI and fall back to CIGAM; a missing side
// contributes zero to the arithmetic while the presence flags keep the
// distinction between "missing" and "reported as zero".
func joinRecords(code string, siagri, cigam *BalanceRecord) ComparisonRow {
	row := ComparisonRow{
		Material:      code,
		Status:        "A",
		SaldoSiagri:   decimal.Zero,
		SaldoCigam:    decimal.Zero,
		Classificacao: Classify(siagri, cigam),
		OrigemSiagri:  siagri != nil,
		OrigemCigam:   cigam != nil,
	}
	if siagri != nil {
		row.Empresa = siagri.Empresa
		row.Grupo = siagri.Grupo
		row.Subgrupo = siagri.Subgrupo
		row.Descricao = siagri.Descricao
		row.Status = siagri.Status
		row.Unidade = siagri.Unidade
		row.NCM = siagri.NCM
		row.TipoItem = siagri.TipoItem
		row.TipoMaterial = siagri.TipoMaterial
		row.SaldoSiagri = siagri.Saldo
	}
	if cigam != nil {
		if siagri == nil {
			row.Empresa = cigam.Empresa
			row.Descricao = cigam.Descricao
		}
		if row.NCM == "" {
			row.NCM = cigam.NCM
		}
		row.SaldoCigam = cigam.Saldo
	}
	row.DiferencaSaldo = row.SaldoSiagri.Sub(row.SaldoCigam)
	row.Percentual = Percentual(row.DiferencaSaldo, row.SaldoSiagri)
	return row
}

func matchesFlags(row ComparisonRow, f Filter) bool {
	// The material term applies after the join so both systems answer the
	// same question; filtering one side at the source would misreport
	// every match as present in only that system.
	if f.Material != "" && !matchesTerm(row, f.Material) {
		return false
	}
	// Group filters re-apply after the join: rows only CIGAM knows about
	// carry no group, so a group-filtered query excludes them.
	if f.Grupo != nil && (row.Grupo == nil || *row.Grupo != *f.Grupo) {
		return false
	}
	if f.Subgrupo != nil && (row.Subgrupo == nil || *row.Subgrupo != *f.Subgrupo) {
		return false
	}
	if f.ApenasDivergentes && row.DiferencaSaldo.IsZero() {
		return false
	}
	if f.SaldosPositivosSiagri && !row.SaldoSiagri.IsPositive() {
		return false
	}
	if f.SaldosPositivosCigam && !row.SaldoCigam.IsPositive() {
		return false
	}
	return true
}

// matchesTerm mirrors the source search predicate: an exact material code
// or a case-insensitive description fragment.
func matchesTerm(row ComparisonRow, term string) bool {
	if row.Material == term {
		return true
	}
	return strings.Contains(strings.ToUpper(row.Descricao), strings.ToUpper(term))
}
