package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Classification of one material after joining both systems.
type Classification string

const (
	ClassMatching   Classification = "MATCHING"
	ClassDivergent  Classification = "DIVERGENT"
	ClassOnlySiagri Classification = "ONLY_SIAGRI"
	ClassOnlyCigam  Classification = "ONLY_CIGAM"
)

// BalanceRecord is one material balance as reported by a single system.
// Records are transient: rebuilt from the source adapters on every request.
// A material absent from the map returned by an adapter was not reported by
// that system, which is not the same thing as a reported zero balance.
type BalanceRecord struct {
	Empresa      int
	Material     string
	Descricao    string
	Status       string
	Grupo        *int
	Subgrupo     *int
	Unidade      string
	NCM          string
	TipoItem     string
	TipoMaterial string
	Saldo        decimal.Decimal
	AtualizadoEm time.Time
}

// ComparisonRow is the joined, classified view of one material across both
// systems. DiferencaSaldo is always recomputed from the two saldo fields and
// never carried independently of them.
type ComparisonRow struct {
	Empresa        int             `json:"empresa"`
	Grupo          *int            `json:"grupo"`
	Subgrupo       *int            `json:"subgrupo"`
	Material       string          `json:"material"`
	Descricao      string          `json:"descricao"`
	Status         string          `json:"status"`
	Unidade        string          `json:"unidade"`
	NCM            string          `json:"ncm_cla_fiscal"`
	TipoItem       string          `json:"tipo_item"`
	TipoMaterial   string          `json:"tipo_material"`
	SaldoSiagri    decimal.Decimal `json:"saldo_siagri"`
	SaldoCigam     decimal.Decimal `json:"saldo_cigam"`
	DiferencaSaldo decimal.Decimal `json:"diferenca_saldo"`
	Percentual     decimal.Decimal `json:"percentual_diferenca"`
	Classificacao  Classification  `json:"classificacao"`
	OrigemSiagri   bool            `json:"origem_siagri"`
	OrigemCigam    bool            `json:"origem_cigam"`
}

// HistoricoItem is one movement/audit entry for a material.
type HistoricoItem struct {
	ID            string          `json:"id"`
	Material      string          `json:"material"`
	Tipo          string          `json:"tipo_movimentacao"`
	Quantidade    decimal.Decimal `json:"quantidade"`
	SaldoAnterior decimal.Decimal `json:"saldo_anterior"`
	SaldoAtual    decimal.Decimal `json:"saldo_atual"`
	Sistema       string          `json:"sistema_origem"`
	Observacoes   string          `json:"observacoes"`
	Data          time.Time       `json:"data_movimentacao"`
}

// Option is a dropdown entry handed to the frontend. Kept as an explicit
// record instead of an open map so empty/duplicate codes are caught once,
// at the boundary.
type Option struct {
	Code  string `json:"codigo"`
	Label string `json:"descricao"`
}
