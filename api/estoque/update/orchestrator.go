package update

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
	"EstoqueSync/internal/config"
)

// Step names reported back to the caller. Retrying a failed step re-sends an
// absolute value, so a retry never double-applies.
const (
	StepProdserv    = "prodserv"
	StepProduto     = "produto"
	StepEsmateri    = "esmateri"
	StepSaldoSiagri = "saldo_siagri"
	StepSaldoCigam  = "saldo_cigam"
)

// errNotAttempted marks steps skipped because the authoritative prodserv
// write failed before them.
var errNotAttempted = errors.New("nao executado: falha no passo prodserv")

// SiagriStore is the slice of pgxpool.Pool the orchestrator needs.
type SiagriStore interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// CigamStore is the slice of sql.DB the orchestrator needs.
type CigamStore interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Request carries one material's operator-approved corrections. Attribute
// fields and balance fields travel together but are applied through separate
// write paths; either side may be absent.
type Request struct {
	Material    string           `json:"-"`
	Empresa     int              `json:"empresa"`
	DescPsv     string           `json:"desc_psv"`
	SituPsv     string           `json:"situ_psv"`
	UnidPsv     string           `json:"unid_psv"`
	CodiCfp     *string          `json:"codi_cfp"`
	ClasPsv     *string          `json:"clas_psv"`
	CodiGpr     *int             `json:"codi_gpr"`
	CodiSbg     *int             `json:"codi_sbg"`
	CodiTip     *int             `json:"codi_tip"`
	PrsePsv     *string          `json:"prse_psv"`
	SaldoSiagri *decimal.Decimal `json:"saldo_siagri"`
	SaldoCigam  *decimal.Decimal `json:"saldo_cigam"`
	Observacoes string           `json:"observacoes"`
}

// Result names what committed. Failed is empty on full success.
type Result struct {
	Committed []string `json:"committed_steps"`
	Failed    []string `json:"failed_steps"`
}

// Orchestrator applies corrections across three tables in two systems.
// No transaction spans both connections, so it runs an ordered saga:
// each step commits on its own and failures are reported per step instead
// of pretending atomicity.
type Orchestrator struct {
	siagri  SiagriStore
	cigam   CigamStore
	widths  ColumnWidths
	timeout time.Duration
}

func NewOrchestrator(siagri SiagriStore, cigam CigamStore, widths ColumnWidths, timeout time.Duration) *Orchestrator {
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}
	return &Orchestrator{siagri: siagri, cigam: cigam, widths: widths, timeout: timeout}
}

// HasAttributes tells whether the request engages the attribute write path.
// Balance-only corrections skip it entirely.
func (r Request) HasAttributes() bool {
	return r.DescPsv != "" || r.SituPsv != "" || r.UnidPsv != "" ||
		r.CodiCfp != nil || r.ClasPsv != nil || r.PrsePsv != nil ||
		r.CodiGpr != nil || r.CodiSbg != nil || r.CodiTip != nil
}

// HasBalances tells whether the request engages the balance write path.
func (r Request) HasBalances() bool {
	return r.SaldoSiagri != nil || r.SaldoCigam != nil
}

// Preflight validates every field against the static width table. It must
// stay side-effect free: a request that fails here has touched nothing.
func (o *Orchestrator) Preflight(req Request) error {
	if req.Material == "" {
		return engine.NewValidationError("material", "codigo do material e obrigatorio")
	}
	if req.Empresa <= 0 {
		return engine.NewValidationError("empresa", "codigo da empresa e obrigatorio")
	}
	if !req.HasAttributes() && !req.HasBalances() {
		return engine.NewValidationError("", "nenhum campo para atualizar")
	}
	if req.HasAttributes() {
		if req.DescPsv == "" {
			return engine.NewValidationError("desc_psv", "descricao e obrigatoria")
		}
		if len(req.DescPsv) > o.widths.DescPsv {
			return engine.NewValidationError("desc_psv",
				fmt.Sprintf("descricao excede %d caracteres", o.widths.DescPsv))
		}
		if req.UnidPsv == "" {
			return engine.NewValidationError("unid_psv", "unidade e obrigatoria")
		}
		if len(req.UnidPsv) > o.widths.UnidPsv {
			return engine.NewValidationError("unid_psv",
				fmt.Sprintf("unidade excede %d caracteres", o.widths.UnidPsv))
		}
		if req.SituPsv != "A" && req.SituPsv != "I" {
			return engine.NewValidationError("situ_psv", "status deve ser A ou I")
		}
		if req.CodiCfp != nil {
			if len(*req.CodiCfp) != o.widths.CfisPro {
				return engine.NewValidationError("codi_cfp",
					fmt.Sprintf("classificacao fiscal deve ter exatamente %d caracteres", o.widths.CfisPro))
			}
			// The same value lands in cigam11.esmateri.classificacao_f;
			// both target columns gate the write.
			if len(*req.CodiCfp) > o.widths.ClassificacaoF {
				return engine.NewValidationError("codi_cfp",
					fmt.Sprintf("classificacao fiscal excede a largura da coluna destino (%d)", o.widths.ClassificacaoF))
			}
		}
		if req.ClasPsv != nil && len(*req.ClasPsv) > o.widths.ClasPsv {
			return engine.NewValidationError("clas_psv",
				fmt.Sprintf("classificacao excede a largura da coluna (%d)", o.widths.ClasPsv))
		}
		if req.PrsePsv != nil && len(*req.PrsePsv) != o.widths.PrsePsv {
			return engine.NewValidationError("prse_psv",
				fmt.Sprintf("tipo produto/servico deve ter exatamente %d caractere(s)", o.widths.PrsePsv))
		}
	}
	if err := checkScale("saldo_siagri", req.SaldoSiagri); err != nil {
		return err
	}
	if err := checkScale("saldo_cigam", req.SaldoCigam); err != nil {
		return err
	}
	return nil
}

func checkScale(field string, d *decimal.Decimal) error {
	if d != nil && d.Exponent() < -3 {
		return engine.NewValidationError(field, "quantidade com mais de 3 casas decimais")
	}
	return nil
}

// Apply runs pre-flight validation and then the ordered writes. The
// authoritative prodserv record goes first; a prodserv update matching no
// row aborts the whole saga with NotFoundError before anything else runs.
// Later step failures never roll back earlier commits; the caller gets the
// committed/failed breakdown and retries only the failed steps.
func (o *Orchestrator) Apply(ctx context.Context, req Request) (*Result, error) {
	if err := o.Preflight(req); err != nil {
		return nil, err
	}

	res := &Result{Committed: []string{}, Failed: []string{}}
	causes := map[string]error{}

	type step struct {
		name string
		run  func(context.Context, Request) error
		skip bool
	}
	steps := []step{
		{StepProduto, o.updateProduto, req.CodiCfp == nil},
		{StepEsmateri, o.updateEsmateri, req.CodiCfp == nil},
		{StepSaldoSiagri, o.applySaldoSiagri, req.SaldoSiagri == nil},
		{StepSaldoCigam, o.applySaldoCigam, req.SaldoCigam == nil},
	}

	if req.HasAttributes() {
		found, err := o.updateProdserv(ctx, req)
		if err != nil {
			// The remaining requested steps were never attempted; report
			// them as failed so a retry of the failed set covers them.
			res.Failed = append(res.Failed, StepProdserv)
			causes[StepProdserv] = err
			for _, st := range steps {
				if st.skip {
					continue
				}
				res.Failed = append(res.Failed, st.name)
				causes[st.name] = errNotAttempted
			}
			return res, &engine.PartialWriteError{Committed: res.Committed, Failed: res.Failed, Causes: causes}
		}
		if !found {
			return nil, &engine.NotFoundError{Entity: "material", Code: req.Material}
		}
		res.Committed = append(res.Committed, StepProdserv)
	}
	for _, st := range steps {
		if st.skip {
			continue
		}
		if err := st.run(ctx, req); err != nil {
			res.Failed = append(res.Failed, st.name)
			causes[st.name] = err
			continue
		}
		res.Committed = append(res.Committed, st.name)
	}

	if len(res.Failed) > 0 {
		return res, &engine.PartialWriteError{Committed: res.Committed, Failed: res.Failed, Causes: causes}
	}
	return res, nil
}

func (o *Orchestrator) updateProdserv(ctx context.Context, req Request) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	tag, err := o.siagri.Exec(ctx, `
		UPDATE juparana.prodserv
		SET desc_psv = $1,
		    situ_psv = $2,
		    unid_psv = $3,
		    clas_psv = COALESCE($4, clas_psv),
		    codi_gpr = COALESCE($5, codi_gpr),
		    codi_sbg = COALESCE($6, codi_sbg),
		    codi_tip = COALESCE($7, codi_tip),
		    prse_psv = COALESCE($8, prse_psv)
		WHERE codi_psv = $9`,
		req.DescPsv, req.SituPsv, req.UnidPsv,
		req.ClasPsv, req.CodiGpr, req.CodiSbg, req.CodiTip, req.PrsePsv,
		req.Material)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (o *Orchestrator) updateProduto(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	_, err := o.siagri.Exec(ctx, `
		UPDATE juparana.produto
		SET cfis_pro = $1
		WHERE codi_psv = $2`,
		*req.CodiCfp, req.Material)
	return err
}

func (o *Orchestrator) updateEsmateri(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	_, err := o.cigam.ExecContext(ctx, `
		UPDATE cigam11.esmateri
		SET classificacao_f = $1
		WHERE cd_material = $2`,
		*req.CodiCfp, req.Material)
	return err
}

// applySaldoSiagri sets the SIAGRI balance to the corrected absolute value
// and appends a movement audit row recording the prior balance.
func (o *Orchestrator) applySaldoSiagri(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var anterior decimal.Decimal
	err := o.siagri.QueryRow(ctx, `
		SELECT COALESCE(saldo, 0)
		FROM juparana.saldos_siagri
		WHERE codi_emp = $1 AND codi_psv = $2`,
		req.Empresa, req.Material).Scan(&anterior)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	novo := *req.SaldoSiagri
	_, err = o.siagri.Exec(ctx, `
		INSERT INTO juparana.saldos_siagri (codi_emp, codi_psv, saldo, data_atualizacao)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (codi_emp, codi_psv)
		DO UPDATE SET saldo = EXCLUDED.saldo, data_atualizacao = now()`,
		req.Empresa, req.Material, novo.StringFixed(3))
	if err != nil {
		return err
	}
	return o.insertHistorico(ctx, req, adapters.SystemSiagri, anterior, novo)
}

// applySaldoCigam mirrors applySaldoSiagri on the CIGAM connection; the
// audit row still lands in the juparana historico table, tagged CIGAM.
func (o *Orchestrator) applySaldoCigam(ctx context.Context, req Request) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	novo := *req.SaldoCigam
	_, err := o.cigam.ExecContext(ctx, `
		INSERT INTO cigam11.esestoqu (cd_material, cd_unidade_de_n, quantidade, data_atualizacao)
		VALUES ($1, lpad($2::text, 3, '0'), $3, now())
		ON CONFLICT (cd_material, cd_unidade_de_n)
		DO UPDATE SET quantidade = EXCLUDED.quantidade, data_atualizacao = now()`,
		req.Material, req.Empresa, novo.StringFixed(3))
	if err != nil {
		return err
	}
	return o.insertHistorico(ctx, req, adapters.SystemCigam, decimal.Zero, novo)
}

func (o *Orchestrator) insertHistorico(ctx context.Context, req Request, sistema string, anterior, novo decimal.Decimal) error {
	delta := novo.Sub(anterior)
	tipo := "E"
	if delta.IsNegative() {
		tipo = "S"
	}
	_, err := o.siagri.Exec(ctx, `
		INSERT INTO juparana.historico_movimentacoes
			(id, codi_psv, tipo_movimentacao, quantidade,
			 saldo_anterior, saldo_atual, sistema_origem, observacoes, data_movimentacao)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())`,
		uuid.NewString(), req.Material, tipo, delta.Abs().StringFixed(3),
		anterior.StringFixed(3), novo.StringFixed(3), sistema, req.Observacoes)
	return err
}
