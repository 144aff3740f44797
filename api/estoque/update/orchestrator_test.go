package update

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EstoqueSync/api/estoque/engine"
)

type fakeSiagri struct {
	execs        []string
	failOn       string
	rowsAffected int64
}

func tableOf(query string) string {
	for _, table := range []string{"prodserv", "produto", "saldos_siagri", "historico_movimentacoes"} {
		if strings.Contains(query, table) {
			return table
		}
	}
	return "unknown"
}

func (f *fakeSiagri) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	table := tableOf(query)
	if f.failOn != "" && table == f.failOn {
		return pgconn.CommandTag{}, errors.New("simulated failure")
	}
	f.execs = append(f.execs, table)
	return pgconn.NewCommandTag(fmt.Sprintf("UPDATE %d", f.rowsAffected)), nil
}

type fakeRow struct{ err error }

func (r fakeRow) Scan(_ ...any) error { return r.err }

func (f *fakeSiagri) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{err: pgx.ErrNoRows}
}

type fakeCigam struct {
	execs  []string
	failOn string
}

func (f *fakeCigam) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	table := "esmateri"
	if strings.Contains(query, "esestoqu") {
		table = "esestoqu"
	}
	if f.failOn != "" && table == f.failOn {
		return nil, errors.New("simulated failure")
	}
	f.execs = append(f.execs, table)
	return nil, nil
}

func str(s string) *string { return &s }

func decp(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func validRequest() Request {
	return Request{
		Material: "PSV001",
		Empresa:  1,
		DescPsv:  "ADESIVO ESTRUTURAL",
		SituPsv:  "A",
		UnidPsv:  "UN",
	}
}

func newTestOrchestrator(siagri *fakeSiagri, cigam *fakeCigam) *Orchestrator {
	return NewOrchestrator(siagri, cigam, DefaultWidths(), 0)
}

func TestPreflightRejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Request)
		wantField string
	}{
		{"missing description", func(r *Request) { r.DescPsv = "" }, "desc_psv"},
		{"description too long", func(r *Request) { r.DescPsv = strings.Repeat("X", 121) }, "desc_psv"},
		{"missing unit", func(r *Request) { r.UnidPsv = "" }, "unid_psv"},
		{"unit too long", func(r *Request) { r.UnidPsv = "UNIDADES-XX" }, "unid_psv"},
		{"bad status", func(r *Request) { r.SituPsv = "X" }, "situ_psv"},
		{"fiscal classification must be 8 chars", func(r *Request) { r.CodiCfp = str("731816001") }, "codi_cfp"},
		{"fiscal classification too short", func(r *Request) { r.CodiCfp = str("7318") }, "codi_cfp"},
		// The production defect: an 8-char NCM aimed at the 1-char
		// clas_psv column must die here, not at the database.
		{"oversized single-char classification", func(r *Request) { r.ClasPsv = str("73181600") }, "clas_psv"},
		{"two-char classification", func(r *Request) { r.ClasPsv = str("AB") }, "clas_psv"},
		{"prse must be one char", func(r *Request) { r.PrsePsv = str("UU") }, "prse_psv"},
		{"too many decimal places", func(r *Request) { r.SaldoSiagri = decp("1.0001") }, "saldo_siagri"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			siagri := &fakeSiagri{rowsAffected: 1}
			cigam := &fakeCigam{}
			orch := newTestOrchestrator(siagri, cigam)

			req := validRequest()
			tt.mutate(&req)

			_, err := orch.Apply(context.Background(), req)
			var verr *engine.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantField, verr.Field)
			assert.Empty(t, siagri.execs, "no SIAGRI write may happen")
			assert.Empty(t, cigam.execs, "no CIGAM write may happen")
		})
	}
}

func TestPreflightAcceptsValidCodes(t *testing.T) {
	orch := newTestOrchestrator(&fakeSiagri{rowsAffected: 1}, &fakeCigam{})

	req := validRequest()
	req.CodiCfp = str("73181600")
	req.ClasPsv = str("U")
	require.NoError(t, orch.Preflight(req))
}

func TestPreflightChecksBothFiscalTargets(t *testing.T) {
	// codi_cfp also lands in cigam11.esmateri.classificacao_f; a deployment
	// narrowing that column must be protected before any write.
	widths := WidthsFromConfig(map[string]interface{}{"classificacao_f": 4})
	siagri := &fakeSiagri{rowsAffected: 1}
	cigam := &fakeCigam{}
	orch := NewOrchestrator(siagri, cigam, widths, 0)

	req := validRequest()
	req.CodiCfp = str("73181600")

	_, err := orch.Apply(context.Background(), req)
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "codi_cfp", verr.Field)
	assert.Empty(t, siagri.execs)
	assert.Empty(t, cigam.execs)
}

func TestWidthOverrideAllowsWiderClassification(t *testing.T) {
	widths := WidthsFromConfig(map[string]interface{}{"clas_psv": 8})
	orch := NewOrchestrator(&fakeSiagri{rowsAffected: 1}, &fakeCigam{}, widths, 0)

	req := validRequest()
	req.ClasPsv = str("73181600")
	require.NoError(t, orch.Preflight(req))
}

func TestApplyAttributeSaga(t *testing.T) {
	siagri := &fakeSiagri{rowsAffected: 1}
	cigam := &fakeCigam{}
	orch := newTestOrchestrator(siagri, cigam)

	req := validRequest()
	req.CodiCfp = str("73181600")

	res, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{StepProdserv, StepProduto, StepEsmateri}, res.Committed)
	assert.Empty(t, res.Failed)
	// prodserv is written first: it is the authoritative record.
	assert.Equal(t, []string{"prodserv", "produto"}, siagri.execs)
	assert.Equal(t, []string{"esmateri"}, cigam.execs)
}

func TestApplyReportsPartialFailure(t *testing.T) {
	siagri := &fakeSiagri{rowsAffected: 1}
	cigam := &fakeCigam{failOn: "esmateri"}
	orch := newTestOrchestrator(siagri, cigam)

	req := validRequest()
	req.CodiCfp = str("73181600")

	res, err := orch.Apply(context.Background(), req)
	var perr *engine.PartialWriteError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, []string{StepProdserv, StepProduto}, res.Committed)
	assert.Equal(t, []string{StepEsmateri}, res.Failed)
	assert.Equal(t, perr.Committed, res.Committed)
	require.Contains(t, perr.Causes, StepEsmateri)
}

func TestApplyProdservFailureReportsUnattemptedSteps(t *testing.T) {
	siagri := &fakeSiagri{failOn: "prodserv", rowsAffected: 1}
	cigam := &fakeCigam{}
	orch := newTestOrchestrator(siagri, cigam)

	req := validRequest()
	req.CodiCfp = str("73181600")
	req.SaldoSiagri = decp("10.000")

	res, err := orch.Apply(context.Background(), req)
	var perr *engine.PartialWriteError
	require.ErrorAs(t, err, &perr)
	assert.Empty(t, res.Committed)
	// Every requested step shows up in the failure report, including the
	// ones the aborted saga never reached.
	assert.Equal(t, []string{StepProdserv, StepProduto, StepEsmateri, StepSaldoSiagri}, res.Failed)
	require.Contains(t, perr.Causes, StepSaldoSiagri)
	assert.Empty(t, siagri.execs)
	assert.Empty(t, cigam.execs)
}

func TestApplyUnknownMaterial(t *testing.T) {
	siagri := &fakeSiagri{rowsAffected: 0}
	cigam := &fakeCigam{}
	orch := newTestOrchestrator(siagri, cigam)

	req := validRequest()
	req.CodiCfp = str("73181600")

	_, err := orch.Apply(context.Background(), req)
	var nferr *engine.NotFoundError
	require.ErrorAs(t, err, &nferr)
	assert.Equal(t, "PSV001", nferr.Code)
	// Nothing past the authoritative record is attempted.
	assert.Equal(t, []string{"prodserv"}, siagri.execs)
	assert.Empty(t, cigam.execs)
}

func TestApplyBalanceOnly(t *testing.T) {
	siagri := &fakeSiagri{rowsAffected: 1}
	cigam := &fakeCigam{}
	orch := newTestOrchestrator(siagri, cigam)

	req := Request{
		Material:    "PSV001",
		Empresa:     1,
		SaldoSiagri: decp("100.000"),
		SaldoCigam:  decp("100.000"),
		Observacoes: "acerto pre-migracao",
	}

	res, err := orch.Apply(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{StepSaldoSiagri, StepSaldoCigam}, res.Committed)
	// Balance writes land with their movement audit rows.
	assert.Equal(t, []string{"saldos_siagri", "historico_movimentacoes", "historico_movimentacoes"}, siagri.execs)
	assert.Equal(t, []string{"esestoqu"}, cigam.execs)
}

func TestApplyEmptyRequest(t *testing.T) {
	orch := newTestOrchestrator(&fakeSiagri{rowsAffected: 1}, &fakeCigam{})

	_, err := orch.Apply(context.Background(), Request{Material: "PSV001", Empresa: 1})
	var verr *engine.ValidationError
	require.ErrorAs(t, err, &verr)
}
