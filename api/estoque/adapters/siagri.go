package adapters

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"EstoqueSync/api/estoque/engine"
	"EstoqueSync/internal/config"
)

// SiagriSource reads the juparana schema (System SIAGRI) through its own
// pgx pool. The pool is the only shared resource; every call acquires and
// releases connections through it and carries its own timeout.
type SiagriSource struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewSiagriSource(pool *pgxpool.Pool, timeout time.Duration) *SiagriSource {
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}
	return &SiagriSource{pool: pool, timeout: timeout}
}

func (s *SiagriSource) System() string { return SystemSiagri }

// FetchBalances returns one record per material registered in prodserv for
// the filtered company/group slice, deduplicated by material code. The saldo
// join is a LEFT JOIN on purpose: a cataloged material with no saldo row is
// still reported by SIAGRI, with balance zero.
func (s *SiagriSource) FetchBalances(ctx context.Context, f engine.Filter) (map[string]engine.BalanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	query := `
		SELECT DISTINCT ON (p.codi_psv)
			p.codi_psv,
			COALESCE(p.desc_psv, ''),
			CASE WHEN btrim(COALESCE(p.situ_psv,'')) IN ('A','I') THEN btrim(p.situ_psv) ELSE 'A' END,
			p.codi_gpr,
			p.codi_sbg,
			COALESCE(p.unid_psv, ''),
			COALESCE(pd.cfis_pro, p.clas_psv, ''),
			COALESCE(p.codi_tip::text, ''),
			COALESCE(p.prse_psv, ''),
			COALESCE(sl.saldo, 0),
			COALESCE(sl.data_atualizacao, now())
		FROM juparana.prodserv p
		LEFT JOIN juparana.produto pd ON pd.codi_psv = p.codi_psv
		LEFT JOIN juparana.saldos_siagri sl
			ON sl.codi_emp = $1 AND sl.codi_psv = p.codi_psv
		WHERE p.prse_psv = 'U'
		  AND p.codi_gpr = ANY($2)
		  AND ($3::int IS NULL OR p.codi_gpr = $3)
		  AND ($4::int IS NULL OR p.codi_sbg = $4)
		  AND ($5::text IS NULL OR p.codi_psv = $5
		       OR upper(p.desc_psv) LIKE '%' || upper($5) || '%')
		ORDER BY p.codi_psv`

	var material *string
	if f.Material != "" {
		material = &f.Material
	}

	rows, err := s.pool.Query(ctx, query, f.Empresa, config.GrupoWhitelist, f.Grupo, f.Subgrupo, material)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	out := make(map[string]engine.BalanceRecord)
	for rows.Next() {
		var rec engine.BalanceRecord
		rec.Empresa = f.Empresa
		if err := rows.Scan(
			&rec.Material, &rec.Descricao, &rec.Status,
			&rec.Grupo, &rec.Subgrupo, &rec.Unidade,
			&rec.NCM, &rec.TipoItem, &rec.TipoMaterial,
			&rec.Saldo, &rec.AtualizadoEm,
		); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		out[rec.Material] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return out, nil
}

// Empresas lists active companies for the filter dropdown.
func (s *SiagriSource) Empresas(ctx context.Context) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT codi_emp, iden_emp
		FROM juparana.cademp
		WHERE situ_emp = 'A'
		ORDER BY iden_emp`)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo int
		var nome string
		if err := rows.Scan(&codigo, &nome); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: strconv.Itoa(codigo), Label: nome})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// Grupos lists the reconciled product groups (whitelisted codes only).
func (s *SiagriSource) Grupos(ctx context.Context) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT codi_gpr, desc_gpr
		FROM juparana.grupo
		WHERE codi_gpr = ANY($1) AND situ_gpr = 'A'
		ORDER BY codi_gpr`, config.GrupoWhitelist)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo int
		var descricao string
		if err := rows.Scan(&codigo, &descricao); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: strconv.Itoa(codigo), Label: descricao})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// Subgrupos lists active subgroups of one group.
func (s *SiagriSource) Subgrupos(ctx context.Context, grupo int) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT codi_sbg, desc_sbg
		FROM juparana.subgrupo
		WHERE codi_gpr = $1 AND situ_sbg = 'A'
		ORDER BY desc_sbg`, grupo)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo int
		var descricao string
		if err := rows.Scan(&codigo, &descricao); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: strconv.Itoa(codigo), Label: descricao})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// Unidades lists the distinct measurement units in use, for the edit form.
func (s *SiagriSource) Unidades(ctx context.Context) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.unid_psv
		FROM juparana.prodserv p
		WHERE p.unid_psv IS NOT NULL
		  AND p.prse_psv = 'U'
		  AND p.situ_psv = 'A'
		ORDER BY p.unid_psv`)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var unidade string
		if err := rows.Scan(&unidade); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: unidade, Label: unidade})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// TiposProduto lists the product/service type codes with their labels.
func (s *SiagriSource) TiposProduto(ctx context.Context) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.prse_psv,
		       CASE p.prse_psv
		           WHEN 'U' THEN 'Consumo'
		           WHEN 'P' THEN 'Produto'
		           WHEN 'K' THEN 'Kit/Pacote'
		           WHEN 'B' THEN 'Bem Imobilizado'
		           WHEN 'S' THEN 'Servico'
		           ELSE p.prse_psv
		       END
		FROM juparana.prodserv p
		WHERE p.prse_psv IN ('U', 'P', 'K', 'B', 'S')
		  AND p.situ_psv = 'A'
		ORDER BY p.prse_psv`)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo, descricao string
		if err := rows.Scan(&codigo, &descricao); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: codigo, Label: descricao})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// TiposItem lists the item type codes registered on active materials.
func (s *SiagriSource) TiposItem(ctx context.Context) ([]engine.Option, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.codi_tip,
		       COALESCE(t.desc_tip, 'Tipo ' || p.codi_tip)
		FROM juparana.prodserv p
		LEFT JOIN juparana.tipoprodu t ON t.codi_tip = p.codi_tip
		WHERE p.codi_tip IS NOT NULL
		  AND p.prse_psv = 'U'
		  AND p.situ_psv = 'A'
		ORDER BY p.codi_tip`)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo int
		var descricao string
		if err := rows.Scan(&codigo, &descricao); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: strconv.Itoa(codigo), Label: descricao})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// SubgrupoPertenceAoGrupo checks hierarchy consistency for the filter
// resolver when both grupo and subgrupo are given.
func (s *SiagriSource) SubgrupoPertenceAoGrupo(ctx context.Context, grupo, subgrupo int) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM juparana.subgrupo
			WHERE codi_gpr = $1 AND codi_sbg = $2
		)`, grupo, subgrupo).Scan(&exists)
	if err != nil {
		return false, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return exists, nil
}

// Materiais searches active materials by code or description fragment for
// the autocomplete dropdown.
func (s *SiagriSource) Materiais(ctx context.Context, termo string, grupo, subgrupo *int, limit int) ([]engine.Option, error) {
	if len(termo) < engine.MinMaterialTermLen {
		return []engine.Option{}, nil
	}
	if limit <= 0 {
		limit = config.DefaultMaterialSearchLimit
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT p.codi_psv, p.desc_psv
		FROM juparana.prodserv p
		WHERE (upper(p.desc_psv) LIKE '%' || upper($1) || '%' OR p.codi_psv = $1)
		  AND p.prse_psv = 'U'
		  AND p.situ_psv = 'A'
		  AND ($2::int IS NULL OR p.codi_gpr = $2)
		  AND ($3::int IS NULL OR p.codi_sbg = $3)
		ORDER BY p.desc_psv
		LIMIT $4`, termo, grupo, subgrupo, limit)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	opts := []engine.Option{}
	for rows.Next() {
		var codigo, descricao string
		if err := rows.Scan(&codigo, &descricao); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		opts = append(opts, engine.Option{Code: codigo, Label: descricao})
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return engine.NormalizeOptions(opts)
}

// MaterialDetail loads the editable attributes of one material.
func (s *SiagriSource) MaterialDetail(ctx context.Context, codigo string) (*engine.BalanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var rec engine.BalanceRecord
	err := s.pool.QueryRow(ctx, `
		SELECT p.codi_psv,
		       COALESCE(p.desc_psv, ''),
		       CASE WHEN btrim(COALESCE(p.situ_psv,'')) IN ('A','I') THEN btrim(p.situ_psv) ELSE 'A' END,
		       p.codi_gpr,
		       p.codi_sbg,
		       COALESCE(p.unid_psv, ''),
		       COALESCE(pd.cfis_pro, p.clas_psv, ''),
		       COALESCE(p.codi_tip::text, ''),
		       COALESCE(p.prse_psv, '')
		FROM juparana.prodserv p
		LEFT JOIN juparana.produto pd ON pd.codi_psv = p.codi_psv
		WHERE p.codi_psv = $1`, codigo).Scan(
		&rec.Material, &rec.Descricao, &rec.Status,
		&rec.Grupo, &rec.Subgrupo, &rec.Unidade,
		&rec.NCM, &rec.TipoItem, &rec.TipoMaterial,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &engine.NotFoundError{Entity: "material", Code: codigo}
		}
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	rec.Saldo = decimal.Zero
	return &rec, nil
}

// Historico returns the most recent movement entries for one material.
func (s *SiagriSource) Historico(ctx context.Context, codigo string, limit int) ([]engine.HistoricoItem, error) {
	if limit <= 0 {
		limit = config.DefaultHistoricoLimit
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx, `
		SELECT id, codi_psv, tipo_movimentacao, quantidade,
		       saldo_anterior, saldo_atual, sistema_origem,
		       COALESCE(observacoes, ''), data_movimentacao
		FROM juparana.historico_movimentacoes
		WHERE codi_psv = $1
		ORDER BY data_movimentacao DESC
		LIMIT $2`, codigo, limit)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	defer rows.Close()

	items := []engine.HistoricoItem{}
	for rows.Next() {
		var h engine.HistoricoItem
		if err := rows.Scan(
			&h.ID, &h.Material, &h.Tipo, &h.Quantidade,
			&h.SaldoAnterior, &h.SaldoAtual, &h.Sistema,
			&h.Observacoes, &h.Data,
		); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
		}
		items = append(items, h)
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return items, nil
}

// Ping reports pool health for the service health endpoint.
func (s *SiagriSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.pool.Ping(ctx); err != nil {
		return &engine.SourceUnavailableError{System: SystemSiagri, Err: err}
	}
	return nil
}

var _ BalanceSource = (*SiagriSource)(nil)

// Pool exposes the underlying pool for the update orchestrator, which writes
// through the same connection budget as the reads.
func (s *SiagriSource) Pool() *pgxpool.Pool { return s.pool }

func (s *SiagriSource) String() string {
	return fmt.Sprintf("siagri source (timeout %s)", s.timeout)
}
