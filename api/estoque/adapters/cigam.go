package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"EstoqueSync/api/estoque/engine"
	"EstoqueSync/internal/config"
)

// CigamSource reads the cigam11 schema (System CIGAM) through its own
// database/sql connection, fully independent of the SIAGRI pool.
type CigamSource struct {
	db      *sql.DB
	timeout time.Duration
}

func NewCigamSource(db *sql.DB, timeout time.Duration) *CigamSource {
	if timeout <= 0 {
		timeout = config.DefaultSourceTimeout
	}
	return &CigamSource{db: db, timeout: timeout}
}

func (c *CigamSource) System() string { return SystemCigam }

// FetchBalances aggregates esestoqu per material for the company. The
// CIGAM company code is the SIAGRI code left-padded to 3 digits. The
// material search term is NOT applied here: the comparison engine applies
// the same term predicate to both sides after the join, so a
// description-fragment search never turns into one-sided divergences.
func (c *CigamSource) FetchBalances(ctx context.Context, f engine.Filter) (map[string]engine.BalanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	query := `
		SELECT e.cd_material,
		       COALESCE(MAX(m.descricao), ''),
		       COALESCE(MAX(m.classificacao_f), ''),
		       SUM(e.quantidade),
		       MAX(e.data_atualizacao)
		FROM cigam11.esestoqu e
		JOIN cigam11.esmateri m ON m.cd_material = e.cd_material
		WHERE btrim(e.cd_unidade_de_n) = lpad($1::text, 3, '0')
		GROUP BY e.cd_material`

	rows, err := c.db.QueryContext(ctx, query, f.Empresa)
	if err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemCigam, Err: err}
	}
	defer rows.Close()

	out := make(map[string]engine.BalanceRecord)
	for rows.Next() {
		var rec engine.BalanceRecord
		var saldo string
		var atualizado sql.NullTime
		rec.Empresa = f.Empresa
		rec.Status = "A"
		if err := rows.Scan(&rec.Material, &rec.Descricao, &rec.NCM, &saldo, &atualizado); err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemCigam, Err: err}
		}
		rec.Saldo, err = decimal.NewFromString(saldo)
		if err != nil {
			return nil, &engine.SourceUnavailableError{System: SystemCigam,
				Err: fmt.Errorf("material %s: quantidade invalida %q: %w", rec.Material, saldo, err)}
		}
		if atualizado.Valid {
			rec.AtualizadoEm = atualizado.Time
		}
		out[rec.Material] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, &engine.SourceUnavailableError{System: SystemCigam, Err: err}
	}
	return out, nil
}

// SnapshotRow is one line of an uploaded CIGAM balance snapshot.
type SnapshotRow struct {
	Material   string
	Unidade    string
	Quantidade decimal.Decimal
}

// UpsertSnapshot replaces the stored quantity for each (material, unidade)
// pair. Called by the snapshot upload handler; rows are validated before
// this point.
func (c *CigamSource) UpsertSnapshot(ctx context.Context, snap []SnapshotRow) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &engine.SourceUnavailableError{System: SystemCigam, Err: err}
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO cigam11.esestoqu (cd_material, cd_unidade_de_n, quantidade, data_atualizacao)
		VALUES ($1, lpad($2, 3, '0'), $3, now())
		ON CONFLICT (cd_material, cd_unidade_de_n)
		DO UPDATE SET quantidade = EXCLUDED.quantidade,
		              data_atualizacao = EXCLUDED.data_atualizacao`

	count := 0
	for _, row := range snap {
		if _, err := tx.ExecContext(ctx, upsert, row.Material, row.Unidade, row.Quantidade.StringFixed(3)); err != nil {
			return count, &engine.SourceUnavailableError{System: SystemCigam,
				Err: fmt.Errorf("material %s: %w", row.Material, err)}
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return 0, &engine.SourceUnavailableError{System: SystemCigam, Err: err}
	}
	return count, nil
}

// Ping reports connection health for the service health endpoint.
func (c *CigamSource) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.db.PingContext(ctx); err != nil {
		return &engine.SourceUnavailableError{System: SystemCigam, Err: err}
	}
	return nil
}

// DB exposes the underlying connection for the update orchestrator.
func (c *CigamSource) DB() *sql.DB { return c.db }

var _ BalanceSource = (*CigamSource)(nil)
