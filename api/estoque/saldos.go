package estoque

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"EstoqueSync/api"
	"EstoqueSync/api/estoque/adapters"
	"EstoqueSync/api/estoque/engine"
	"EstoqueSync/internal/config"
)

// GetSaldos handles GET /estoque/saldos: both systems are queried
// concurrently, joined, classified and paginated. A failure on either side
// fails the whole request; a half-comparison would be presented as a wall
// of false divergences.
func GetSaldos(siagri *adapters.SiagriSource, cigam *adapters.CigamSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		f, err := engine.ResolveFilter(rawFilterFrom(q))
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}
		if err := checkHierarchy(r.Context(), siagri, f); err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		page, size, err := pageParams(q)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		rows, err := fetchComparison(r.Context(), siagri, cigam, f)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		pageRows, meta, err := engine.Paginate(rows, page, size, config.MaxPageSize)
		if err != nil {
			api.RespondWithTypedError(w, err)
			return
		}

		api.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"items":    pageRows,
			"total":    meta.Total,
			"page":     meta.Page,
			"size":     meta.Size,
			"pages":    meta.Pages,
			"has_next": meta.HasNext,
			"has_prev": meta.HasPrev,
			"resumo":   engine.Summarize(rows),
		})
	}
}

func rawFilterFrom(q url.Values) engine.RawFilter {
	return engine.RawFilter{
		Empresa:               q.Get("empresa"),
		Grupo:                 q.Get("grupo"),
		Subgrupo:              q.Get("subgrupo"),
		Material:              q.Get("material"),
		ApenasDivergentes:     q.Get("apenas_divergentes"),
		SaldosPositivosSiagri: q.Get("saldos_positivos_siagri"),
		SaldosPositivosCigam:  q.Get("saldos_positivos_cigam"),
	}
}

func pageParams(q url.Values) (int, int, error) {
	page, size := 1, config.DefaultPageSize
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, engine.NewValidationError("page", "pagina deve ser numerica")
		}
		page = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, engine.NewValidationError("size", "tamanho de pagina deve ser numerico")
		}
		size = n
	}
	return page, size, nil
}

// checkHierarchy rejects a subgrupo outside the selected grupo before any
// balance fetch runs.
func checkHierarchy(ctx context.Context, siagri *adapters.SiagriSource, f engine.Filter) error {
	if f.Grupo == nil || f.Subgrupo == nil {
		return nil
	}
	ok, err := siagri.SubgrupoPertenceAoGrupo(ctx, *f.Grupo, *f.Subgrupo)
	if err != nil {
		return err
	}
	if !ok {
		return engine.NewValidationError("subgrupo", "subgrupo nao pertence ao grupo informado")
	}
	return nil
}

// fetchComparison queries both sources in parallel and joins the results.
// The first error cancels the other fetch; the channel is buffered so the
// slower goroutine never leaks.
func fetchComparison(ctx context.Context, siagri, cigam adapters.BalanceSource, f engine.Filter) ([]engine.ComparisonRow, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type fetched struct {
		system string
		recs   map[string]engine.BalanceRecord
		err    error
	}
	ch := make(chan fetched, 2)
	for _, src := range []adapters.BalanceSource{siagri, cigam} {
		go func(src adapters.BalanceSource) {
			recs, err := src.FetchBalances(ctx, f)
			ch <- fetched{system: src.System(), recs: recs, err: err}
		}(src)
	}

	bySystem := make(map[string]map[string]engine.BalanceRecord, 2)
	for i := 0; i < 2; i++ {
		res := <-ch
		if res.err != nil {
			return nil, res.err
		}
		bySystem[res.system] = res.recs
	}
	return engine.BuildComparison(bySystem[adapters.SystemSiagri], bySystem[adapters.SystemCigam], f), nil
}
