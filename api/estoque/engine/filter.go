package engine

import (
	"strconv"
	"strings"
)

// RawFilter carries the filter exactly as received from the transport layer,
// before any validation.
type RawFilter struct {
	Empresa               string
	Grupo                 string
	Subgrupo              string
	Material              string
	ApenasDivergentes     string
	SaldosPositivosSiagri string
	SaldosPositivosCigam  string
}

// Filter is the normalized filter the adapters and the comparison run on.
// The three booleans only ever narrow the result set; an unset flag means
// "no constraint from that flag".
type Filter struct {
	Empresa               int
	Grupo                 *int
	Subgrupo              *int
	Material              string
	ApenasDivergentes     bool
	SaldosPositivosSiagri bool
	SaldosPositivosCigam  bool
}

// MinMaterialTermLen mirrors the original search behavior: shorter terms
// produce too many matches against the description column.
const MinMaterialTermLen = 3

// ResolveFilter validates and normalizes a raw filter. It performs no I/O;
// hierarchy consistency between grupo and subgrupo needs reference data and
// is checked by the caller before any balance fetch.
func ResolveFilter(raw RawFilter) (Filter, error) {
	var f Filter

	empresa := strings.TrimSpace(raw.Empresa)
	if empresa == "" {
		return f, NewValidationError("empresa", "codigo da empresa e obrigatorio")
	}
	codEmp, err := strconv.Atoi(empresa)
	if err != nil || codEmp <= 0 {
		return f, NewValidationError("empresa", "codigo da empresa deve ser numerico e positivo")
	}
	f.Empresa = codEmp

	if g := strings.TrimSpace(raw.Grupo); g != "" {
		cod, err := strconv.Atoi(g)
		if err != nil || cod <= 0 {
			return Filter{}, NewValidationError("grupo", "codigo do grupo deve ser numerico e positivo")
		}
		f.Grupo = &cod
	}

	// A subgrupo without a grupo is accepted: it constrains the subgroup
	// column on its own, leaving the group unconstrained.
	if s := strings.TrimSpace(raw.Subgrupo); s != "" {
		cod, err := strconv.Atoi(s)
		if err != nil || cod <= 0 {
			return Filter{}, NewValidationError("subgrupo", "codigo do subgrupo deve ser numerico e positivo")
		}
		f.Subgrupo = &cod
	}

	if m := strings.TrimSpace(raw.Material); m != "" {
		if len(m) < MinMaterialTermLen {
			return Filter{}, NewValidationError("material", "termo de busca deve ter ao menos 3 caracteres")
		}
		f.Material = m
	}

	f.ApenasDivergentes, err = parseFlag("apenas_divergentes", raw.ApenasDivergentes)
	if err != nil {
		return Filter{}, err
	}
	f.SaldosPositivosSiagri, err = parseFlag("saldos_positivos_siagri", raw.SaldosPositivosSiagri)
	if err != nil {
		return Filter{}, err
	}
	f.SaldosPositivosCigam, err = parseFlag("saldos_positivos_cigam", raw.SaldosPositivosCigam)
	if err != nil {
		return Filter{}, err
	}

	return f, nil
}

func parseFlag(name, v string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false", "f", "nao", "no":
		return false, nil
	case "1", "true", "t", "sim", "yes":
		return true, nil
	}
	return false, NewValidationError(name, "valor booleano invalido")
}

// NormalizeOptions rejects dropdown payloads with empty or duplicate codes.
// Rejection happens here, once, instead of in every consumer.
func NormalizeOptions(opts []Option) ([]Option, error) {
	seen := make(map[string]bool, len(opts))
	out := make([]Option, 0, len(opts))
	for _, o := range opts {
		code := strings.TrimSpace(o.Code)
		if code == "" {
			return nil, NewValidationError("codigo", "opcao com codigo vazio")
		}
		if seen[code] {
			return nil, NewValidationError("codigo", "opcao com codigo duplicado: "+code)
		}
		seen[code] = true
		out = append(out, Option{Code: code, Label: strings.TrimSpace(o.Label)})
	}
	return out, nil
}
