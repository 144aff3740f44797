package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func rec(material, saldo string) BalanceRecord {
	return BalanceRecord{Empresa: 1, Material: material, Saldo: dec(saldo)}
}

func TestClassify(t *testing.T) {
	s := rec("PSV001", "10.000")
	czero := rec("PSV001", "0.000")
	cequal := rec("PSV001", "10.000")
	cdiff := rec("PSV001", "95.000")

	tests := []struct {
		name   string
		siagri *BalanceRecord
		cigam  *BalanceRecord
		want   Classification
	}{
		{"present in both, equal", &s, &cequal, ClassMatching},
		{"present in both, different", &s, &cdiff, ClassDivergent},
		{"only in siagri", &s, nil, ClassOnlySiagri},
		{"only in cigam", nil, &cdiff, ClassOnlyCigam},
		{"reported as zero in cigam is still present", &s, &czero, ClassDivergent},
		{"absent from both has nothing to diverge", nil, nil, ClassMatching},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.siagri, tt.cigam))
		})
	}
}

func TestBuildComparisonDivergent(t *testing.T) {
	siagri := map[string]BalanceRecord{"PSV100": rec("PSV100", "100.000")}
	cigam := map[string]BalanceRecord{"PSV100": rec("PSV100", "95.000")}

	rows := BuildComparison(siagri, cigam, Filter{Empresa: 1})
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, ClassDivergent, row.Classificacao)
	assert.True(t, row.DiferencaSaldo.Equal(dec("5.000")), "diferenca = %s", row.DiferencaSaldo)
	assert.True(t, row.Percentual.Equal(dec("5")), "percentual = %s", row.Percentual)
	assert.True(t, row.OrigemSiagri)
	assert.True(t, row.OrigemCigam)
}

func TestBuildComparisonOnlySiagri(t *testing.T) {
	siagri := map[string]BalanceRecord{"PSV200": rec("PSV200", "10.000")}

	rows := BuildComparison(siagri, nil, Filter{Empresa: 1})
	require.Len(t, rows, 1)

	row := rows[0]
	// Missing side counts as zero for the arithmetic, but the presence flag
	// still records that CIGAM never reported the material.
	assert.Equal(t, ClassOnlySiagri, row.Classificacao)
	assert.True(t, row.DiferencaSaldo.Equal(dec("10.000")))
	assert.True(t, row.SaldoCigam.IsZero())
	assert.False(t, row.OrigemCigam)
}

func TestBuildComparisonDifferenceInvariant(t *testing.T) {
	siagri := map[string]BalanceRecord{
		"PSV001": rec("PSV001", "12.500"),
		"PSV002": rec("PSV002", "0.000"),
		"PSV003": rec("PSV003", "7.250"),
	}
	cigam := map[string]BalanceRecord{
		"PSV001": rec("PSV001", "12.500"),
		"PSV003": rec("PSV003", "9.000"),
		"PSV004": rec("PSV004", "3.000"),
	}

	rows := BuildComparison(siagri, cigam, Filter{Empresa: 1})
	require.Len(t, rows, 4)
	for _, row := range rows {
		assert.True(t, row.DiferencaSaldo.Equal(row.SaldoSiagri.Sub(row.SaldoCigam)),
			"material %s", row.Material)
		if row.Classificacao == ClassMatching {
			assert.True(t, row.OrigemSiagri && row.OrigemCigam)
			assert.True(t, row.SaldoSiagri.Equal(row.SaldoCigam))
		}
	}
}

func TestBuildComparisonOrderingIsDeterministic(t *testing.T) {
	siagri := map[string]BalanceRecord{
		"PSV300": rec("PSV300", "1.000"),
		"PSV100": rec("PSV100", "1.000"),
	}
	cigam := map[string]BalanceRecord{
		"PSV200": rec("PSV200", "2.000"),
	}

	for i := 0; i < 5; i++ {
		rows := BuildComparison(siagri, cigam, Filter{Empresa: 1})
		require.Len(t, rows, 3)
		assert.Equal(t, "PSV100", rows[0].Material)
		assert.Equal(t, "PSV200", rows[1].Material)
		assert.Equal(t, "PSV300", rows[2].Material)
	}
}

func TestFlagPredicates(t *testing.T) {
	siagri := map[string]BalanceRecord{
		"PSV001": rec("PSV001", "100.000"), // divergent, positive both
		"PSV002": rec("PSV002", "50.000"),  // matching, positive both
		"PSV003": rec("PSV003", "-5.000"),  // divergent, negative siagri
		"PSV004": rec("PSV004", "10.000"),  // only siagri
	}
	cigam := map[string]BalanceRecord{
		"PSV001": rec("PSV001", "95.000"),
		"PSV002": rec("PSV002", "50.000"),
		"PSV003": rec("PSV003", "2.000"),
		"PSV005": rec("PSV005", "8.000"), // only cigam
	}

	all := BuildComparison(siagri, cigam, Filter{Empresa: 1})
	require.Len(t, all, 5)

	divergent := BuildComparison(siagri, cigam, Filter{Empresa: 1, ApenasDivergentes: true})
	for _, row := range divergent {
		assert.False(t, row.DiferencaSaldo.IsZero(), "material %s", row.Material)
	}
	assert.Len(t, divergent, 4)

	// Reapplying the flag over an already filtered run changes nothing.
	again := BuildComparison(siagri, cigam, Filter{Empresa: 1, ApenasDivergentes: true})
	assert.Equal(t, divergent, again)

	posSiagri := BuildComparison(siagri, cigam, Filter{Empresa: 1, SaldosPositivosSiagri: true})
	posCigam := BuildComparison(siagri, cigam, Filter{Empresa: 1, SaldosPositivosCigam: true})

	// All three flags together behave as the intersection of each flag alone.
	combined := BuildComparison(siagri, cigam, Filter{
		Empresa:               1,
		ApenasDivergentes:     true,
		SaldosPositivosSiagri: true,
		SaldosPositivosCigam:  true,
	})
	inAll := func(material string, sets ...[]ComparisonRow) bool {
		for _, set := range sets {
			found := false
			for _, row := range set {
				if row.Material == material {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	}
	for _, row := range all {
		want := inAll(row.Material, divergent, posSiagri, posCigam)
		got := inAll(row.Material, combined)
		assert.Equal(t, want, got, "material %s", row.Material)
	}
}

func TestMaterialTermAppliesToBothSides(t *testing.T) {
	adesivo := rec("PSV100", "100.000")
	adesivo.Descricao = "ADESIVO ESTRUTURAL"
	parafuso := rec("PSV200", "8.000")
	parafuso.Descricao = "PARAFUSO SEXTAVADO"

	siagri := map[string]BalanceRecord{"PSV100": adesivo}
	cigam := map[string]BalanceRecord{
		"PSV100": rec("PSV100", "100.000"),
		"PSV200": parafuso,
	}

	// A description-fragment search must still see CIGAM's balance for the
	// matched material: equal balances stay MATCHING, never ONLY_SIAGRI.
	rows := BuildComparison(siagri, cigam, Filter{Empresa: 1, Material: "ADESIVO"})
	require.Len(t, rows, 1)
	assert.Equal(t, "PSV100", rows[0].Material)
	assert.Equal(t, ClassMatching, rows[0].Classificacao)
	assert.True(t, rows[0].DiferencaSaldo.IsZero())
	assert.True(t, rows[0].OrigemCigam)

	// Exact code search reaches materials only CIGAM stocks.
	rows = BuildComparison(siagri, cigam, Filter{Empresa: 1, Material: "PSV200"})
	require.Len(t, rows, 1)
	assert.Equal(t, ClassOnlyCigam, rows[0].Classificacao)

	// CIGAM-only rows match on their own description too.
	rows = BuildComparison(siagri, cigam, Filter{Empresa: 1, Material: "parafuso"})
	require.Len(t, rows, 1)
	assert.Equal(t, "PSV200", rows[0].Material)
}

func TestPercentual(t *testing.T) {
	assert.True(t, Percentual(dec("5"), dec("100")).Equal(dec("5")))
	assert.True(t, Percentual(dec("-5"), dec("100")).Equal(dec("-5")))
	// Division by zero is defined as 0, not NaN.
	assert.True(t, Percentual(dec("10"), dec("0")).IsZero())
	assert.True(t, Percentual(dec("1"), dec("3")).Equal(dec("33.33")))
}
