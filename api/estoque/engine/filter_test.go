package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFilter(t *testing.T) {
	tests := []struct {
		name    string
		raw     RawFilter
		wantErr string
	}{
		{"empresa required", RawFilter{}, "empresa"},
		{"empresa must be numeric", RawFilter{Empresa: "abc"}, "empresa"},
		{"empresa must be positive", RawFilter{Empresa: "-3"}, "empresa"},
		{"minimal valid", RawFilter{Empresa: "1"}, ""},
		{"grupo non numeric", RawFilter{Empresa: "1", Grupo: "x"}, "grupo"},
		{"subgrupo without grupo is accepted", RawFilter{Empresa: "1", Subgrupo: "12"}, ""},
		{"material term too short", RawFilter{Empresa: "1", Material: "ab"}, "material"},
		{"material term ok", RawFilter{Empresa: "1", Material: "ADESIVO"}, ""},
		{"bad flag value", RawFilter{Empresa: "1", ApenasDivergentes: "maybe"}, "apenas_divergentes"},
		{"flags accept 1/true", RawFilter{Empresa: "1", ApenasDivergentes: "1", SaldosPositivosCigam: "true"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ResolveFilter(tt.raw)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantErr, verr.Field)
			// A rejected filter carries nothing, not the fields
			// resolved before the failure.
			assert.Equal(t, Filter{}, f)
		})
	}
}

func TestResolveFilterNormalizes(t *testing.T) {
	f, err := ResolveFilter(RawFilter{
		Empresa:               " 1 ",
		Grupo:                 "80",
		Subgrupo:              "12",
		Material:              "  PSV001 ",
		ApenasDivergentes:     "sim",
		SaldosPositivosSiagri: "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, f.Empresa)
	require.NotNil(t, f.Grupo)
	assert.Equal(t, 80, *f.Grupo)
	require.NotNil(t, f.Subgrupo)
	assert.Equal(t, 12, *f.Subgrupo)
	assert.Equal(t, "PSV001", f.Material)
	assert.True(t, f.ApenasDivergentes)
	assert.False(t, f.SaldosPositivosSiagri)
	assert.False(t, f.SaldosPositivosCigam)
}

func TestNormalizeOptions(t *testing.T) {
	got, err := NormalizeOptions([]Option{
		{Code: " 80 ", Label: " DEFENSIVOS "},
		{Code: "81", Label: "FERTILIZANTES"},
	})
	require.NoError(t, err)
	assert.Equal(t, []Option{{Code: "80", Label: "DEFENSIVOS"}, {Code: "81", Label: "FERTILIZANTES"}}, got)

	_, err = NormalizeOptions([]Option{{Code: "", Label: "X"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = NormalizeOptions([]Option{{Code: "80", Label: "A"}, {Code: "80", Label: "B"}})
	require.ErrorAs(t, err, &verr)
}
