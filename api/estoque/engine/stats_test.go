package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	rows := []ComparisonRow{
		{Material: "PSV001", Classificacao: ClassMatching},
		{Material: "PSV002", Classificacao: ClassDivergent},
		{Material: "PSV003", Classificacao: ClassDivergent},
		{Material: "PSV004", Classificacao: ClassOnlySiagri},
		{Material: "PSV005", Classificacao: ClassOnlyCigam},
	}

	s := Summarize(rows)
	assert.Equal(t, Stats{
		Total:        5,
		Divergentes:  2,
		ApenasSiagri: 1,
		ApenasCigam:  1,
		Coincidentes: 1,
	}, s)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Summarize(nil))
}
