package update

// ColumnWidths is the static width contract of every column the orchestrator
// writes. Oversized values are rejected before any write is issued; the
// remote constraint violation is never the first line of defense.
//
// ClasPsv stays at 1 until the business decides whether the column gets
// widened or redefined; deployments that widen it override the value through
// the estoque service config.
type ColumnWidths struct {
	DescPsv        int // juparana.prodserv.desc_psv
	UnidPsv        int // juparana.prodserv.unid_psv
	SituPsv        int // juparana.prodserv.situ_psv
	ClasPsv        int // juparana.prodserv.clas_psv
	PrsePsv        int // juparana.prodserv.prse_psv
	CfisPro        int // juparana.produto.cfis_pro
	ClassificacaoF int // cigam11.esmateri.classificacao_f
}

func DefaultWidths() ColumnWidths {
	return ColumnWidths{
		DescPsv:        120,
		UnidPsv:        10,
		SituPsv:        1,
		ClasPsv:        1,
		PrsePsv:        1,
		CfisPro:        8,
		ClassificacaoF: 8,
	}
}

// WidthsFromConfig overlays service-config overrides onto the defaults.
// Keys mirror the column names; unknown keys are ignored.
func WidthsFromConfig(cfg map[string]interface{}) ColumnWidths {
	w := DefaultWidths()
	if cfg == nil {
		return w
	}
	read := func(key string, dst *int) {
		v, ok := cfg[key]
		if !ok {
			return
		}
		switch t := v.(type) {
		case int:
			if t > 0 {
				*dst = t
			}
		case float64:
			if t > 0 {
				*dst = int(t)
			}
		}
	}
	read("desc_psv", &w.DescPsv)
	read("unid_psv", &w.UnidPsv)
	read("situ_psv", &w.SituPsv)
	read("clas_psv", &w.ClasPsv)
	read("prse_psv", &w.PrsePsv)
	read("cfis_pro", &w.CfisPro)
	read("classificacao_f", &w.ClassificacaoF)
	return w
}
