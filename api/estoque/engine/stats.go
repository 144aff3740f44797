package engine

// Stats summarizes a classified set without re-running the adapters.
type Stats struct {
	Total        int `json:"total"`
	Divergentes  int `json:"divergentes"`
	ApenasSiagri int `json:"apenas_siagri"`
	ApenasCigam  int `json:"apenas_cigam"`
	Coincidentes int `json:"coincidentes"`
}

// Summarize counts classifications over an already classified set.
func Summarize(rows []ComparisonRow) Stats {
	var s Stats
	s.Total = len(rows)
	for _, row := range rows {
		switch row.Classificacao {
		case ClassDivergent:
			s.Divergentes++
		case ClassOnlySiagri:
			s.ApenasSiagri++
		case ClassOnlyCigam:
			s.ApenasCigam++
		case ClassMatching:
			s.Coincidentes++
		}
	}
	return s
}
