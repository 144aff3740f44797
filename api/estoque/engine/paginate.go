package engine

// PageMeta describes one page of an already filtered result set. Total always
// counts the filtered set, not the raw union.
type PageMeta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Size    int  `json:"size"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

// Paginate slices rows into a 1-based page. Size is clamped against maxSize
// by validation, not silently.
func Paginate(rows []ComparisonRow, page, size, maxSize int) ([]ComparisonRow, PageMeta, error) {
	if page < 1 {
		return nil, PageMeta{}, NewValidationError("page", "pagina deve ser >= 1")
	}
	if size < 1 {
		return nil, PageMeta{}, NewValidationError("size", "tamanho de pagina deve ser >= 1")
	}
	if maxSize > 0 && size > maxSize {
		return nil, PageMeta{}, NewValidationError("size", "tamanho de pagina acima do limite")
	}

	total := len(rows)
	pages := (total + size - 1) / size

	meta := PageMeta{
		Total:   total,
		Page:    page,
		Size:    size,
		Pages:   pages,
		HasNext: page < pages,
		HasPrev: page > 1 && total > 0,
	}

	start := (page - 1) * size
	if start >= total {
		return []ComparisonRow{}, meta, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return rows[start:end], meta, nil
}
