package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRows(n int) []ComparisonRow {
	rows := make([]ComparisonRow, n)
	for i := range rows {
		rows[i] = ComparisonRow{Material: fmt.Sprintf("PSV%03d", i+1)}
	}
	return rows
}

func TestPaginate(t *testing.T) {
	rows := makeRows(105)

	page1, meta, err := Paginate(rows, 1, 50, 1000)
	require.NoError(t, err)
	assert.Len(t, page1, 50)
	assert.Equal(t, PageMeta{Total: 105, Page: 1, Size: 50, Pages: 3, HasNext: true, HasPrev: false}, meta)

	page3, meta, err := Paginate(rows, 3, 50, 1000)
	require.NoError(t, err)
	assert.Len(t, page3, 5)
	assert.True(t, meta.HasPrev)
	assert.False(t, meta.HasNext)
	assert.Equal(t, "PSV101", page3[0].Material)

	// Total reflects the filtered set regardless of the page size chosen.
	_, metaSmall, err := Paginate(rows, 1, 10, 1000)
	require.NoError(t, err)
	assert.Equal(t, meta.Total, metaSmall.Total)
}

func TestPaginatePastEnd(t *testing.T) {
	page, meta, err := Paginate(makeRows(10), 5, 50, 1000)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 10, meta.Total)
	assert.False(t, meta.HasNext)
}

func TestPaginateEmptySet(t *testing.T) {
	page, meta, err := Paginate(nil, 1, 50, 1000)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.Equal(t, 0, meta.Total)
	assert.Equal(t, 0, meta.Pages)
	assert.False(t, meta.HasPrev)
}

func TestPaginateValidation(t *testing.T) {
	var verr *ValidationError

	_, _, err := Paginate(makeRows(1), 0, 50, 1000)
	require.ErrorAs(t, err, &verr)

	_, _, err = Paginate(makeRows(1), 1, 0, 1000)
	require.ErrorAs(t, err, &verr)

	_, _, err = Paginate(makeRows(1), 1, 2000, 1000)
	require.ErrorAs(t, err, &verr)
}
