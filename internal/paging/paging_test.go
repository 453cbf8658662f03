package paging

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	p := Params{Page: 0, PerPage: 0}.Normalize(15)
	assert.Equal(t, Params{Page: 1, PerPage: 15}, p)

	p = Params{Page: 3, PerPage: 500}.Normalize(15)
	assert.Equal(t, 100, p.PerPage)
	assert.Equal(t, 200, p.Offset())
}

func TestNormalizeCapsPage(t *testing.T) {
	p := Params{Page: math.MaxInt, PerPage: 100}.Normalize(15)
	assert.Equal(t, maxPage, p.Page)
	assert.Positive(t, p.Offset())
	assert.LessOrEqual(t, p.Offset(), math.MaxInt32)

	p = Params{Page: maxPage, PerPage: 100}.Normalize(15)
	assert.Equal(t, maxPage, p.Page)
}

func TestNewResultLastPage(t *testing.T) {
	r := NewResult([]int{1, 2}, 31, Params{Page: 1, PerPage: 15})
	assert.Equal(t, 3, r.LastPage)

	empty := NewResult[int](nil, 0, Params{Page: 1, PerPage: 15})
	assert.NotNil(t, empty.Data)
	assert.Equal(t, 1, empty.LastPage)
}
