package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromRequest(t *testing.T) {
	tests := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, PerPage: 20}},
		{"?page=3&per_page=5", Params{Page: 3, PerPage: 5}},
		{"?page=-1&per_page=abc", Params{Page: 1, PerPage: 20}},
		{"?per_page=500", Params{Page: 1, PerPage: 100}},
		{"?page=922337203685477580&per_page=20", Params{Page: MaxPage, PerPage: 20}},
		{"?page=99999999999999999999", Params{Page: 1, PerPage: 20}},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/api/v1/orders"+tt.query, nil)
		assert.Equal(t, tt.want, FromRequest(r), tt.query)
	}
}

func TestFromRequest_HugePageKeepsOffsetPositive(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/v1/orders?page=922337203685477580&per_page=100", nil)

	p := FromRequest(r)

	assert.Equal(t, (MaxPage-1)*MaxPerPage, p.Offset())
	assert.Positive(t, p.Offset())
}

func TestNewResult(t *testing.T) {
	res := NewResult([]string{"a", "b"}, 5, Params{Page: 2, PerPage: 2})
	assert.Equal(t, 3, res.TotalPages)
	assert.True(t, res.HasNext)
	assert.Equal(t, 2, Params{Page: 2, PerPage: 2}.Offset())

	empty := NewResult[string](nil, 0, Params{Page: 1, PerPage: 20})
	assert.NotNil(t, empty.Items)
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNext)
}
