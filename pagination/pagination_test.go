package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := FromRequest(httptest.NewRequest("GET", "/x", nil))
		require.NoError(t, err)
		assert.Equal(t, Params{Page: 1, PerPage: DefaultPerPage}, p)
		assert.Equal(t, 0, p.Offset())
	})

	t.Run("explicit", func(t *testing.T) {
		p, err := FromRequest(httptest.NewRequest("GET", "/x?page=3&per_page=10", nil))
		require.NoError(t, err)
		assert.Equal(t, 20, p.Offset())
	})

	for _, bad := range []string{"page=0", "page=-1", "page=x", "per_page=0", "per_page=101", "per_page=abc"} {
		t.Run(bad, func(t *testing.T) {
			_, err := FromRequest(httptest.NewRequest("GET", "/x?"+bad, nil))
			assert.Error(t, err)
		})
	}
}

func TestTotalPages(t *testing.T) {
	p := Params{Page: 1, PerPage: 20}
	assert.Equal(t, 0, p.TotalPages(0))
	assert.Equal(t, 1, p.TotalPages(1))
	assert.Equal(t, 1, p.TotalPages(20))
	assert.Equal(t, 2, p.TotalPages(21))
}
