package api

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
		wantErr    bool
	}{
		{"", defaultPageLimit, 0, false},
		{"limit=20&offset=40", 20, 40, false},
		{"limit=5000", maxPageLimit, 0, false},
		{"offset=0", defaultPageLimit, 0, false},
		{"limit=0", 0, 0, true},
		{"limit=abc", 0, 0, true},
		{"offset=-1", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/audit?"+tt.query, nil)
			limit, offset, err := parsePage(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		name                 string
		total, limit, offset int
		wantStart, wantEnd   int
		wantMore             bool
	}{
		{"first page", 25, 10, 0, 0, 10, true},
		{"last partial page", 25, 10, 20, 20, 25, false},
		{"exact fit", 10, 10, 0, 0, 10, false},
		{"offset past end", 5, 10, 100, 5, 5, false},
		{"empty", 0, 10, 0, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, page := pageBounds(tt.total, tt.limit, tt.offset)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, tt.wantMore, page.HasMore)
			assert.Equal(t, tt.total, page.Total)
			assert.LessOrEqual(t, start, end)
		})
	}
}
