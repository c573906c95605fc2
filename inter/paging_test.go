package inter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequest(t *testing.T) {
	tests := []struct {
		name       string
		req        PageRequest
		total      int
		start, end int
		pages      int
	}{
		{"defaults", PageRequest{}, 25, 0, 10, 3},
		{"second page", PageRequest{Page: 2, Limit: 10}, 25, 10, 20, 3},
		{"last partial page", PageRequest{Page: 3, Limit: 10}, 25, 20, 25, 3},
		{"past the end", PageRequest{Page: 9, Limit: 10}, 25, 25, 25, 3},
		{"limit capped", PageRequest{Page: 1, Limit: 1000}, 250, 0, 100, 3},
		{"empty", PageRequest{Page: 1, Limit: 5}, 0, 0, 0, 0},
		{"huge page", PageRequest{Page: 1 << 62, Limit: 20}, 25, 25, 25, 2},
		{"max page", PageRequest{Page: int(^uint(0) >> 1), Limit: 100}, 7, 7, 7, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req.Normalize(10, 100)
			start, end, page := req.Bounds(tt.total)
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.pages, page.Pages)
			assert.Equal(t, tt.total, page.Total)
		})
	}
}
