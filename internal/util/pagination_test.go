package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		page, size, from, limit int
	}{
		{1, 10, 0, 10},
		{3, 5, 10, 5},
		{0, 0, 0, DefaultPageSize},
		{-2, 500, 0, DefaultPageSize},
	}
	for _, c := range cases {
		from, limit := Calculate(c.page, c.size)
		assert.Equal(t, c.from, from, "page=%d size=%d", c.page, c.size)
		assert.Equal(t, c.limit, limit, "page=%d size=%d", c.page, c.size)
	}
}

func TestPage(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Page(items, 0, 2))
	assert.Equal(t, []int{5}, Page(items, 4, 2))
	assert.Empty(t, Page(items, 5, 2))
}
