package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestPage(t *testing.T) {
	items := seq(12)

	assert.Equal(t, []int{5, 6, 7, 8, 9}, Page(items, 1, 5))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, Page(items, 0, 5))
	assert.Equal(t, []int{10, 11}, Page(items, 2, 5))
	assert.Empty(t, Page(items, 3, 5))
	assert.Empty(t, Page(items, -1, 5))
	assert.Empty(t, Page(items, 0, 0))
	assert.Empty(t, Page([]int{}, 0, 5))
}

func TestPageDoesNotAliasBeyondWindow(t *testing.T) {
	items := seq(12)
	window := Page(items, 0, 5)
	window = append(window, 99)

	assert.Equal(t, 5, items[5])
	assert.Len(t, window, 6)
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(12, 5))
	assert.Equal(t, 2, PageCount(10, 5))
	assert.Equal(t, 0, PageCount(0, 5))
	assert.Equal(t, 0, PageCount(4, 0))
}

func TestPager(t *testing.T) {
	p, err := NewPager(5, []int{5, 10, 20})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Index())
	assert.Equal(t, 5, p.Size())
	assert.Equal(t, []int{5, 10, 20}, p.Options())

	require.NoError(t, p.SetPage(2))
	assert.Equal(t, 2, p.Index())

	require.NoError(t, p.SetPageSize(10))
	assert.Equal(t, 0, p.Index(), "page size change returns to the first page")
	assert.Equal(t, 10, p.Size())

	assert.ErrorIs(t, p.SetPage(-1), ErrInvalidPage)
	assert.ErrorIs(t, p.SetPageSize(7), ErrInvalidPageSize)
	assert.ErrorIs(t, p.SetPageSize(0), ErrInvalidPageSize)
	assert.Equal(t, 10, p.Size())

	_, err = NewPager(3, []int{5, 10})
	assert.ErrorIs(t, err, ErrInvalidPageSize)

	free, err := NewPager(3, nil)
	require.NoError(t, err)
	assert.NoError(t, free.SetPageSize(42))
}

func TestGatewayErrorMatchesNotFound(t *testing.T) {
	err := error(&GatewayError{Op: OpDelete, ID: "1", Status: 404})
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Equal(t, "gateway delete 1: status 404", err.Error())

	assert.NotErrorIs(t, &GatewayError{Op: OpDelete, Status: 500}, ErrProductNotFound)
}
