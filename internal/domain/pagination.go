package domain

import (
	"slices"

	"github.com/go-faster/errors"
)

var (
	ErrInvalidPage     = errors.New("page index must not be negative")
	ErrInvalidPageSize = errors.New("page size is not allowed")
)

// Page returns the window [pageIndex*pageSize, pageIndex*pageSize+pageSize)
// of items, clipped to the slice bounds. Out of range windows are empty.
func Page[T any](items []T, pageIndex, pageSize int) []T {
	if pageIndex < 0 || pageSize <= 0 {
		return nil
	}
	start := pageIndex * pageSize
	if start >= len(items) {
		return nil
	}
	end := min(start+pageSize, len(items))
	return items[start:end:end]
}

// PageCount returns how many pages of pageSize are needed for total items.
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Pager holds the list window selection. It never touches the list itself.
type Pager struct {
	index   int
	size    int
	options []int
}

// NewPager creates a pager on the first page. When options is not empty,
// only those page sizes are accepted.
func NewPager(size int, options []int) (*Pager, error) {
	p := &Pager{options: slices.Clone(options)}
	if err := p.SetPageSize(size); err != nil {
		return nil, err
	}
	return p, nil
}

// Index returns the current zero-based page index.
func (p *Pager) Index() int { return p.index }

// Size returns the current page size.
func (p *Pager) Size() int { return p.size }

// Options returns the accepted page sizes.
func (p *Pager) Options() []int { return slices.Clone(p.options) }

// SetPage moves to page index i.
func (p *Pager) SetPage(i int) error {
	if i < 0 {
		return ErrInvalidPage
	}
	p.index = i
	return nil
}

// SetPageSize changes the page size and returns to the first page.
func (p *Pager) SetPageSize(n int) error {
	if n <= 0 {
		return errors.Wrapf(ErrInvalidPageSize, "size %d", n)
	}
	if len(p.options) > 0 && !slices.Contains(p.options, n) {
		return errors.Wrapf(ErrInvalidPageSize, "size %d not in %v", n, p.options)
	}
	p.size = n
	p.index = 0
	return nil
}
