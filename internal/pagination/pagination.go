// Package pagination slices lists into fixed-size pages for the dashboard tables.
package pagination

import (
	"errors"
	"fmt"
)

// DefaultPageSize is the page size a new Pager starts with.
const DefaultPageSize = 10

// PageSizes are the sizes offered by the page-size selector.
var PageSizes = []int{10, 20, 30}

// ErrInvalidPageSize is returned for page sizes below one.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Page is one window over a list.
type Page[T any] struct {
	Items      []T
	Index      int
	Size       int
	Total      int
	TotalPages int
}

// Paginate returns the items of page pageIndex (1-based) for the given page size.
// Indexes outside [1, TotalPages] yield an empty page.
func Paginate[T any](items []T, pageSize, pageIndex int) Page[T] {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	page := Page[T]{
		Index:      pageIndex,
		Size:       pageSize,
		Total:      len(items),
		TotalPages: (len(items) + pageSize - 1) / pageSize,
	}
	if pageIndex < 1 || pageIndex > page.TotalPages {
		return page
	}

	start := (pageIndex - 1) * pageSize
	end := min(start+pageSize, len(items))
	page.Items = items[start:end]
	return page
}

// Empty reports whether the page has nothing to show.
func (p Page[T]) Empty() bool {
	return len(p.Items) == 0
}

// From is the 1-based position of the first visible item, or 0 when empty.
func (p Page[T]) From() int {
	if p.Empty() {
		return 0
	}
	return (p.Index-1)*p.Size + 1
}

// To is the 1-based position of the last visible item.
func (p Page[T]) To() int {
	if p.Empty() {
		return 0
	}
	return p.From() + len(p.Items) - 1
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.Index > 1
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.Index < p.TotalPages
}

// Caption renders the "Mostrando X-Y de N" line under the table.
func (p Page[T]) Caption() string {
	return fmt.Sprintf("Mostrando %d-%d de %d", p.From(), p.To(), p.Total)
}

// Numbers lists the page numbers 1..TotalPages for the page buttons.
func (p Page[T]) Numbers() []int {
	numbers := make([]int, p.TotalPages)
	for i := range numbers {
		numbers[i] = i + 1
	}
	return numbers
}

// Pager holds the page size and the current page of one table.
// It is not safe for concurrent use.
type Pager struct {
	size  int
	index int
}

// NewPager returns a pager on page 1 with the default size.
func NewPager() *Pager {
	return &Pager{size: DefaultPageSize, index: 1}
}

// Size returns the current page size.
func (p *Pager) Size() int {
	return p.size
}

// Index returns the current 1-based page.
func (p *Pager) Index() int {
	return p.index
}

// TotalPages returns the number of pages needed for total items.
func (p *Pager) TotalPages(total int) int {
	return (total + p.size - 1) / p.size
}

// GoTo moves to page when it lies in [1, TotalPages(total)]; otherwise the
// pager is unchanged and GoTo returns false.
func (p *Pager) GoTo(page, total int) bool {
	if page < 1 || page > p.TotalPages(total) {
		return false
	}
	p.index = page
	return true
}

// Next moves forward one page if possible.
func (p *Pager) Next(total int) bool {
	return p.GoTo(p.index+1, total)
}

// Prev moves back one page if possible.
func (p *Pager) Prev(total int) bool {
	return p.GoTo(p.index-1, total)
}

// SetPageSize changes the page size and returns to page 1.
func (p *Pager) SetPageSize(size int) error {
	if size < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	p.size = size
	p.index = 1
	return nil
}

// Reset returns to page 1 with the default size.
func (p *Pager) Reset() {
	p.size = DefaultPageSize
	p.index = 1
}

// Apply paginates items at the pager's position, clamping the index when the
// list shrank below it.
func Apply[T any](p *Pager, items []T) Page[T] {
	if pages := p.TotalPages(len(items)); p.index > pages {
		p.index = max(pages, 1)
	}
	return Paginate(items, p.size, p.index)
}
