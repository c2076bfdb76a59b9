// Copyright 2026 The h3xrecon Authors
// SPDX-License-Identifier: Apache-2.0

package display

// chromeLines is the number of terminal lines reserved for the pager's
// header, footer and prompt.
const chromeLines = 6

// PageSizeFor returns the number of rows that fit on a terminal of the
// given height.
func PageSizeFor(height int) int {
	return max(1, height-chromeLines)
}

// Paginator is the page arithmetic over a fixed number of items. The
// zero value is not useful; use NewPaginator.
type Paginator struct {
	total int
	size  int
	page  int
}

// NewPaginator returns a Paginator on the first page. A size below one
// is treated as one.
func NewPaginator(total, size int) Paginator {
	return Paginator{total: max(0, total), size: max(1, size)}
}

// Pages returns ceil(total/size). An empty sequence still has one
// (empty) page.
func (p Paginator) Pages() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + p.size - 1) / p.size
}

// Page returns the zero-based current page.
func (p Paginator) Page() int { return p.page }

// Size returns the page size.
func (p Paginator) Size() int { return p.size }

// Next moves to the following page. On the last page it does nothing
// and returns false.
func (p *Paginator) Next() bool {
	if p.page >= p.Pages()-1 {
		return false
	}
	p.page++
	return true
}

// Prev moves to the preceding page. On the first page it does nothing
// and returns false.
func (p *Paginator) Prev() bool {
	if p.page == 0 {
		return false
	}
	p.page--
	return true
}

// Bounds returns the half-open item range of the current page.
func (p Paginator) Bounds() (start, end int) {
	start = p.page * p.size
	end = min(start+p.size, p.total)
	return start, end
}

// Resize changes the page size and moves to the page containing the
// item that was first on screen.
func (p *Paginator) Resize(size int) {
	first, _ := p.Bounds()
	p.size = max(1, size)
	p.page = first / p.size
	if last := p.Pages() - 1; p.page > last {
		p.page = last
	}
}
