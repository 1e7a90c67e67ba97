package insights

// PageSize is the fixed number of activity rows per page.
const PageSize = 5

// Pagination tracks the activity table window. CurrentPage is 1-based and kept
// within [1, TotalPages()] by every mutator.
type Pagination struct {
	CurrentPage int `json:"current_page" yaml:"current_page"`
	PageSize    int `json:"page_size" yaml:"page_size"`
	TotalItems  int `json:"total_items" yaml:"total_items"`
}

// NewPagination starts on page 1.
func NewPagination(totalItems int) Pagination {
	p := Pagination{CurrentPage: 1, PageSize: PageSize}
	p.SetTotalItems(totalItems)
	return p
}

// TotalPages is ceil(TotalItems/PageSize) with a floor of 1.
func (p Pagination) TotalPages() int {
	size := p.size()
	if p.TotalItems <= 0 {
		return 1
	}
	return (p.TotalItems + size - 1) / size
}

// Next advances one page; no-op on the last page.
func (p *Pagination) Next() {
	if p.CurrentPage < p.TotalPages() {
		p.CurrentPage++
	}
}

// Prev goes back one page; no-op on page 1.
func (p *Pagination) Prev() {
	if p.CurrentPage > 1 {
		p.CurrentPage--
	}
}

// SetTotalItems updates the item count and clamps the current page into range.
func (p *Pagination) SetTotalItems(n int) {
	if n < 0 {
		n = 0
	}
	p.TotalItems = n
	p.clamp()
}

// Reset returns to page 1.
func (p *Pagination) Reset() {
	p.CurrentPage = 1
}

// CanPrev reports whether the previous button is enabled.
func (p Pagination) CanPrev() bool { return p.CurrentPage > 1 }

// CanNext reports whether the next button is enabled.
func (p Pagination) CanNext() bool { return p.CurrentPage < p.TotalPages() }

// Window returns the [start, end) slice bounds of the current page for a list of
// length n.
func (p Pagination) Window(n int) (int, int) {
	size := p.size()
	start := (p.CurrentPage - 1) * size
	if start > n {
		start = n
	}
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > n {
		end = n
	}
	return start, end
}

func (p *Pagination) clamp() {
	if p.PageSize <= 0 {
		p.PageSize = PageSize
	}
	if p.CurrentPage < 1 {
		p.CurrentPage = 1
	}
	if last := p.TotalPages(); p.CurrentPage > last {
		p.CurrentPage = last
	}
}

func (p Pagination) size() int {
	if p.PageSize <= 0 {
		return PageSize
	}
	return p.PageSize
}

// PageSlice returns the records visible on the current page.
func PageSlice[T any](p Pagination, items []T) []T {
	start, end := p.Window(len(items))
	return items[start:end]
}
