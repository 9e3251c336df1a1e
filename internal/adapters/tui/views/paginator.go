package views

// Paginator tracks a cursor over a list shown one page at a time. The page
// shown is always the one holding the cursor.
type Paginator struct {
	size   int
	cursor int
	total  int
}

// NewPaginator creates a paginator showing size rows per page
func NewPaginator(size int) *Paginator {
	if size <= 0 {
		size = 10
	}
	return &Paginator{size: size}
}

// SetTotal sets the number of rows, clamping the cursor
func (p *Paginator) SetTotal(total int) {
	p.total = max(total, 0)
	p.SetCursor(p.cursor)
}

// SetPageSize changes the number of rows per page
func (p *Paginator) SetPageSize(size int) {
	if size > 0 {
		p.size = size
	}
}

// Cursor returns the absolute cursor row
func (p *Paginator) Cursor() int { return p.cursor }

// SetCursor moves the cursor to row, clamped to the list
func (p *Paginator) SetCursor(row int) {
	p.cursor = max(0, min(row, p.total-1))
}

// CursorUp moves the cursor one row up
func (p *Paginator) CursorUp() bool {
	return p.move(p.cursor - 1)
}

// CursorDown moves the cursor one row down
func (p *Paginator) CursorDown() bool {
	return p.move(p.cursor + 1)
}

// NextPage moves the cursor to the first row of the next page
func (p *Paginator) NextPage() bool {
	return p.move(p.pageStart() + p.size)
}

// PrevPage moves the cursor to the first row of the previous page
func (p *Paginator) PrevPage() bool {
	if p.pageStart() == 0 {
		return false
	}
	return p.move(p.pageStart() - p.size)
}

func (p *Paginator) move(row int) bool {
	if row < 0 || row >= p.total {
		return false
	}
	p.cursor = row
	return true
}

func (p *Paginator) pageStart() int {
	return p.cursor / p.size * p.size
}

// VisibleRange returns the [start, end) rows of the cursor's page
func (p *Paginator) VisibleRange() (start, end int) {
	start = p.pageStart()
	return start, min(start+p.size, p.total)
}

// CursorInPage returns the cursor row relative to its page
func (p *Paginator) CursorInPage() int {
	return p.cursor - p.pageStart()
}

// CurrentPage returns the 1-based page holding the cursor
func (p *Paginator) CurrentPage() int {
	return p.pageStart()/p.size + 1
}

// TotalPages returns the number of pages, at least one
func (p *Paginator) TotalPages() int {
	return max(1, (p.total+p.size-1)/p.size)
}
