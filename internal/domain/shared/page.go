package shared

// Page is a 1-based page request
type Page struct {
	Number  int
	PerPage int
}

// NewPage normalises raw page parameters: numbers below 1 become 1,
// per-page values below 1 fall back to def and values above max are capped.
func NewPage(number, perPage, def, max int) Page {
	if number < 1 {
		number = 1
	}
	if perPage < 1 {
		perPage = def
	}
	if perPage > max {
		perPage = max
	}
	return Page{Number: number, PerPage: perPage}
}

// Offset returns the number of rows to skip
func (p Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

// Pages returns the page count for total rows
func (p Page) Pages(total int64) int {
	if total <= 0 || p.PerPage <= 0 {
		return 0
	}
	return int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
}
