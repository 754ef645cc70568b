// Package assembler converts domain objects into the DTOs returned by the
// application services, batching the lookups a list needs.
package assembler

import (
	"github.com/recipeatlas/server/internal/domain/shared"
	"github.com/recipeatlas/server/internal/ports/inbound"
)

// Paging holds the per-page bounds of list endpoints
type Paging struct {
	DefaultPerPage int
	MaxPerPage     int
}

// DefaultPaging matches the configuration defaults
var DefaultPaging = Paging{DefaultPerPage: 20, MaxPerPage: 100}

// Page normalises raw pagination input
func (p Paging) Page(q inbound.PageQuery) shared.Page {
	return shared.NewPage(q.Page, q.PerPage, p.DefaultPerPage, p.MaxPerPage)
}

// Limit clamps a top-N limit to 1..MaxPerPage, defaulting to def
func (p Paging) Limit(limit, def int) int {
	if limit < 1 {
		limit = def
	}
	if limit > p.MaxPerPage {
		limit = p.MaxPerPage
	}
	return limit
}

// NewList wraps one page of items in the list envelope
func NewList[T any](items []T, total int64, page shared.Page) *inbound.List[T] {
	if items == nil {
		items = []T{}
	}
	return &inbound.List[T]{
		Items:   items,
		Total:   total,
		Page:    page.Number,
		PerPage: page.PerPage,
		Pages:   page.Pages(total),
	}
}
