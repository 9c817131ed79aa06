package catalog

import (
	"github.com/angelmondragon/freightquote-backend/internal/offers"
	"github.com/angelmondragon/freightquote-backend/pkg/pagination"
)

// View is the criteria and current page a user holds over one catalog.
type View struct {
	Criteria Criteria `json:"criteria"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// NewView returns an unfiltered view on the first page.
func NewView() View {
	return View{Page: 1, PageSize: pagination.DefaultPageSize}
}

// WithCriteria replaces the criteria. Any change returns to the first page.
func (v View) WithCriteria(criteria Criteria) View {
	if !v.Criteria.Equal(criteria) {
		v.Page = 1
	}
	v.Criteria = criteria
	return v
}

// WithPage moves to page, clamped to 1.
func (v View) WithPage(page int) View {
	v.Page = pagination.NormalizePage(page)
	return v
}

// Apply filters list with the view criteria and returns the current page.
func (v View) Apply(list []offers.Offer) Page {
	return Paginate(Filter(list, v.Criteria), v.Page, v.PageSize)
}
