package activity

import "github.com/celerix-dev/celerix-cms/pkg/schema"

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 20

// ApplyFilters returns the records matching both filters, in input order.
func ApplyFilters(records []schema.ActivityRecord, action schema.ActionFilter, collection schema.CollectionFilter) []schema.ActivityRecord {
	out := make([]schema.ActivityRecord, 0, len(records))
	for _, r := range records {
		if action.Matches(r.Action) && collection.Matches(r.Collection) {
			out = append(out, r)
		}
	}
	return out
}

// Page is one slice of a paginated result.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalPages int `json:"totalPages"`
	Total      int `json:"total"`
}

// TotalPages returns ceil(total / pageSize).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage bounds page to [1, totalPages]; it is 1 when there are no pages.
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// Paginate returns items[(page-1)*pageSize : page*pageSize] with the page
// clamped into range.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	totalPages := TotalPages(len(items), pageSize)
	page = ClampPage(page, totalPages)

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))
	if start > end {
		start = end
	}
	pageItems := make([]T, end-start)
	copy(pageItems, items[start:end])
	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
		Total:      len(items),
	}
}
