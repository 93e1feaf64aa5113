package shared

// Filter represents query filter options
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]any
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     1,
		PageSize: 20,
		OrderBy:  "created_at",
		OrderDir: "desc",
		Filters:  make(map[string]any),
	}
}

// Offset returns the row offset for the filter's page.
func (f Filter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}

// TotalPages computes the page count for total rows at the filter's page size.
func (f Filter) TotalPages(total int64) int {
	if f.PageSize <= 0 {
		return 1
	}
	pages := int(total) / f.PageSize
	if int(total)%f.PageSize > 0 {
		pages++
	}
	return pages
}
