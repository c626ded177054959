package repository

// Pagination is fixed at ten rows per page across every listing endpoint.
const PageSize = 10

// PageMeta describes one page of a listing response.
type PageMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	LastPage int   `json:"last_page"`
}

// NewPageMeta computes listing metadata for a page. Page numbers are
// 1-based; callers validate page >= 1 before querying.
func NewPageMeta(total int64, page int) PageMeta {
	last := int((total + PageSize - 1) / PageSize)
	return PageMeta{Total: total, Page: page, LastPage: last}
}

// Offset converts a 1-based page number into a row offset.
func Offset(page int) int {
	return (page - 1) * PageSize
}
