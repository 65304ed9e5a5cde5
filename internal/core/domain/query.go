package domain

const (
	DefaultItemsPerPage = 10
	MaxItemsPerPage     = 100
)

// SortDirection orders list results.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ListQuery carries the public listing parameters. Search is free text over
// the resource's searchable attributes; SearchFields/SearchValues is the
// structured alternative and must be of equal length.
type ListQuery struct {
	Page          int
	ItemsPerPage  int
	SortBy        string
	SortDirection SortDirection
	Search        string
	SearchFields  []string
	SearchValues  []string
	FieldID       string // optional tenant narrowing
}

// Normalize applies defaults and caps to paging parameters.
func (q ListQuery) Normalize() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.ItemsPerPage < 1 {
		q.ItemsPerPage = DefaultItemsPerPage
	}
	if q.ItemsPerPage > MaxItemsPerPage {
		q.ItemsPerPage = MaxItemsPerPage
	}
	if q.SortDirection != SortDesc {
		q.SortDirection = SortAsc
	}
	return q
}

// Page is one window of a listing.
type Page struct {
	Data       []*Record
	TotalCount int64
	TotalPages int
}

// TotalPages returns ceil(total/perPage), 0 when total is 0.
func TotalPages(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
