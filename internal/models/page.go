package models

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Data        []T   `json:"data"`
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	PageSize    int   `json:"pageSize"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

// NewPage builds a Page from a zero-based page index, its size and the total item count.
func NewPage[T any](data []T, page, size int, total int64) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{
		Data:        data,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		PageSize:    size,
		HasNext:     page+1 < totalPages,
		HasPrevious: page > 0,
	}
}

// MaxPage is the highest zero-based page index a listing accepts.
const MaxPage = 1_000_000

// PageRequest is a normalized page/size pair.
type PageRequest struct {
	Page int
	Size int
}

// Offset is the row offset for SQL.
func (p PageRequest) Offset() int { return p.Page * p.Size }

// NormalizePage clamps page to [0, MaxPage] and size to [1, maxSize], using def for non-positive sizes.
func NormalizePage(page, size, def, maxSize int) PageRequest {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if size <= 0 {
		size = def
	}
	if size > maxSize {
		size = maxSize
	}
	return PageRequest{Page: page, Size: size}
}
