package shared

import (
	"math"
	"net/url"
	"strconv"
)

const (
	// DefaultPerPage is the listing page size when none is requested.
	DefaultPerPage = 20
	// MaxPerPage caps requested page sizes.
	MaxPerPage = 100
)

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, perPage, total int) Pagination {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if page <= 0 {
		page = 1
	}
	totalPages := int(math.Ceil(float64(total) / float64(perPage)))
	return Pagination{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// PageRequest is a parsed page/per_page query pair.
type PageRequest struct {
	Page    int
	PerPage int
}

// Offset returns the row offset for the request.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// ParsePageRequest reads page/per_page from query values, clamping the
// page size to MaxPerPage.
func ParsePageRequest(values url.Values) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	if page <= 0 {
		page = 1
	}
	perPage, _ := strconv.Atoi(values.Get("per_page"))
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageRequest{Page: page, PerPage: perPage}
}
