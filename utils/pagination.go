package utils

import "math"

// PaginationMeta is embedded in every paginated response.
type PaginationMeta struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int64 `json:"totalPages"`
}

// BuildPaginationMeta computes totalPages as ceil(totalItems/pageSize); a non-positive pageSize yields 0 pages.
func BuildPaginationMeta(page, pageSize int, totalItems int64) PaginationMeta {
	var totalPages int64
	if pageSize > 0 {
		totalPages = int64(math.Ceil(float64(totalItems) / float64(pageSize)))
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}
}
