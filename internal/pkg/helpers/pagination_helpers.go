package helpers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samenactief/backend/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // pages are 1-based
)

func normalizePage(page int) int {
	if page < 1 {
		return DefaultPage
	}
	return page
}

// normalizeSize falls back to DefaultPageSize for sizes outside 1..MaxPageSize
func normalizeSize(size int) int {
	if size < 1 || size > MaxPageSize {
		return DefaultPageSize
	}
	return size
}

// CalculateOffsetLimit turns a 1-based page and a page size into SQL OFFSET/LIMIT values.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	limit = normalizeSize(size)
	offset = uint64(normalizePage(page)-1) * uint64(limit)
	return offset, limit
}

// NewPaginationInfo describes page of a listing with totalItems rows.
// An empty listing still has one (empty) page.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size < 1 {
		size = DefaultPageSize
	}
	page = normalizePage(page)

	totalPages := int((totalItems + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return dto.PaginationInfo{
		CurrentPage: page,
		TotalPages:  totalPages,
		PageSize:    size,
		TotalItems:  totalItems,
	}
}

// ParsePaginationParams reads ?page= and ?pageSize= (or the older ?size=).
// Invalid values fall back to the defaults rather than failing the request.
func ParsePaginationParams(c *gin.Context) (page, size int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		page = DefaultPage
	}

	raw := c.Query("pageSize")
	if raw == "" {
		raw = c.Query("size")
	}
	size, err = strconv.Atoi(raw)
	if err != nil {
		size = DefaultPageSize
	}

	return normalizePage(page), normalizeSize(size)
}
