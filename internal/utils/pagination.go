package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const maxPageSize = 1000

// Pagination holds page-number pagination parameters.
type Pagination struct {
	Page   int
	Size   int
	Offset int
}

// ParsePagination reads page and page_size query params with the given
// default size, capped at 1000.
func ParsePagination(c *fiber.Ctx, defaultSize int) Pagination {
	page := parseInt(c.Query("page", "1"), 1)
	size := parseInt(c.Query("page_size", ""), defaultSize)
	if size <= 0 {
		size = defaultSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Size:   size,
		Offset: (page - 1) * size,
	}
}

// NextPage returns the following page number, or nil when the current
// page is the last one.
func (p Pagination) NextPage(total int64) *int {
	if int64(p.Offset+p.Size) >= total {
		return nil
	}
	next := p.Page + 1
	return &next
}

// PreviousPage returns the preceding page number, or nil on the first page.
func (p Pagination) PreviousPage() *int {
	if p.Page <= 1 {
		return nil
	}
	prev := p.Page - 1
	return &prev
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
