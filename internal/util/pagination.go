package util

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// PageParams reads page-number style pagination from the query string.
// page is 1-based; page_size is clamped to MaxPageSize.
func PageParams(c *gin.Context) (page, pageSize int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}

	pageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(DefaultPageSize)))
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

// PageSlice returns the [start, end) bounds of a page over a sequence of n items.
func PageSlice(n, page, pageSize int) (start, end int) {
	start = (page - 1) * pageSize
	if start > n {
		start = n
	}
	end = start + pageSize
	if end > n {
		end = n
	}
	return start, end
}

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}
