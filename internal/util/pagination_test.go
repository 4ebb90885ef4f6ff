package util

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paramsFor(t *testing.T, query string) (int, int) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/"+query, nil)
	return PageParams(c)
}

func TestPageParams(t *testing.T) {
	cases := []struct {
		query        string
		wantPage     int
		wantPageSize int
	}{
		{"", 1, DefaultPageSize},
		{"?page=3&page_size=25", 3, 25},
		{"?page=0", 1, DefaultPageSize},
		{"?page=-2&page_size=-5", 1, DefaultPageSize},
		{"?page_size=500", 1, MaxPageSize},
		{"?page=abc&page_size=xyz", 1, DefaultPageSize},
	}

	for _, tc := range cases {
		page, pageSize := paramsFor(t, tc.query)
		if page != tc.wantPage || pageSize != tc.wantPageSize {
			t.Errorf("%q: got (%d,%d), want (%d,%d)", tc.query, page, pageSize, tc.wantPage, tc.wantPageSize)
		}
	}
}

func TestPageSlice(t *testing.T) {
	cases := []struct {
		n, page, pageSize  int
		wantStart, wantEnd int
	}{
		{10, 1, 3, 0, 3},
		{10, 4, 3, 9, 10},
		{10, 5, 3, 10, 10}, // 越界页返回空段
		{0, 1, 10, 0, 0},
		{3, 1, 10, 0, 3},
	}

	for _, tc := range cases {
		start, end := PageSlice(tc.n, tc.page, tc.pageSize)
		if start != tc.wantStart || end != tc.wantEnd {
			t.Errorf("PageSlice(%d,%d,%d) = (%d,%d), want (%d,%d)",
				tc.n, tc.page, tc.pageSize, start, end, tc.wantStart, tc.wantEnd)
		}
	}
}
