package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestPaginationMeta(t *testing.T) {
	meta := paginationMeta(1, 10, 25)
	assert.Equal(t, 1, meta.Current)
	assert.Equal(t, 3, meta.Pages)
	assert.Equal(t, int64(25), meta.Total)
	assert.True(t, meta.HasNext)
	assert.False(t, meta.HasPrev)

	meta = paginationMeta(3, 10, 25)
	assert.False(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	meta = paginationMeta(2, 10, 25)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)

	// Empty result set
	meta = paginationMeta(1, 10, 0)
	assert.Equal(t, 0, meta.Pages)
	assert.False(t, meta.HasNext)
	assert.False(t, meta.HasPrev)

	// Exact page boundary
	meta = paginationMeta(2, 10, 20)
	assert.Equal(t, 2, meta.Pages)
	assert.False(t, meta.HasNext)
}

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	ctxFor := func(query string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/?"+query, nil)
		return c
	}

	page, limit := parsePagination(ctxFor("page=2&limit=20"), 50)
	assert.Equal(t, 2, page)
	assert.Equal(t, 20, limit)

	// Defaults
	page, limit = parsePagination(ctxFor(""), 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	// Garbage and out-of-range values fall back
	page, limit = parsePagination(ctxFor("page=-1&limit=abc"), 50)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	// Limit is clamped
	_, limit = parsePagination(ctxFor("limit=500"), 50)
	assert.Equal(t, 50, limit)
}
