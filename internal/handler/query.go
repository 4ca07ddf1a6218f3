package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"todo/internal/repository"
)

// pageRequest reads page and per_page. Values that are not positive
// integers fall back to the defaults.
func pageRequest(c *gin.Context) repository.PageRequest {
	return repository.PageRequest{
		Page:    positiveInt(c.Query("page")),
		PerPage: positiveInt(c.Query("per_page")),
	}
}

func positiveInt(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0
	}
	return n
}

// truthy follows the usual form conventions: 1, true, yes and on.
func truthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
