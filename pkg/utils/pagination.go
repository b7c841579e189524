package utils

import (
	"math"
	"net/http"
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100

	// MaxPage keeps (page-1)*MaxLimit inside int.
	MaxPage = math.MaxInt / MaxLimit
)

func CalculateTotalPages(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

// CalculateOffset clamps page to MaxPage and perPage to MaxLimit so the
// result never overflows.
func CalculateOffset(page, perPage int) int {
	if page < 1 || perPage < 1 {
		return 0
	}
	page = min(page, MaxPage)
	perPage = min(perPage, MaxLimit)
	return (page - 1) * perPage
}

// ParsePagination reads page and limit from the query string, clamping limit to MaxLimit.
func ParsePagination(r *http.Request) (page, limit int) {
	page = ParseIntDefault(r.URL.Query().Get("page"), DefaultPage)
	limit = ParseIntDefault(r.URL.Query().Get("limit"), DefaultLimit)
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

func ParseIntDefault(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}

// ParseBool treats "true" and "1" as true, anything else as false.
func ParseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
