package shared

import (
	"net/http"
	"strconv"
)

// FiltersFromQuery parses the common list query parameters.
func FiltersFromQuery(r *http.Request) ListFilters {
	q := r.URL.Query()
	filters := ListFilters{
		Search:  q.Get("search"),
		SortBy:  q.Get("sort"),
		SortDir: q.Get("dir"),
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		filters.Page = page
	} else {
		filters.Page = 1
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filters.Limit = limit
	} else {
		filters.Limit = 20
	}
	switch q.Get("is_active") {
	case "true":
		active := true
		filters.IsActive = &active
	case "false":
		active := false
		filters.IsActive = &active
	}
	if raw := q.Get("category_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.CategoryID = &id
		}
	}
	if raw := q.Get("supplier_id"); raw != "" {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			filters.SupplierID = &id
		}
	}
	return filters
}
