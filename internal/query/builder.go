package query

import (
	"net/url"
	"strconv"
	"strings"
)

// PageSize is the number of listings per page. The remote search paginates
// by record offset, so it is fixed on both sides.
const PageSize = 20

// Offset returns the first record index of page.
func Offset(page int) int {
	return page * PageSize
}

// PageCount returns ceil(total / PageSize).
func PageCount(total int) int {
	if total <= 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}

// Build serializes s into the /search query string. Active filters come
// first in declaration order, then offset, sortby and, only when
// descending, sortdesc=true.
func Build(s Snapshot) string {
	parts := make([]string, 0, int(filterCount)+3)
	for _, name := range FilterNames() {
		if !s.Filters.Active(name) {
			continue
		}
		parts = append(parts, name.String()+"="+url.QueryEscape(s.Filters.Get(name)))
	}
	parts = append(parts, "offset="+strconv.Itoa(Offset(s.PageIndex)))
	parts = append(parts, "sortby="+url.QueryEscape(string(s.Sort.Key)))
	if s.Sort.Descending {
		parts = append(parts, "sortdesc=true")
	}
	return strings.Join(parts, "&")
}
