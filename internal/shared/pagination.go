package shared

import (
	"fmt"
	"net/url"
	"strconv"
)

// Pagination is the window requested through the limit and offset query
// parameters. A nil Limit means "no limit".
type Pagination struct {
	Limit  *int32 `json:"limit"`
	Offset int32  `json:"offset"`
}

// HasPaginationParams reports whether either parameter is present.
func HasPaginationParams(query url.Values) bool {
	return query.Has("limit") || query.Has("offset")
}

// ExtractPagination parses limit and offset. Both must be present.
func ExtractPagination(query url.Values) (Pagination, error) {
	if !query.Has("limit") || !query.Has("offset") {
		return Pagination{}, ErrMissingParameters
	}
	limit, err := parseInt32(query.Get("limit"))
	if err != nil {
		return Pagination{}, fmt.Errorf("%w: limit: %v", ErrParse, err)
	}
	offset, err := parseInt32(query.Get("offset"))
	if err != nil {
		return Pagination{}, fmt.Errorf("%w: offset: %v", ErrParse, err)
	}
	return Pagination{Limit: &limit, Offset: offset}, nil
}

func parseInt32(raw string) (int32, error) {
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	return int32(v), nil
}
