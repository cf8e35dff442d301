package query

import "errors"

var (
	ErrUnknownFilter  = errors.New("unknown filter")
	ErrUnknownSortKey = errors.New("unknown sort key")
	ErrNegativePage   = errors.New("page index must be non-negative")
)
