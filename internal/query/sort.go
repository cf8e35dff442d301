package query

import (
	"fmt"
	"strings"
)

// SortKey is a column the remote search can order by.
type SortKey string

const (
	SortBeds        SortKey = "beds"
	SortBaths       SortKey = "baths"
	SortPrice       SortKey = "price"
	SortDateUpdated SortKey = "date_updated"
)

var sortKeys = []SortKey{SortBeds, SortBaths, SortPrice, SortDateUpdated}

// SortKeys returns the supported sort keys.
func SortKeys() []SortKey {
	out := make([]SortKey, len(sortKeys))
	copy(out, sortKeys)
	return out
}

func (k SortKey) Valid() bool {
	for _, s := range sortKeys {
		if s == k {
			return true
		}
	}
	return false
}

func ParseSortKey(s string) (SortKey, error) {
	k := SortKey(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownSortKey, s)
	}
	return k, nil
}

// SortSpec is the single active ordering.
type SortSpec struct {
	Key        SortKey
	Descending bool
}

// DefaultSort orders newest updates first.
func DefaultSort() SortSpec {
	return SortSpec{Key: SortDateUpdated, Descending: true}
}

func (s SortSpec) String() string {
	dir := "asc"
	if s.Descending {
		dir = "desc"
	}
	return string(s.Key) + " " + dir
}
