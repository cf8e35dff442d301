// Package query holds the draft and applied filter/sort state of a listing
// search and serializes the applied state into the remote query string.
package query

import (
	"fmt"
	"strings"
)

// FilterName identifies one of the fixed search filters. The declaration
// order is the order filters appear in a built query.
type FilterName int

const (
	FilterCity FilterName = iota
	FilterState
	FilterZipCode
	FilterBeds
	FilterBaths
	FilterStreetAddress

	filterCount
)

// AllSentinel is the form value meaning "no constraint" for beds and baths.
const AllSentinel = "All"

var filterNames = [filterCount]string{
	FilterCity:          "city",
	FilterState:         "state",
	FilterZipCode:       "zip_code",
	FilterBeds:          "beds",
	FilterBaths:         "baths",
	FilterStreetAddress: "street_address",
}

func (n FilterName) String() string {
	if n < 0 || n >= filterCount {
		return fmt.Sprintf("FilterName(%d)", int(n))
	}
	return filterNames[n]
}

// Valid reports whether n is one of the declared filters.
func (n FilterName) Valid() bool {
	return n >= 0 && n < filterCount
}

// FilterNames returns every filter in declaration order.
func FilterNames() []FilterName {
	names := make([]FilterName, 0, filterCount)
	for n := FilterName(0); n < filterCount; n++ {
		names = append(names, n)
	}
	return names
}

// ParseFilterName maps a wire name such as "zip_code" to its FilterName.
func ParseFilterName(s string) (FilterName, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, name := range filterNames {
		if name == s {
			return FilterName(n), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// FilterSet holds one value per filter, indexed by FilterName. The zero value
// constrains nothing.
type FilterSet [filterCount]string

// DefaultFilters returns the values a fresh search form starts with.
func DefaultFilters() FilterSet {
	var f FilterSet
	f[FilterBeds] = AllSentinel
	f[FilterBaths] = AllSentinel
	return f
}

func (f FilterSet) Get(name FilterName) string {
	if !name.Valid() {
		return ""
	}
	return f[name]
}

// With returns a copy of f with name set to value.
func (f FilterSet) With(name FilterName, value string) FilterSet {
	if name.Valid() {
		f[name] = value
	}
	return f
}

// Active reports whether the filter constrains the search.
func (f FilterSet) Active(name FilterName) bool {
	v := f.Get(name)
	return v != "" && v != AllSentinel
}
