// internal/models/listing.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDate is returned when a listing date column cannot be parsed.
var ErrInvalidDate = errors.New("invalid listing date")

// Listing is one row of the remote all_listings collection. Values are kept
// exactly as received.
type Listing struct {
	Source        string     `json:"source"`
	URL           string     `json:"url"`
	StreetAddress string     `json:"street_address"`
	City          string     `json:"city"`
	State         string     `json:"state"`
	ZipCode       FlexString `json:"zip_code"`
	Beds          FlexString `json:"beds"`
	Baths         FlexString `json:"baths"`
	Sqft          FlexString `json:"sqft"`
	Price         FlexString `json:"price"`
	DateCollected string     `json:"date_collected"`
	DateUpdated   string     `json:"date_updated"`
}

// SearchResult is the body returned by GET /search. Count is the total
// number of matches across all pages.
type SearchResult struct {
	Listings []Listing `json:"listings"`
	Count    int       `json:"count"`
}

// FlexString decodes a JSON string, number or null into its textual form.
// The listing store keeps beds, baths, sqft and price as VARCHAR, so both
// encodings show up on the wire.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", string(data))
	}
	*f = FlexString(n.String())
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

var listingTimeLayouts = []string{
	time.RFC1123,
	time.RFC1123Z,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseListingTime parses a date column in any of the formats the search
// API is known to emit.
func ParseListingTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range listingTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
}

// DaysOnMarket returns the absolute distance between collected and updated
// rounded up to whole days.
func DaysOnMarket(collected, updated time.Time) int {
	d := updated.Sub(collected)
	if d < 0 {
		d = -d
	}
	const day = 24 * time.Hour
	return int((d + day - 1) / day)
}

// TimeToMarket applies DaysOnMarket to the listing's date columns.
func (l Listing) TimeToMarket() (int, error) {
	collected, err := ParseListingTime(l.DateCollected)
	if err != nil {
		return 0, fmt.Errorf("date_collected: %w", err)
	}
	updated, err := ParseListingTime(l.DateUpdated)
	if err != nil {
		return 0, fmt.Errorf("date_updated: %w", err)
	}
	return DaysOnMarket(collected, updated), nil
}
