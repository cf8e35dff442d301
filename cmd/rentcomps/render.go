package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"rentcomps/internal/models"
	"rentcomps/internal/query"
	"rentcomps/internal/search"
	"rentcomps/internal/session"
)

var tableHeader = []string{
	"Source", "Address", "City", "State", "Zip", "Beds", "Baths",
	"Sq Ft", "Price", "Date Collected", "Date Updated", "Time to Market",
}

func timeToMarket(l models.Listing) string {
	days, err := l.TimeToMarket()
	if err != nil {
		return "-"
	}
	return strconv.Itoa(days)
}

func renderTable(w io.Writer, v session.View) {
	if v.State == search.Loading {
		fmt.Fprintln(w, "Loading...")
		return
	}

	if len(v.Rows) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(tableHeader, "\t"))
		for _, l := range v.Rows {
			fmt.Fprintln(tw, strings.Join([]string{
				l.Source,
				l.StreetAddress,
				l.City,
				l.State,
				l.ZipCode.String(),
				l.Beds.String(),
				l.Baths.String(),
				l.Sqft.String(),
				l.Price.String(),
				l.DateCollected,
				l.DateUpdated,
				timeToMarket(l),
			}, "\t"))
		}
		tw.Flush()
	}

	if v.Err != nil {
		fmt.Fprintf(w, "Search failed: %s\n", v.Err.Message)
	}
	fmt.Fprintln(w, pageLine(v))
}

func pageLine(v session.View) string {
	pages := "?"
	if v.PageCount != search.UnknownPageCount {
		pages = strconv.Itoa(v.PageCount)
	}
	return fmt.Sprintf("Page %d of %s, sorted by %s (%s)", v.PageIndex+1, pages, v.Sort, v.State)
}

func renderDraft(w io.Writer, filters query.FilterSet, key query.SortKey) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Search By:")
	for _, name := range query.FilterNames() {
		value := filters.Get(name)
		if value == "" {
			value = "(any)"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", name, value)
	}
	fmt.Fprintf(tw, "Sort By:\t%s\n", key)
	tw.Flush()
}

func renderStatus(w io.Writer, v session.View, editorOpen bool) {
	fmt.Fprintln(w, pageLine(v))
	fmt.Fprintf(w, "Rows: %d\n", len(v.Rows))
	if v.Query != "" {
		fmt.Fprintf(w, "Last query: %s\n", v.Query)
	}
	if editorOpen {
		fmt.Fprintln(w, "Search form: open")
	}
	if v.Err != nil {
		fmt.Fprintf(w, "Last error: [%s] %s\n", v.Err.Code, v.Err.Message)
	}
}
