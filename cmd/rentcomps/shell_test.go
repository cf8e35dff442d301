package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonhttp "rentcomps/internal/common/http"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/search"
	"rentcomps/internal/session"
)

// ===== Test Helper Functions =====

type recordingAPI struct {
	mu      sync.Mutex
	total   int
	queries []string
}

func (a *recordingAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	a.queries = append(a.queries, r.URL.RawQuery)
	a.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	var rows []string
	for i := offset; i < a.total && i < offset+20; i++ {
		rows = append(rows, fmt.Sprintf(`{"source":"zillow","street_address":"%d Oak St","city":"Austin","state":"TX","zip_code":"78701","beds":"2","baths":"1","sqft":"900","price":"1500","date_collected":"2019-05-01","date_updated":"2019-05-08"}`, i))
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"listings":[%s],"count":%d}`, strings.Join(rows, ","), a.total)
}

func (a *recordingAPI) served() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

func newTestShell(t *testing.T, api *recordingAPI) (*shell, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	log := logger.NewTestLogger(t)
	remote, err := search.NewRemoteFetcher(commonhttp.NewClientWith(srv.Client()), srv.URL, nil, log)
	require.NoError(t, err)

	sess := session.New(remote, nil, log)
	t.Cleanup(sess.Close)

	out := &bytes.Buffer{}
	return newShell(sess, out), out
}

// ===== Shell Tests =====

func TestShell_SearchFlow(t *testing.T) {
	api := &recordingAPI{total: 25}
	sh, out := newTestShell(t, api)

	script := `
# open form is implicit at startup
set city Austin
set beds All
sortby price
submit
next
sort beds asc
query
quit
status
`
	require.NoError(t, sh.runScript(context.Background(), strings.NewReader(script)))

	assert.Equal(t, []string{
		"city=Austin&offset=0&sortby=price&sortdesc=true",
		"city=Austin&offset=20&sortby=price&sortdesc=true",
		"city=Austin&offset=0&sortby=beds",
	}, api.served())

	text := out.String()
	assert.Contains(t, text, "Time to Market")
	assert.Contains(t, text, "0 Oak St")
	assert.Contains(t, text, "Page 2 of 2, sorted by price desc (ready)")
	assert.Contains(t, text, "Page 1 of 2, sorted by beds asc (ready)")
	assert.Contains(t, text, "city=Austin&offset=0&sortby=beds\n")
	assert.NotContains(t, text, "Last query", "commands after quit must not run")
}

func TestShell_FormClosedAfterSubmit(t *testing.T) {
	sh, out := newTestShell(t, &recordingAPI{total: 1})
	ctx := context.Background()

	assert.False(t, sh.exec(ctx, "submit"))
	assert.False(t, sh.exec(ctx, "set city Dallas"))
	assert.Contains(t, out.String(), "open it with 'edit'")

	out.Reset()
	sh.exec(ctx, "edit")
	assert.Contains(t, out.String(), "Search By:")
	sh.exec(ctx, "set city Dallas")
	sh.exec(ctx, "cancel")
	sh.exec(ctx, "form")
	assert.NotContains(t, out.String(), "Dallas")
}

func TestShell_InputErrors(t *testing.T) {
	sh, out := newTestShell(t, &recordingAPI{total: 3})
	ctx := context.Background()

	tests := []struct {
		input    string
		expected string
	}{
		{input: "set county Travis", expected: "INVALID_FILTER_NAME"},
		{input: "sortby sqft", expected: "INVALID_SORT_KEY"},
		{input: "page zero", expected: "page must be a positive number"},
		{input: "sort price sideways", expected: "direction must be asc or desc"},
		{input: "prev", expected: "page out of range"},
		{input: "frobnicate", expected: "Unknown command: frobnicate"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			out.Reset()
			assert.False(t, sh.exec(ctx, tt.input))
			assert.Contains(t, out.String(), tt.expected)
		})
	}
}

func TestShell_QueryBeforeSearch(t *testing.T) {
	sh, out := newTestShell(t, &recordingAPI{})
	sh.exec(context.Background(), "query")
	assert.Contains(t, out.String(), "No search issued yet.")
}

func TestCompleter(t *testing.T) {
	assert.Equal(t, []string{"submit"}, completer("sub"))
	assert.ElementsMatch(t, []string{"sort", "sortby"}, completer("sort"))
	assert.Equal(t, []string{"set zip_code "}, completer("set z"))
	assert.Equal(t, []string{"sortby price"}, completer("sortby pr"))
	assert.ElementsMatch(t, []string{"sort beds", "sort baths"}, completer("sort b"))
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"--base-url", "http://api:8081", "--cache", "redis", "--no-metrics"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "http://api:8081", opts.baseURL)
	assert.Equal(t, "redis", opts.cacheKind)
	assert.True(t, opts.noMetrics)

	_, err = parseFlags([]string{"--nope"}, &bytes.Buffer{})
	assert.Error(t, err)
}
