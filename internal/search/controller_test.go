package search

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcomps/internal/common/errors"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/models"
	"rentcomps/internal/query"
)

// ===== Test Helper Functions =====

type fetchReply struct {
	res *models.SearchResult
	err error
}

// gatedFetcher blocks each Fetch until the test releases the reply for its
// query, so responses can be delivered in any order.
type gatedFetcher struct {
	mu      sync.Mutex
	gates   map[string]chan fetchReply
	started chan string
}

func newGatedFetcher() *gatedFetcher {
	return &gatedFetcher{
		gates:   make(map[string]chan fetchReply),
		started: make(chan string, 16),
	}
}

func (g *gatedFetcher) gate(q string) chan fetchReply {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[q]
	if !ok {
		ch = make(chan fetchReply, 1)
		g.gates[q] = ch
	}
	return ch
}

func (g *gatedFetcher) Fetch(_ context.Context, q string) (*models.SearchResult, error) {
	ch := g.gate(q)
	g.started <- q
	r := <-ch
	return r.res, r.err
}

func (g *gatedFetcher) release(q string, res *models.SearchResult, err error) {
	g.gate(q) <- fetchReply{res: res, err: err}
}

// staticFetcher answers immediately.
type staticFetcher struct {
	res     *models.SearchResult
	err     error
	queries []string
	mu      sync.Mutex
}

func (s *staticFetcher) Fetch(_ context.Context, q string) (*models.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, q)
	s.mu.Unlock()
	return s.res, s.err
}

func listings(prefix string, n int) []models.Listing {
	out := make([]models.Listing, n)
	for i := range out {
		out[i] = models.Listing{StreetAddress: fmt.Sprintf("%s-%d", prefix, i), City: "Austin"}
	}
	return out
}

func newTestController(t *testing.T, f Fetcher) *Controller {
	t.Helper()
	c := NewController(f, query.NewAppliedState(), nil, logger.NewTestLogger(t))
	t.Cleanup(c.Close)
	return c
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("request did not settle")
	}
}

func waitStarted(t *testing.T, g *gatedFetcher) string {
	t.Helper()
	select {
	case q := <-g.started:
		return q
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
		return ""
	}
}

// ===== Controller Tests =====

func TestController_InitialState(t *testing.T) {
	c := newTestController(t, &staticFetcher{})

	assert.Equal(t, Idle, c.State())
	assert.False(t, c.Loading())
	assert.Empty(t, c.Rows())
	assert.Equal(t, UnknownPageCount, c.PageCount())
	assert.Nil(t, c.LastError())
}

func TestController_Success(t *testing.T) {
	tests := []struct {
		name          string
		count         int
		rows          int
		expectedPages int
	}{
		{name: "empty result", count: 0, rows: 0, expectedPages: 0},
		{name: "single row", count: 1, rows: 1, expectedPages: 1},
		{name: "exactly one page", count: 20, rows: 20, expectedPages: 1},
		{name: "spills onto second page", count: 21, rows: 20, expectedPages: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &staticFetcher{res: &models.SearchResult{Listings: listings("a", tt.rows), Count: tt.count}}
			c := newTestController(t, f)

			done, err := c.RequestPage(context.Background(), 0)
			require.NoError(t, err)
			waitDone(t, done)

			assert.Equal(t, Ready, c.State())
			assert.Len(t, c.Rows(), tt.rows)
			assert.Equal(t, tt.expectedPages, c.PageCount())
			assert.Nil(t, c.LastError())
		})
	}
}

func TestController_EmptyResponseIsReady(t *testing.T) {
	f := &staticFetcher{res: &models.SearchResult{Listings: []models.Listing{}, Count: 0}}
	c := newTestController(t, f)

	done, err := c.RequestPage(context.Background(), 0)
	require.NoError(t, err)
	waitDone(t, done)

	assert.Equal(t, []models.Listing{}, c.Rows())
	assert.Equal(t, 0, c.PageCount())
	assert.Equal(t, Ready, c.State())
}

func TestController_LoadingClearsRows(t *testing.T) {
	g := newGatedFetcher()
	c := newTestController(t, g)
	ctx := context.Background()

	done, _ := c.RequestPage(ctx, 0)
	q0 := waitStarted(t, g)
	g.release(q0, &models.SearchResult{Listings: listings("p0", 20), Count: 45}, nil)
	waitDone(t, done)
	require.Len(t, c.Rows(), 20)

	done, _ = c.RequestPage(ctx, 1)
	q1 := waitStarted(t, g)
	assert.True(t, c.Loading())
	assert.Empty(t, c.Rows(), "rows must be cleared while loading")
	assert.Equal(t, 3, c.PageCount(), "page count survives while loading")

	g.release(q1, &models.SearchResult{Listings: listings("p1", 20), Count: 45}, nil)
	waitDone(t, done)
	assert.Equal(t, "p1-0", c.Rows()[0].StreetAddress)
}

func TestController_LastRequestWins(t *testing.T) {
	orders := []struct {
		name       string
		staleFirst bool
	}{
		{name: "stale response arrives first", staleFirst: true},
		{name: "stale response arrives last", staleFirst: false},
	}

	for _, tt := range orders {
		t.Run(tt.name, func(t *testing.T) {
			g := newGatedFetcher()
			c := newTestController(t, g)
			ctx := context.Background()

			done2, err := c.RequestPage(ctx, 2)
			require.NoError(t, err)
			q2 := waitStarted(t, g)

			done3, err := c.RequestPage(ctx, 3)
			require.NoError(t, err)
			q3 := waitStarted(t, g)

			assert.Contains(t, q2, "offset=40")
			assert.Contains(t, q3, "offset=60")

			page2 := &models.SearchResult{Listings: listings("page2", 20), Count: 200}
			page3 := &models.SearchResult{Listings: listings("page3", 20), Count: 100}

			if tt.staleFirst {
				g.release(q2, page2, nil)
				waitDone(t, done2)
				assert.True(t, c.Loading(), "stale response must not end loading")
				assert.Empty(t, c.Rows())

				g.release(q3, page3, nil)
				waitDone(t, done3)
			} else {
				g.release(q3, page3, nil)
				waitDone(t, done3)
				g.release(q2, page2, nil)
				waitDone(t, done2)
			}

			assert.Equal(t, Ready, c.State())
			rows := c.Rows()
			require.Len(t, rows, 20)
			assert.Equal(t, "page3-0", rows[0].StreetAddress)
			assert.Equal(t, 5, c.PageCount())
			assert.Equal(t, 3, c.Applied().PageIndex)
		})
	}
}

func TestController_StaleFailureIsIgnored(t *testing.T) {
	g := newGatedFetcher()
	c := newTestController(t, g)
	ctx := context.Background()

	done1, _ := c.RequestPage(ctx, 1)
	q1 := waitStarted(t, g)
	done2, _ := c.RequestPage(ctx, 2)
	q2 := waitStarted(t, g)

	g.release(q2, &models.SearchResult{Listings: listings("ok", 3), Count: 43}, nil)
	waitDone(t, done2)
	g.release(q1, nil, errors.NewSearchTransportFailedError("http://x/search", fmt.Errorf("boom")))
	waitDone(t, done1)

	assert.Equal(t, Ready, c.State())
	assert.Len(t, c.Rows(), 3)
	assert.Nil(t, c.LastError())
}

func TestController_FailureKeepsPageCount(t *testing.T) {
	g := newGatedFetcher()
	c := newTestController(t, g)
	ctx := context.Background()

	done, _ := c.RequestPage(ctx, 0)
	q := waitStarted(t, g)
	g.release(q, &models.SearchResult{Listings: listings("a", 20), Count: 61}, nil)
	waitDone(t, done)
	require.Equal(t, 4, c.PageCount())

	failures := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{name: "transport", err: errors.NewSearchTransportFailedError("http://x/search", fmt.Errorf("refused")), code: errors.ErrCodeSearchTransportFailed},
		{name: "malformed", err: errors.NewSearchResponseMalformedError("count: missing"), code: errors.ErrCodeSearchResponseMalformed},
		{name: "plain error", err: fmt.Errorf("something odd"), code: errors.ErrCodeInternal},
	}

	for i, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			done, err := c.RequestPage(ctx, i+1)
			require.NoError(t, err)
			q := waitStarted(t, g)
			g.release(q, nil, tt.err)
			waitDone(t, done)

			assert.Equal(t, Idle, c.State())
			assert.Empty(t, c.Rows())
			assert.Equal(t, 4, c.PageCount())
			require.NotNil(t, c.LastError())
			assert.Equal(t, tt.code, c.LastError().Code)
		})
	}
}

func TestController_NilResultIsFailure(t *testing.T) {
	c := newTestController(t, &staticFetcher{})

	done, err := c.RequestPage(context.Background(), 0)
	require.NoError(t, err)
	waitDone(t, done)

	assert.Equal(t, Idle, c.State())
	require.NotNil(t, c.LastError())
	assert.Equal(t, errors.ErrCodeSearchResponseMalformed, c.LastError().Code)
}

func TestController_NegativePage(t *testing.T) {
	f := &staticFetcher{res: &models.SearchResult{}}
	c := newTestController(t, f)

	done, err := c.RequestPage(context.Background(), -1)
	assert.Nil(t, done)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidPageIndex))
	assert.Empty(t, f.queries)
}

func TestController_SubmitAndSortResetPage(t *testing.T) {
	f := &staticFetcher{res: &models.SearchResult{Listings: listings("a", 1), Count: 1}}
	c := newTestController(t, f)
	ctx := context.Background()

	done, _ := c.RequestPage(ctx, 4)
	waitDone(t, done)
	assert.Equal(t, "offset=80&sortby=date_updated&sortdesc=true", c.Query())

	filters := query.FilterSet{}.With(query.FilterCity, "Austin")
	waitDone(t, c.Submit(ctx, filters, query.DefaultSort()))
	assert.Equal(t, "city=Austin&offset=0&sortby=date_updated&sortdesc=true", c.Query())
	assert.Equal(t, 0, c.Applied().PageIndex)

	done, _ = c.RequestPage(ctx, 2)
	waitDone(t, done)
	waitDone(t, c.SortBy(ctx, query.SortPrice, false))
	assert.Equal(t, "city=Austin&offset=0&sortby=price", c.Query())

	waitDone(t, c.Refresh(ctx))
	assert.Equal(t, "city=Austin&offset=0&sortby=price", c.Query())
	assert.Len(t, f.queries, 5)
}

func TestController_SupersededRequestIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	f := fetcherFunc(func(ctx context.Context, q string) (*models.SearchResult, error) {
		if q == query.Build(query.Snapshot{Sort: query.DefaultSort(), PageIndex: 1}) {
			<-ctx.Done()
			close(cancelled)
			return nil, ctx.Err()
		}
		return &models.SearchResult{Listings: listings("b", 1), Count: 1}, nil
	})
	c := newTestController(t, f)
	ctx := context.Background()

	done1, _ := c.RequestPage(ctx, 1)
	done2, _ := c.RequestPage(ctx, 2)

	waitDone(t, done1)
	waitDone(t, done2)
	select {
	case <-cancelled:
	default:
		t.Fatal("superseded request context was not cancelled")
	}
	assert.Equal(t, Ready, c.State())
	assert.Nil(t, c.LastError())
}

type fetcherFunc func(ctx context.Context, q string) (*models.SearchResult, error)

func (f fetcherFunc) Fetch(ctx context.Context, q string) (*models.SearchResult, error) {
	return f(ctx, q)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "ready", Ready.String())
	assert.Equal(t, "unknown", State(9).String())
}
