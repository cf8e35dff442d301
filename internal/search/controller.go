package search

import (
	"context"
	"sync"
	"time"

	"rentcomps/internal/common/errors"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/common/metrics"
	"rentcomps/internal/common/observability"
	"rentcomps/internal/models"
	"rentcomps/internal/query"
)

// State is the fetch lifecycle of a Controller.
type State int

const (
	Idle State = iota
	Loading
	Ready
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// UnknownPageCount is reported until the first page has been committed.
const UnknownPageCount = -1

// Controller issues page requests against the applied query state and
// commits their results. Only the most recently issued request may commit;
// older responses are dropped whatever order they arrive in.
type Controller struct {
	fetcher    Fetcher
	applied    *query.AppliedState
	obs        *observability.Observability
	log        logger.Logger
	errHandler *errors.ErrorHandler

	mu        sync.Mutex
	seq       uint64
	cancel    context.CancelFunc
	state     State
	rows      []models.Listing
	pageCount int
	lastErr   *errors.StandardError
	lastQuery string

	wg sync.WaitGroup
}

func NewController(fetcher Fetcher, applied *query.AppliedState, obs *observability.Observability, log logger.Logger) *Controller {
	if obs == nil {
		obs = observability.NewNoop()
	}
	log = logger.ForComponent(log, "search-controller")
	return &Controller{
		fetcher:    fetcher,
		applied:    applied,
		obs:        obs,
		log:        log,
		errHandler: errors.NewErrorHandler(log),
		state:      Idle,
		pageCount:  UnknownPageCount,
	}
}

// RequestPage moves the applied state to index and fetches it. The returned
// channel is closed once that request has either committed or been
// discarded.
func (c *Controller) RequestPage(ctx context.Context, index int) (<-chan struct{}, error) {
	done, err := c.issue(ctx, func() (query.Snapshot, error) {
		return c.applied.SetPage(index)
	})
	if err != nil {
		return nil, errors.NewInvalidPageIndexError(index)
	}
	return done, nil
}

// Submit applies committed form values and fetches the first page.
func (c *Controller) Submit(ctx context.Context, filters query.FilterSet, sort query.SortSpec) <-chan struct{} {
	done, _ := c.issue(ctx, func() (query.Snapshot, error) {
		return c.applied.ApplyFilters(filters, sort), nil
	})
	return done
}

// SortBy changes the applied ordering from the results view and fetches the
// first page.
func (c *Controller) SortBy(ctx context.Context, key query.SortKey, descending bool) <-chan struct{} {
	done, _ := c.issue(ctx, func() (query.Snapshot, error) {
		return c.applied.SetSort(key, descending), nil
	})
	return done
}

// Refresh re-fetches the current applied state.
func (c *Controller) Refresh(ctx context.Context) <-chan struct{} {
	done, _ := c.issue(ctx, func() (query.Snapshot, error) {
		return c.applied.Snapshot(), nil
	})
	return done
}

// issue runs transition and claims the next sequence number under one lock,
// so the newest sequence always carries the newest applied state.
func (c *Controller) issue(ctx context.Context, transition func() (query.Snapshot, error)) (<-chan struct{}, error) {
	c.mu.Lock()
	snap, err := transition()
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	q := query.Build(snap)
	fetchCtx, cancel := context.WithCancel(ctx)

	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq
	c.cancel = cancel
	c.state = Loading
	c.rows = nil
	c.lastQuery = q
	c.wg.Add(1)
	c.mu.Unlock()

	c.log.Debug("search requested", map[string]interface{}{
		"sequence":  seq,
		"query":     q,
		"pageIndex": snap.PageIndex,
	})

	done := make(chan struct{})
	metrics.SearchInflight.Inc()

	go func() {
		defer c.wg.Done()
		defer close(done)
		defer metrics.SearchInflight.Dec()
		defer cancel()

		start := time.Now()
		res, err := c.fetcher.Fetch(fetchCtx, q)
		outcome := c.settle(seq, q, res, err)
		elapsed := time.Since(start)

		metrics.SearchRequests.WithLabelValues(outcome).Inc()
		metrics.SearchRequestDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
		c.obs.RecordFetch(context.Background(), elapsed, outcome)
	}()

	return done, nil
}

func (c *Controller) settle(seq uint64, q string, res *models.SearchResult, err error) string {
	if err == nil && res == nil {
		err = errors.NewSearchResponseMalformedError("empty search result")
	}

	c.mu.Lock()
	if seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		c.log.Debug("discarding superseded search response", map[string]interface{}{
			"sequence": seq,
			"latest":   latest,
			"query":    q,
		})
		return metrics.OutcomeDiscarded
	}

	if err != nil {
		c.rows = []models.Listing{}
		c.state = Idle
		c.lastErr = errors.Classify(err)
		c.mu.Unlock()

		c.errHandler.Handle("search.fetch", err, map[string]interface{}{
			"sequence": seq,
			"query":    q,
		})
		return metrics.OutcomeFailed
	}

	c.rows = res.Listings
	if c.rows == nil {
		c.rows = []models.Listing{}
	}
	c.pageCount = query.PageCount(res.Count)
	c.state = Ready
	c.lastErr = nil
	pageCount := c.pageCount
	c.mu.Unlock()

	c.log.Info("search committed", map[string]interface{}{
		"sequence":  seq,
		"query":     q,
		"rows":      len(res.Listings),
		"count":     res.Count,
		"pageCount": pageCount,
	})
	return metrics.OutcomeCommitted
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Loading() bool {
	return c.State() == Loading
}

// Rows returns the committed listings. It is empty while a request is
// outstanding and after a failure.
func (c *Controller) Rows() []models.Listing {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Listing, len(c.rows))
	copy(out, c.rows)
	return out
}

// PageCount is ceil(count/20) of the last committed result, or
// UnknownPageCount before the first one. Failures leave it unchanged.
func (c *Controller) PageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pageCount
}

// LastError is the normalized failure of the latest request, or nil if it
// succeeded or is still outstanding.
func (c *Controller) LastError() *errors.StandardError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Loading {
		return nil
	}
	return c.lastErr
}

// Query is the query string of the most recently issued request.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastQuery
}

// Applied returns the current applied state.
func (c *Controller) Applied() query.Snapshot {
	return c.applied.Snapshot()
}

// Wait blocks until every issued request has settled.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels the outstanding request and waits for it to settle.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.wg.Wait()
}
