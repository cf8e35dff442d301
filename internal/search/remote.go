package search

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"rentcomps/internal/common/errors"
	commonhttp "rentcomps/internal/common/http"
	"rentcomps/internal/common/logger"
	"rentcomps/internal/common/observability"
	"rentcomps/internal/models"
)

// Fetcher retrieves one page of listings for a built query string.
type Fetcher interface {
	Fetch(ctx context.Context, query string) (*models.SearchResult, error)
}

// RemoteFetcher calls GET <base>/search?<query> on the listing API.
type RemoteFetcher struct {
	client    *commonhttp.Client
	endpoint  string
	validator *ResponseValidator
	obs       *observability.Observability
	log       logger.Logger
}

func NewRemoteFetcher(client *commonhttp.Client, baseURL string, obs *observability.Observability, log logger.Logger) (*RemoteFetcher, error) {
	validator, err := NewResponseValidator()
	if err != nil {
		return nil, err
	}
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &RemoteFetcher{
		client:    client,
		endpoint:  strings.TrimSuffix(baseURL, "/") + "/search",
		validator: validator,
		obs:       obs,
		log:       logger.ForComponent(log, "remote-fetcher"),
	}, nil
}

// Endpoint is the URL queries are appended to.
func (f *RemoteFetcher) Endpoint() string {
	return f.endpoint
}

func (f *RemoteFetcher) Fetch(ctx context.Context, query string) (result *models.SearchResult, err error) {
	requestID := uuid.NewString()
	ctx, span := f.obs.StartSpan(ctx, "search.fetch",
		attribute.String("search.query", query),
		attribute.String("request.id", requestID),
	)
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	header := http.Header{}
	header.Set("X-Request-ID", requestID)

	resp, err := f.client.Get(ctx, f.endpoint+"?"+query, header)
	if err != nil {
		return nil, f.transportError(err)
	}

	f.log.Debug("search response received", map[string]interface{}{
		"requestId":  requestID,
		"query":      query,
		"status":     resp.StatusCode,
		"bytes":      len(resp.Body),
		"durationMs": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewSearchStatusUnexpectedError(resp.StatusCode, string(resp.Body))
	}

	if err := f.validator.Validate(resp.Body); err != nil {
		return nil, errors.NewSearchResponseMalformedError(err.Error())
	}

	var out models.SearchResult
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, errors.NewSearchResponseMalformedError(err.Error())
	}
	if out.Listings == nil {
		out.Listings = []models.Listing{}
	}

	return &out, nil
}

func (f *RemoteFetcher) transportError(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewSearchTimeoutError(f.endpoint)
	}
	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return errors.NewSearchTimeoutError(f.endpoint)
	}
	return errors.NewSearchTransportFailedError(f.endpoint, err)
}
