package observability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"rentcomps/internal/common/logger"
)

func TestNew_RecordsFetches(t *testing.T) {
	reg := prometheus.NewRegistry()
	obs := New(Options{
		ServiceName: "rentcomps-test",
		Registerer:  reg,
		Logger:      logger.NewTestLogger(t),
	})
	defer obs.Shutdown()

	ctx, span := obs.StartSpan(context.Background(), "search.fetch", attribute.String("search.query", "offset=0"))
	assert.True(t, span.SpanContext().IsValid())
	obs.RecordFetch(ctx, 25*time.Millisecond, "committed")
	obs.RecordFetch(ctx, 40*time.Millisecond, "failed")
	EndSpan(span, errors.New("boom"))

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	joined := strings.Join(names, ",")
	assert.Contains(t, joined, "search_fetches")
	assert.Contains(t, joined, "search_fetch_duration")
}

func TestNewNoop(t *testing.T) {
	obs := NewNoop()

	ctx, span := obs.StartSpan(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	obs.RecordFetch(ctx, time.Millisecond, "committed")
	EndSpan(span, nil)
	obs.Shutdown()
}
