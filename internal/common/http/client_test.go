package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Get(t *testing.T) {
	var gotUA, gotAccept, gotReqID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		gotReqID = r.Header.Get("X-Request-ID")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(time.Second)
	header := http.Header{}
	header.Set("X-Request-ID", "abc-123")

	resp, err := c.Get(context.Background(), srv.URL+"/search?offset=0", header)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(resp.Body))
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "rentcomps", gotUA)
	assert.Equal(t, "application/json", gotAccept)
	assert.Equal(t, "abc-123", gotReqID)
}

func TestClient_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := NewClientWith(srv.Client()).Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "nope", strings.TrimSpace(string(resp.Body)))
}

func TestClient_Errors(t *testing.T) {
	c := NewClient(time.Second)

	_, err := c.Get(context.Background(), "://bad url", nil)
	assert.ErrorContains(t, err, "error creating request")

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err = c.Get(context.Background(), url, nil)
	assert.ErrorContains(t, err, "error executing request")
}

func TestClient_ContextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).Get(ctx, srv.URL, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
