package mediastack

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpavlovic/newsstack/internal/apperr"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.APIKey = "test-access-key-1234"
	cfg.BaseURL = baseURL
	cfg.Retry.Delay = time.Millisecond
	return cfg
}

const successBody = `{
	"pagination": {"limit": 100, "offset": 0, "count": 2, "total": 10000},
	"data": [
		{"title": "First", "url": "https://example.com/a", "source": "CNN", "published_at": "2024-08-30T10:15:00+00:00"},
		{"title": "Second", "url": "https://example.com/b", "source": "BBC", "published_at": "2024-08-30T11:00:00+00:00"}
	]
}`

func TestClient_Fetch_Success(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	batch, err := client.Fetch(context.Background(), Params{Categories: "technology", Limit: 25})
	require.NoError(t, err)

	assert.Len(t, batch.Articles, 2)
	assert.Equal(t, 10000, batch.Pagination.Total)
	assert.Equal(t, "First", batch.Articles[0].Title)

	// caller params win, defaults fill the rest, the key is injected
	assert.Equal(t, "technology", gotQuery["categories"][0])
	assert.Equal(t, "25", gotQuery["limit"][0])
	assert.Equal(t, "en", gotQuery["languages"][0])
	assert.Equal(t, "published_desc", gotQuery["sort"][0])
	assert.Equal(t, "test-access-key-1234", gotQuery["access_key"][0])
}

func TestClient_Fetch_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(successBody))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	batch, err := client.Fetch(context.Background(), Params{})
	require.NoError(t, err)
	assert.Len(t, batch.Articles, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	_, err := client.Fetch(context.Background(), Params{})
	require.Error(t, err)

	var he *apperr.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusInternalServerError, he.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_Fetch_APIErrorIsTerminal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"error": {"code": "invalid_access_key", "message": "invalid key"}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	_, err := client.Fetch(context.Background(), Params{})
	require.Error(t, err)

	var ae *apperr.APIError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "invalid_access_key", ae.Code)
	assert.Equal(t, int32(1), calls.Load(), "API envelope errors must not be retried")
}

func TestClient_Fetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewClient(testConfig(srv.URL))

	_, err := client.Fetch(context.Background(), Params{})
	require.Error(t, err)

	var te *apperr.TransportError
	assert.True(t, errors.As(err, &te))
}

func TestClient_Fetch_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))

	_, err := client.Fetch(context.Background(), Params{})
	require.Error(t, err)
	assert.True(t, apperr.IsRateLimited(err))
}

func TestClient_TestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"pagination": {"count": 1}, "data": []}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL))
	require.NoError(t, client.TestConnection(context.Background()))
}
