package client_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peopledeck/peopledeck/internal/client"
	"github.com/peopledeck/peopledeck/internal/utils"
)

const pageBody = `{
	"results": [
		{"id": "u1", "name": {"first": "Ada", "last": "Lovelace"}, "nat": "GB"}
	],
	"info": {"seed": "test", "results": 1, "page": 1, "version": "1.4"}
}`

func newTestClient(t *testing.T, baseURL string, ttl time.Duration) *client.Client {
	t.Helper()
	c, err := client.New(client.Options{
		BaseURL:  baseURL,
		Seed:     "test",
		CacheTTL: ttl,
		Logger:   utils.NewLoggerTo(io.Discard, "error", false),
	})
	require.NoError(t, err)
	return c
}

func TestFetchPageValidatesInput(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(pageBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	ctx := context.Background()

	cases := []struct {
		name     string
		page     int
		pageSize int
		nats     []string
	}{
		{"zero page", 0, 50, nil},
		{"negative page", -3, 50, nil},
		{"zero page size", 1, 0, nil},
		{"oversized page size", 1, 101, nil},
		{"blank nationality", 1, 50, []string{" "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.FetchPage(ctx, tc.page, tc.pageSize, tc.nats)
			require.Error(t, err)
			assert.Equal(t, client.KindInvalidInput, client.KindOf(err))
		})
	}

	assert.Zero(t, atomic.LoadInt32(&calls), "invalid input must not reach the network")
}

func TestFetchPageServesFromCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(pageBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	ctx := context.Background()

	first, err := c.FetchPage(ctx, 1, 50, []string{"GB", "FR"})
	require.NoError(t, err)
	// Equivalent filter set in a different order must hit the same entry.
	second, err := c.FetchPage(ctx, 1, 50, []string{"FR", "GB"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, first, second)

	_, err = c.FetchPage(ctx, 2, 50, []string{"GB", "FR"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "a different page is a different signature")
}

func TestFetchPageCacheExpiry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(pageBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, 30*time.Millisecond)
	ctx := context.Background()

	_, err := c.FetchPage(ctx, 1, 50, nil)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.FetchPage(ctx, 1, 50, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls), "expired entry must trigger a fresh call")
}

func TestFetchPageCoalescesConcurrentCallers(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = w.Write([]byte(pageBody))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = c.FetchPage(ctx, 1, 50, nil)
		}(i)
	}

	// Let both callers reach the in-flight registry before releasing.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, results[0])
	require.NoError(t, results[1])
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "identical signatures must share one request")
}

func TestFetchPageClassifiesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	_, err := c.FetchPage(context.Background(), 1, 50, nil)
	require.Error(t, err)

	var fe *client.Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, client.KindHTTP, fe.Kind)
	assert.Equal(t, http.StatusBadGateway, fe.Status)
}

func TestFetchPageClassifiesInvalidResponse(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("<html>definitely not json</html>"))
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, time.Minute)
		_, err := c.FetchPage(context.Background(), 1, 50, nil)
		assert.Equal(t, client.KindInvalidResponse, client.KindOf(err))
	})

	t.Run("missing results array", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"info": {"page": 1}}`))
		}))
		defer srv.Close()

		c := newTestClient(t, srv.URL, time.Minute)
		_, err := c.FetchPage(context.Background(), 1, 50, nil)
		assert.Equal(t, client.KindInvalidResponse, client.KindOf(err))
	})
}

func TestFetchPageClassifiesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(pageBody))
	}))
	srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	_, err := c.FetchPage(context.Background(), 1, 50, nil)
	assert.Equal(t, client.KindNetwork, client.KindOf(err))
}

func TestFetchPageCancellation(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := c.FetchPage(ctx, 1, 50, nil)
		done <- err
	}()
	time.Sleep(30 * time.Millisecond)
	cancel()

	err := <-done
	require.Error(t, err)
	assert.True(t, client.IsCancelled(err))

	// A cancelled fetch must not have been cached; the retry hits the network.
	srv2calls := atomic.LoadInt32(&calls)
	assert.GreaterOrEqual(t, srv2calls, int32(1))
}
