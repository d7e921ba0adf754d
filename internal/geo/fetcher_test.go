package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pronafmonitor/internal/config"
	apperrors "pronafmonitor/internal/errors"
	"pronafmonitor/internal/shared/testutil"
)

func newTestFetcher(t *testing.T, url string, timeout time.Duration) *Fetcher {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	return NewFetcher(config.GeoConfig{BoundariesURL: url, Timeout: timeout, FeatureIDKey: "id"}, logger, nil)
}

func TestFetcher_GetCachesDocument(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(testutil.SampleGeoJSON()))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, time.Second)
	assert.Nil(t, f.Cached())

	b, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, b.Len())
	assert.True(t, b.Has("3136702"))
	assert.False(t, b.Has("3110905"))
	assert.False(t, b.FetchedAt().IsZero())

	again, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, b, again)
	assert.Same(t, b, f.Cached())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_ConcurrentFirstCallsShareRequest(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		w.Write([]byte(testutil.SampleGeoJSON()))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, 5*time.Second)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.Get(context.Background())
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestFetcher_FailuresAreNotCached(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(testutil.SampleGeoJSON()))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, time.Second)

	_, err := f.Get(context.Background())
	require.Error(t, err)
	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeNetwork, appErr.Type)
	assert.Nil(t, f.Cached())

	fail.Store(false)
	b, err := f.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, b)
}

func TestFetcher_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv.URL, 50*time.Millisecond)
	_, err := f.Get(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeNetwork, appErr.Type)
}

func TestFetcher_RejectsMalformedDocument(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"Feature"}`))
	}))
	defer srv.Close()

	_, err := newTestFetcher(t, srv.URL, time.Second).Get(context.Background())
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeParsing, appErr.Type)
}

func TestNewFetcher_Defaults(t *testing.T) {
	f := NewFetcher(config.GeoConfig{BoundariesURL: "http://example.invalid/x.json"}, nil, nil)
	assert.Equal(t, config.DefaultGeoTimeout, f.client.Timeout)
	assert.Equal(t, "id", f.idKey)
	assert.Equal(t, "http://example.invalid/x.json", f.URL())
}
