package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/league-watcher/internal/league"
	"github.com/JakeFAU/league-watcher/internal/watcher"
)

type fakeRunner struct {
	mu    sync.Mutex
	last  *watcher.Report
	err   error
	calls int
}

func (f *fakeRunner) RunCycle(context.Context) (watcher.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	rep := watcher.Report{
		CycleID:   fmt.Sprintf("cycle-%d", f.calls),
		StartedAt: time.Unix(100, 0).UTC(),
		Announced: []league.League{{Name: "Friday Coed", OpenSlots: 2}},
		Status:    watcher.StatusSuccess,
	}
	if f.err != nil {
		rep.Status = watcher.StatusFetchFailed
		rep.Error = f.err.Error()
		rep.Announced = []league.League{}
	}
	f.last = &rep
	return rep, f.err
}

func (f *fakeRunner) Last() (watcher.Report, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.last == nil {
		return watcher.Report{}, false
	}
	return *f.last, true
}

func do(t *testing.T, s *Server, method, path string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthAndReadiness(t *testing.T) {
	t.Parallel()

	ready := false
	var mu sync.Mutex
	s := NewServer(&fakeRunner{}, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ready
	}, Config{}, nil)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, s, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	mu.Lock()
	ready = true
	mu.Unlock()
	rec = do(t, s, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusBeforeAndAfterCycle(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	s := NewServer(runner, nil, Config{}, nil)

	rec := do(t, s, http.MethodGet, "/v1/status", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/v1/cycles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rep watcher.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rep))
	assert.Equal(t, "cycle-1", rep.CycleID)
	require.Len(t, rep.Announced, 1)

	rec = do(t, s, http.MethodGet, "/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"cycle_id":"cycle-1"`)
}

func TestRunCycleMapsErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: boom", watcher.ErrFetch), http.StatusBadGateway},
		{fmt.Errorf("%w: bad date", watcher.ErrNormalize), http.StatusUnprocessableEntity},
		{fmt.Errorf("%w: disk full", watcher.ErrStore), http.StatusInternalServerError},
		{context.Canceled, http.StatusRequestTimeout},
	}
	for _, tt := range tests {
		s := NewServer(&fakeRunner{err: tt.err}, nil, Config{}, nil)
		rec := do(t, s, http.MethodPost, "/v1/cycles", nil)
		assert.Equal(t, tt.code, rec.Code, tt.err.Error())
		assert.Contains(t, rec.Body.String(), `"report"`)
	}
}

func TestAPIKeyProtectsV1Only(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, nil, Config{AuthEnabled: true, APIKey: "secret"}, nil)

	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/healthz", nil).Code)
	require.Equal(t, http.StatusForbidden, do(t, s, http.MethodPost, "/v1/cycles", nil).Code)
	require.Equal(t, http.StatusForbidden,
		do(t, s, http.MethodPost, "/v1/cycles", map[string]string{"X-API-Key": "wrong"}).Code)
	require.Equal(t, http.StatusOK,
		do(t, s, http.MethodPost, "/v1/cycles", map[string]string{"X-API-Key": "secret"}).Code)
	require.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/v1/status?api_key=secret", nil).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, nil, Config{}, nil)
	do(t, s, http.MethodGet, "/healthz", nil)
	rec := do(t, s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRequestIDPropagates(t *testing.T) {
	t.Parallel()

	s := NewServer(&fakeRunner{}, nil, Config{}, nil)
	rec := do(t, s, http.MethodGet, "/healthz", map[string]string{"X-Request-ID": "abc"})
	assert.Equal(t, "abc", rec.Header().Get("X-Request-ID"))
}

func TestRecoverMiddleware(t *testing.T) {
	t.Parallel()

	h := recoverMiddleware(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(errors.New("kaboom"))
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
