package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routesmith/internal/auth"
	"routesmith/internal/config"
	"routesmith/internal/store"
	"routesmith/internal/vrp"
	"routesmith/internal/webhooks"
)

const problemDoc = `{
  "vehicles": [{"id": 1, "start_index": 0, "end_index": 0}],
  "jobs": [
    {"id": 1, "location_index": 1},
    {"id": 2, "location_index": 2}
  ],
  "matrices": {"car": {"durations": [[0, 10, 20], [10, 0, 15], [20, 15, 0]]}}
}`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	t.Setenv("AUTH_MODE", "")
	cfg := config.Default()
	st := store.NewMemory()
	return &Server{
		Cfg:      cfg,
		Store:    st,
		Pub:      webhooks.NewPublisher(st),
		Auth:     auth.NewVerifier(cfg.AuthToken),
		Broker:   NewBroker(),
		limiters: newClientLimiters(1000, 1000),
	}
}

func doRequest(h http.Handler, method, path, body string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.1:1234"
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSolveEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodPost, "/v1/solve", problemDoc, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out vrp.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, vrp.CodeOK, out.Code)
	assert.Equal(t, 1, out.Summary.Routes)
	assert.Equal(t, int64(45), out.Summary.Cost)
}

func TestSolveEndpointRejectsBadDocument(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodPost, "/v1/solve", `{"vehicles": []}`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var p Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "Invalid Problem", p.Title)
	assert.Equal(t, http.StatusBadRequest, p.Status)
}

func TestSolveEndpointMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodGet, "/v1/solve", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestQueuedSolveLifecycle(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	rec := doRequest(h, http.MethodPost, "/v1/solves", problemDoc, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var job store.SolveJob
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	require.NotEmpty(t, job.ID)
	assert.Equal(t, store.StatusQueued, job.Status)

	// The solution is not ready while the job is queued.
	rec = doRequest(h, http.MethodGet, "/v1/solves/"+job.ID+"/solution", "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Drain the queue inline instead of waiting for the ticker.
	w := NewSolveWorker(s)
	require.True(t, w.runOne())
	require.False(t, w.runOne(), "queue must be empty after one job")

	rec = doRequest(h, http.MethodGet, "/v1/solves/"+job.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &job))
	assert.Equal(t, store.StatusDone, job.Status)

	rec = doRequest(h, http.MethodGet, "/v1/solves/"+job.ID+"/solution", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var out vrp.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, vrp.CodeOK, out.Code)
}

func TestQueuedSolveRejectsBadDocument(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodPost, "/v1/solves", `{"jobs": []}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListSolves(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()
	for i := 0; i < 3; i++ {
		rec := doRequest(h, http.MethodPost, "/v1/solves", problemDoc, nil)
		require.Equal(t, http.StatusAccepted, rec.Code)
	}

	rec := doRequest(h, http.MethodGet, "/v1/solves?limit=2", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Solves     []store.SolveJob `json:"solves"`
		NextCursor string           `json:"next_cursor"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Solves, 2)
	assert.NotEmpty(t, page.NextCursor)

	rec = doRequest(h, http.MethodGet, "/v1/solves?limit=2&cursor="+page.NextCursor, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Solves, 1)
}

func TestSolveByIDNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodGet, "/v1/solves/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSolveWorkerEmitsWebhook(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	rec := doRequest(h, http.MethodPost, "/v1/subscriptions",
		`{"url": "https://example.com/hook", "events": ["solve.completed"]}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(h, http.MethodPost, "/v1/solves", problemDoc, nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.True(t, NewSolveWorker(s).runOne())

	due, err := s.Store.FetchDueWebhookDeliveries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, webhooks.EventSolveCompleted, due[0].EventType)
}

func TestSubscriptionsCRUD(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	rec := doRequest(h, http.MethodPost, "/v1/subscriptions",
		`{"url": "ftp://example.com", "events": ["*"]}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "only http(s) urls are accepted")

	rec = doRequest(h, http.MethodPost, "/v1/subscriptions", `{"url": "https://example.com/hook"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sub store.Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
	assert.Equal(t, []string{"*"}, sub.Events, "events default to the wildcard")

	rec = doRequest(h, http.MethodGet, "/v1/subscriptions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Subscriptions []store.Subscription `json:"subscriptions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Subscriptions, 1)

	rec = doRequest(h, http.MethodDelete, "/v1/subscriptions/"+sub.ID, "", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = doRequest(h, http.MethodDelete, "/v1/subscriptions/"+sub.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRequiredOnAPIRoutes(t *testing.T) {
	t.Setenv("AUTH_MODE", "")
	cfg := config.Default()
	cfg.AuthToken = "sekrit"
	st := store.NewMemory()
	s := &Server{
		Cfg:      cfg,
		Store:    st,
		Pub:      webhooks.NewPublisher(st),
		Auth:     auth.NewVerifier(cfg.AuthToken),
		Broker:   NewBroker(),
		limiters: newClientLimiters(1000, 1000),
	}
	h := s.Routes()

	rec := doRequest(h, http.MethodPost, "/v1/solve", problemDoc, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodPost, "/v1/solve", problemDoc,
		map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(h, http.MethodPost, "/v1/solve", problemDoc,
		map[string]string{"Authorization": "Bearer sekrit"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Probes stay open without credentials.
	rec = doRequest(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitReturns429(t *testing.T) {
	s := newTestServer(t)
	s.limiters = newClientLimiters(1, 1)
	h := s.Routes()

	rec := doRequest(h, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = doRequest(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestHealthReadyVersion(t *testing.T) {
	s := newTestServer(t)
	h := s.Routes()

	rec := doRequest(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(h, http.MethodGet, "/version", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Contains(t, info, "version")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := doRequest(s.Routes(), http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "solve_duration_seconds")
}
