package webhooks

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routesmith/internal/store"
)

func TestSignAndVerifyHMAC(t *testing.T) {
	body := []byte(`{"hello":"world"}`)
	sig := SignHMAC("s3cret", body)
	assert.Len(t, sig, 64)
	assert.True(t, VerifyHMAC("s3cret", body, sig))
	assert.False(t, VerifyHMAC("wrong", body, sig))
	assert.False(t, VerifyHMAC("s3cret", []byte("tampered"), sig))
	assert.False(t, VerifyHMAC("s3cret", body, "not-hex"))
}

func TestWorkerDeliversWithSignature(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	var gotBody []byte
	var gotSig, gotEvent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get("X-Signature")
		gotEvent = r.Header.Get("X-Event-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	payload := []byte(`{"id":"evt_1","type":"solve.completed"}`)
	_, err := st.EnqueueWebhook(ctx, "sub-1", EventSolveCompleted, srv.URL, "s3cret", payload)
	require.NoError(t, err)

	w := NewWorker(st)
	w.processOnce()

	assert.Equal(t, payload, gotBody)
	assert.Equal(t, EventSolveCompleted, gotEvent)
	assert.True(t, VerifyHMAC("s3cret", payload, gotSig))

	due, err := st.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "delivered webhook must not retry")
}

func TestWorkerRetriesOnServerError(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := st.EnqueueWebhook(ctx, "sub-1", EventSolveFailed, srv.URL, "", nil)
	require.NoError(t, err)

	w := NewWorker(st)
	w.processOnce()
	assert.Equal(t, 1, calls)

	// The retry is scheduled in the future, so nothing is due yet.
	due, err := st.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := st.EnqueueWebhook(ctx, "sub-1", EventSolveFailed, srv.URL, "", nil)
	require.NoError(t, err)

	w := NewWorker(st)
	w.MaxAttempts = 1
	w.processOnce()

	due, err := st.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "exhausted delivery is dead, not rescheduled")
}

func TestNextBackoff(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(0))
	assert.Equal(t, 2*time.Second, nextBackoff(1))
	assert.Equal(t, 32*time.Second, nextBackoff(5))
	assert.Equal(t, time.Hour, nextBackoff(20), "backoff caps at one hour")
	assert.Equal(t, time.Second, nextBackoff(-4))
}

func TestPublisherFansOut(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	_, err := st.CreateSubscription(ctx, store.Subscription{URL: "https://a.example/hook", Events: []string{EventSolveCompleted}})
	require.NoError(t, err)
	_, err = st.CreateSubscription(ctx, store.Subscription{URL: "https://b.example/hook", Events: []string{"*"}})
	require.NoError(t, err)
	_, err = st.CreateSubscription(ctx, store.Subscription{URL: "https://c.example/hook", Events: []string{EventSolveFailed}})
	require.NoError(t, err)

	NewPublisher(st).Emit(ctx, EventSolveCompleted, map[string]any{"id": "s1"})

	due, err := st.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)

	var env struct {
		ID   string         `json:"id"`
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(due[0].Payload, &env))
	assert.Contains(t, env.ID, "evt_")
	assert.Equal(t, EventSolveCompleted, env.Type)
	assert.Equal(t, "s1", env.Data["id"])
}
