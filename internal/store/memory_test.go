package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedSolves(t *testing.T, m *Memory, n int) {
	t.Helper()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, m.CreateSolve(context.Background(), SolveJob{
			ID:        fmt.Sprintf("job-%02d", i),
			Status:    StatusQueued,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
}

func TestMemorySolveLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateSolve(ctx, SolveJob{ID: "a", Status: StatusQueued, CreatedAt: time.Now()}))

	job, ok, err := m.ClaimQueuedSolve(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a", job.ID)
	assert.Equal(t, StatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	// Nothing else queued.
	_, ok, err = m.ClaimQueuedSolve(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.FinishSolve(ctx, "a", []byte(`{"code":0}`), ""))
	got, err := m.GetSolve(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusDone, got.Status)
	assert.JSONEq(t, `{"code":0}`, string(got.Solution))
	assert.NotNil(t, got.FinishedAt)
}

func TestMemoryFinishSolveFailure(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	require.NoError(t, m.CreateSolve(ctx, SolveJob{ID: "a", Status: StatusRunning, CreatedAt: time.Now()}))
	require.NoError(t, m.FinishSolve(ctx, "a", nil, "matrix provider down"))

	got, err := m.GetSolve(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "matrix provider down", got.Error)
}

func TestMemoryGetSolveNotFound(t *testing.T) {
	_, err := NewMemory().GetSolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClaimOldestFirst(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedSolves(t, m, 3)

	for _, want := range []string{"job-00", "job-01", "job-02"} {
		job, ok, err := m.ClaimQueuedSolve(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, want, job.ID)
	}
}

func TestMemoryListSolvesPagination(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	seedSolves(t, m, 5)

	page, next, err := m.ListSolves(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "job-00", page[0].ID)
	assert.Equal(t, "job-01", next)

	page, next, err = m.ListSolves(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "job-02", page[0].ID)
	assert.Equal(t, "job-03", next)

	page, next, err = m.ListSolves(ctx, next, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Empty(t, next, "last page has no cursor")
}

func TestMemorySubscriptions(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	sub, err := m.CreateSubscription(ctx, Subscription{URL: "https://example.com/hook", Events: []string{"solve.completed"}})
	require.NoError(t, err)
	assert.NotEmpty(t, sub.ID)
	assert.False(t, sub.CreatedAt.IsZero())

	star, err := m.CreateSubscription(ctx, Subscription{URL: "https://example.com/all", Events: []string{"*"}})
	require.NoError(t, err)

	subs, err := m.ListSubscriptions(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 2)

	matched, err := m.SubscriptionsForEvent(ctx, "solve.completed")
	require.NoError(t, err)
	assert.Len(t, matched, 2, "wildcard matches every event")

	matched, err = m.SubscriptionsForEvent(ctx, "solve.failed")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, star.ID, matched[0].ID)

	require.NoError(t, m.DeleteSubscription(ctx, sub.ID))
	assert.ErrorIs(t, m.DeleteSubscription(ctx, sub.ID), ErrNotFound)
}

func TestMemoryWebhookDeliveries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	id, err := m.EnqueueWebhook(ctx, "sub-1", "solve.completed", "https://example.com/hook", "s3cret", []byte(`{}`))
	require.NoError(t, err)

	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, id, due[0].ID)
	assert.Equal(t, "solve.completed", due[0].EventType)
	assert.Equal(t, "s3cret", due[0].Secret)

	// A failed attempt with a future retry leaves nothing due right now.
	later := time.Now().UTC().Add(time.Hour)
	require.NoError(t, m.MarkWebhookDelivery(ctx, id, false, &later, "status 500", 500, 12))
	due, err = m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	// Success settles the delivery for good.
	require.NoError(t, m.MarkWebhookDelivery(ctx, id, true, nil, "", 200, 8))
	due, err = m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestMemoryFailWebhookDelivery(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	id, err := m.EnqueueWebhook(ctx, "sub-1", "solve.failed", "https://example.com/hook", "", nil)
	require.NoError(t, err)

	require.NoError(t, m.FailWebhookDelivery(ctx, id, "gave up", 503, 40))
	due, err := m.FetchDueWebhookDeliveries(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, due, "failed deliveries never come due again")
}

func TestMemoryFetchDueHonorsLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	for i := 0; i < 5; i++ {
		_, err := m.EnqueueWebhook(ctx, "sub", "ev", "https://example.com", "", nil)
		require.NoError(t, err)
	}
	due, err := m.FetchDueWebhookDeliveries(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, due, 3)
}
