package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is the in-process Store used when no DATABASE_URL is configured.
type Memory struct {
	mu         sync.Mutex
	solves     map[string]*SolveJob
	subs       map[string]*Subscription
	deliveries map[string]*memDelivery
}

type memDelivery struct {
	WebhookDelivery
	NextAttemptAt time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		solves:     map[string]*SolveJob{},
		subs:       map[string]*Subscription{},
		deliveries: map[string]*memDelivery{},
	}
}

func (m *Memory) CreateSolve(_ context.Context, job SolveJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := job
	m.solves[job.ID] = &cp
	return nil
}

func (m *Memory) GetSolve(_ context.Context, id string) (SolveJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.solves[id]
	if !ok {
		return SolveJob{}, ErrNotFound
	}
	return *j, nil
}

func (m *Memory) ListSolves(_ context.Context, cursor string, limit int) ([]SolveJob, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	all := make([]*SolveJob, 0, len(m.solves))
	for _, j := range m.solves {
		all = append(all, j)
	}
	sort.Slice(all, func(a, b int) bool {
		if !all[a].CreatedAt.Equal(all[b].CreatedAt) {
			return all[a].CreatedAt.Before(all[b].CreatedAt)
		}
		return all[a].ID < all[b].ID
	})
	start := 0
	if cursor != "" {
		for i, j := range all {
			if j.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	out := make([]SolveJob, 0, end-start)
	for _, j := range all[start:end] {
		out = append(out, *j)
	}
	next := ""
	if end < len(all) && end > start {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (m *Memory) ClaimQueuedSolve(_ context.Context) (SolveJob, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var oldest *SolveJob
	for _, j := range m.solves {
		if j.Status != StatusQueued {
			continue
		}
		if oldest == nil || j.CreatedAt.Before(oldest.CreatedAt) ||
			(j.CreatedAt.Equal(oldest.CreatedAt) && j.ID < oldest.ID) {
			oldest = j
		}
	}
	if oldest == nil {
		return SolveJob{}, false, nil
	}
	now := time.Now().UTC()
	oldest.Status = StatusRunning
	oldest.StartedAt = &now
	return *oldest, true, nil
}

func (m *Memory) FinishSolve(_ context.Context, id string, solution json.RawMessage, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.solves[id]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	j.FinishedAt = &now
	if errMsg != "" {
		j.Status = StatusFailed
		j.Error = errMsg
		return nil
	}
	j.Status = StatusDone
	j.Solution = solution
	return nil
}

func (m *Memory) CreateSubscription(_ context.Context, sub Subscription) (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	cp := sub
	m.subs[sub.ID] = &cp
	return sub, nil
}

func (m *Memory) ListSubscriptions(_ context.Context) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Subscription, 0, len(m.subs))
	for _, s := range m.subs {
		out = append(out, *s)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) DeleteSubscription(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return ErrNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *Memory) SubscriptionsForEvent(_ context.Context, eventType string) ([]Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Subscription
	for _, s := range m.subs {
		for _, ev := range s.Events {
			if ev == eventType || ev == "*" {
				out = append(out, *s)
				break
			}
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *Memory) EnqueueWebhook(_ context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.NewString()
	m.deliveries[id] = &memDelivery{
		WebhookDelivery: WebhookDelivery{
			ID:             id,
			SubscriptionID: subscriptionID,
			EventType:      eventType,
			URL:            url,
			Secret:         secret,
			Payload:        payload,
			Status:         "pending",
		},
		NextAttemptAt: time.Now().UTC(),
	}
	return id, nil
}

func (m *Memory) FetchDueWebhookDeliveries(_ context.Context, limit int) ([]WebhookDelivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	var out []WebhookDelivery
	for _, d := range m.deliveries {
		if d.Status == "pending" && !d.NextAttemptAt.After(now) {
			out = append(out, d.WebhookDelivery)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) MarkWebhookDelivery(_ context.Context, id string, success bool, nextAttemptAt *time.Time, _ string, _ int, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	if success {
		d.Status = "delivered"
		return nil
	}
	if nextAttemptAt != nil {
		d.NextAttemptAt = *nextAttemptAt
	}
	return nil
}

func (m *Memory) FailWebhookDelivery(_ context.Context, id string, _ string, _ int, _ int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.deliveries[id]
	if !ok {
		return ErrNotFound
	}
	d.Attempts++
	d.Status = "failed"
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() {}
