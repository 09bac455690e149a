// Package store persists solve jobs, webhook subscriptions and webhook
// deliveries. Two implementations exist: in-memory for development and
// tests, Postgres for production.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Solve job statuses.
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

// SolveJob is one asynchronous solve request and its lifecycle.
type SolveJob struct {
	ID          string          `json:"id"`
	Status      string          `json:"status"`
	Problem     json.RawMessage `json:"-"`
	Solution    json.RawMessage `json:"solution,omitempty"`
	Error       string          `json:"error,omitempty"`
	Threads     int             `json:"threads,omitempty"`
	Exploration int             `json:"exploration,omitempty"`
	TimeoutMs   int             `json:"timeout_ms,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	FinishedAt  *time.Time      `json:"finished_at,omitempty"`
}

// Subscription asks for webhook notifications on the named event types.
type Subscription struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Events    []string  `json:"events"`
	CreatedAt time.Time `json:"created_at"`
}

// WebhookDelivery is one pending or settled webhook POST.
type WebhookDelivery struct {
	ID             string
	SubscriptionID string
	EventType      string
	URL            string
	Secret         string
	Payload        []byte
	Status         string
	Attempts       int
}

// Store is the persistence interface used by the API server and the
// background workers.
type Store interface {
	// Solve jobs
	CreateSolve(ctx context.Context, job SolveJob) error
	GetSolve(ctx context.Context, id string) (SolveJob, error)
	ListSolves(ctx context.Context, cursor string, limit int) ([]SolveJob, string, error)
	// ClaimQueuedSolve atomically moves the oldest queued job to running.
	ClaimQueuedSolve(ctx context.Context) (SolveJob, bool, error)
	FinishSolve(ctx context.Context, id string, solution json.RawMessage, errMsg string) error

	// Subscriptions
	CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
	ListSubscriptions(ctx context.Context) ([]Subscription, error)
	DeleteSubscription(ctx context.Context, id string) error
	SubscriptionsForEvent(ctx context.Context, eventType string) ([]Subscription, error)

	// Webhook deliveries
	EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error)
	FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error)
	MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error
	FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error

	Ping(ctx context.Context) error
	Close()
}

var ErrNotFound = errors.New("not found")
