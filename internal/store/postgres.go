package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to dsn and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	p := &Postgres{pool: pool}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS solve_jobs (
    id          TEXT PRIMARY KEY,
    status      TEXT NOT NULL,
    problem     JSONB NOT NULL,
    solution    JSONB,
    error       TEXT NOT NULL DEFAULT '',
    threads     INT NOT NULL DEFAULT 0,
    exploration INT NOT NULL DEFAULT 0,
    timeout_ms  INT NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL,
    started_at  TIMESTAMPTZ,
    finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS solve_jobs_queued ON solve_jobs (created_at) WHERE status = 'queued';

CREATE TABLE IF NOT EXISTS subscriptions (
    id         TEXT PRIMARY KEY,
    url        TEXT NOT NULL,
    secret     TEXT NOT NULL DEFAULT '',
    events     TEXT[] NOT NULL,
    created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_deliveries (
    id              TEXT PRIMARY KEY,
    subscription_id TEXT NOT NULL,
    event_type      TEXT NOT NULL,
    url             TEXT NOT NULL,
    secret          TEXT NOT NULL DEFAULT '',
    payload         BYTEA NOT NULL,
    status          TEXT NOT NULL DEFAULT 'pending',
    attempts        INT NOT NULL DEFAULT 0,
    next_attempt_at TIMESTAMPTZ NOT NULL,
    last_error      TEXT NOT NULL DEFAULT '',
    response_code   INT NOT NULL DEFAULT 0,
    latency_ms      INT NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS webhook_deliveries_due
    ON webhook_deliveries (next_attempt_at) WHERE status = 'pending';
`)
	return err
}

func (p *Postgres) CreateSolve(ctx context.Context, job SolveJob) error {
	_, err := p.pool.Exec(ctx, `
INSERT INTO solve_jobs (id, status, problem, threads, exploration, timeout_ms, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.Status, []byte(job.Problem), job.Threads, job.Exploration,
		job.TimeoutMs, job.CreatedAt)
	return err
}

const solveColumns = `id, status, problem, solution, error, threads, exploration,
timeout_ms, created_at, started_at, finished_at`

func scanSolve(row pgx.Row) (SolveJob, error) {
	var j SolveJob
	var problem, solution []byte
	err := row.Scan(&j.ID, &j.Status, &problem, &solution, &j.Error,
		&j.Threads, &j.Exploration, &j.TimeoutMs,
		&j.CreatedAt, &j.StartedAt, &j.FinishedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return j, ErrNotFound
	}
	if err != nil {
		return j, err
	}
	j.Problem = problem
	j.Solution = solution
	return j, nil
}

func (p *Postgres) GetSolve(ctx context.Context, id string) (SolveJob, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+solveColumns+` FROM solve_jobs WHERE id = $1`, id)
	return scanSolve(row)
}

func (p *Postgres) ListSolves(ctx context.Context, cursor string, limit int) ([]SolveJob, string, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var rows pgx.Rows
	var err error
	if cursor == "" {
		rows, err = p.pool.Query(ctx, `SELECT `+solveColumns+`
FROM solve_jobs ORDER BY created_at, id LIMIT $1`, limit+1)
	} else {
		rows, err = p.pool.Query(ctx, `SELECT `+solveColumns+`
FROM solve_jobs
WHERE (created_at, id) > (SELECT created_at, id FROM solve_jobs WHERE id = $1)
ORDER BY created_at, id LIMIT $2`, cursor, limit+1)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	var out []SolveJob
	for rows.Next() {
		j, err := scanSolve(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, j)
	}
	next := ""
	if len(out) > limit {
		out = out[:limit]
		next = out[len(out)-1].ID
	}
	return out, next, rows.Err()
}

func (p *Postgres) ClaimQueuedSolve(ctx context.Context) (SolveJob, bool, error) {
	row := p.pool.QueryRow(ctx, `
UPDATE solve_jobs SET status = $1, started_at = now()
WHERE id = (
    SELECT id FROM solve_jobs WHERE status = $2
    ORDER BY created_at, id LIMIT 1
    FOR UPDATE SKIP LOCKED
)
RETURNING `+solveColumns, StatusRunning, StatusQueued)
	j, err := scanSolve(row)
	if errors.Is(err, ErrNotFound) {
		return SolveJob{}, false, nil
	}
	if err != nil {
		return SolveJob{}, false, err
	}
	return j, true, nil
}

func (p *Postgres) FinishSolve(ctx context.Context, id string, solution json.RawMessage, errMsg string) error {
	status := StatusDone
	if errMsg != "" {
		status = StatusFailed
	}
	tag, err := p.pool.Exec(ctx, `
UPDATE solve_jobs SET status = $2, solution = $3, error = $4, finished_at = now()
WHERE id = $1`, id, status, []byte(solution), errMsg)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	_, err := p.pool.Exec(ctx, `
INSERT INTO subscriptions (id, url, secret, events, created_at)
VALUES ($1, $2, $3, $4, $5)`,
		sub.ID, sub.URL, sub.Secret, sub.Events, sub.CreatedAt)
	return sub, err
}

func (p *Postgres) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, url, secret, events, created_at FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &s.Events, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) SubscriptionsForEvent(ctx context.Context, eventType string) ([]Subscription, error) {
	rows, err := p.pool.Query(ctx, `
SELECT id, url, secret, events, created_at FROM subscriptions
WHERE $1 = ANY(events) OR '*' = ANY(events) ORDER BY id`, eventType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.ID, &s.URL, &s.Secret, &s.Events, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (p *Postgres) EnqueueWebhook(ctx context.Context, subscriptionID, eventType, url, secret string, payload []byte) (string, error) {
	id := uuid.NewString()
	_, err := p.pool.Exec(ctx, `
INSERT INTO webhook_deliveries (id, subscription_id, event_type, url, secret, payload, next_attempt_at)
VALUES ($1, $2, $3, $4, $5, $6, now())`,
		id, subscriptionID, eventType, url, secret, payload)
	return id, err
}

func (p *Postgres) FetchDueWebhookDeliveries(ctx context.Context, limit int) ([]WebhookDelivery, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.pool.Query(ctx, `
SELECT id, subscription_id, event_type, url, secret, payload, status, attempts
FROM webhook_deliveries
WHERE status = 'pending' AND next_attempt_at <= now()
ORDER BY next_attempt_at, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.SubscriptionID, &d.EventType, &d.URL,
			&d.Secret, &d.Payload, &d.Status, &d.Attempts); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkWebhookDelivery(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string, responseCode, latencyMs int) error {
	status := "pending"
	if success {
		status = "delivered"
	}
	tag, err := p.pool.Exec(ctx, `
UPDATE webhook_deliveries
SET status = $2, attempts = attempts + 1, next_attempt_at = COALESCE($3, next_attempt_at),
    last_error = $4, response_code = $5, latency_ms = $6
WHERE id = $1`, id, status, nextAttemptAt, lastError, responseCode, latencyMs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) FailWebhookDelivery(ctx context.Context, id string, lastError string, responseCode, latencyMs int) error {
	tag, err := p.pool.Exec(ctx, `
UPDATE webhook_deliveries
SET status = 'failed', attempts = attempts + 1,
    last_error = $2, response_code = $3, latency_ms = $4
WHERE id = $1`, id, lastError, responseCode, latencyMs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.pool.Ping(ctx) }

func (p *Postgres) Close() { p.pool.Close() }
