package api

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"routesmith/internal/metrics"
	"routesmith/internal/solver"
	"routesmith/internal/store"
	"routesmith/internal/vrp"
	"routesmith/internal/webhooks"
)

// SolveWorker drains queued solve jobs in the background.
type SolveWorker struct {
	srv  *Server
	Stop chan struct{}
}

func NewSolveWorker(s *Server) *SolveWorker {
	return &SolveWorker{srv: s, Stop: make(chan struct{})}
}

// Start claims and runs queued jobs until Stop is closed.
func (w *SolveWorker) Start() {
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-w.Stop:
				return
			case <-ticker.C:
				for w.runOne() {
				}
			}
		}
	}()
}

// runOne claims one queued job and reports whether it found any.
func (w *SolveWorker) runOne() bool {
	ctx := context.Background()
	job, ok, err := w.srv.Store.ClaimQueuedSolve(ctx)
	if err != nil {
		log.Printf("solve worker: claim: %v", err)
		return false
	}
	if !ok {
		return false
	}

	w.srv.Broker.Publish(job.ID, SSEEvent{
		Type: "solve.started",
		Data: map[string]any{"id": job.ID, "status": store.StatusRunning},
	})

	opts := solver.Options{
		Threads:     job.Threads,
		Exploration: job.Exploration,
		Timeout:     time.Duration(job.TimeoutMs) * time.Millisecond,
		Provider:    w.srv.Provider,
	}
	start := time.Now()
	out, err := solver.Solve(ctx, job.Problem, opts)
	metrics.SolveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Solves.WithLabelValues("failed").Inc()
		if ferr := w.srv.Store.FinishSolve(ctx, job.ID, nil, err.Error()); ferr != nil {
			log.Printf("solve worker: finish %s: %v", job.ID, ferr)
		}
		w.srv.Broker.Publish(job.ID, SSEEvent{
			Type: "solve.failed",
			Data: map[string]any{"id": job.ID, "status": store.StatusFailed, "error": err.Error()},
		})
		w.srv.Pub.Emit(ctx, webhooks.EventSolveFailed, map[string]any{"id": job.ID, "error": err.Error()})
		return true
	}

	if out.Code == vrp.CodeNoSolution {
		metrics.Solves.WithLabelValues("no_solution").Inc()
	} else {
		metrics.Solves.WithLabelValues("done").Inc()
	}
	metrics.SolveUnassigned.Observe(float64(out.Summary.Unassigned))

	solution, _ := json.Marshal(out)
	if ferr := w.srv.Store.FinishSolve(ctx, job.ID, solution, ""); ferr != nil {
		log.Printf("solve worker: finish %s: %v", job.ID, ferr)
	}
	w.srv.Broker.Publish(job.ID, SSEEvent{
		Type: "solve.completed",
		Data: map[string]any{
			"id":         job.ID,
			"status":     store.StatusDone,
			"code":       out.Code,
			"cost":       out.Summary.Cost,
			"routes":     out.Summary.Routes,
			"unassigned": out.Summary.Unassigned,
		},
	})
	w.srv.Pub.Emit(ctx, webhooks.EventSolveCompleted, map[string]any{
		"id":         job.ID,
		"code":       out.Code,
		"cost":       out.Summary.Cost,
		"routes":     out.Summary.Routes,
		"unassigned": out.Summary.Unassigned,
	})
	return true
}
