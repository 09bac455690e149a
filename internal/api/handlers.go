package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"routesmith/internal/buildinfo"
	"routesmith/internal/metrics"
	"routesmith/internal/solver"
	"routesmith/internal/store"
	"routesmith/internal/vrp"
)

const maxProblemBytes = 32 << 20

// solveOptions reads the per-request solver knobs from query parameters,
// falling back to the configured defaults.
func (s *Server) solveOptions(r *http.Request) solver.Options {
	opts := solver.Options{
		Threads:     s.Cfg.Threads,
		Exploration: s.Cfg.Exploration,
		Timeout:     s.Cfg.Timeout,
		Provider:    s.Provider,
	}
	q := r.URL.Query()
	if v := q.Get("threads"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Threads = n
		}
	}
	if v := q.Get("exploration"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= vrp.MaxExplorationLevel {
			opts.Exploration = n
		}
	}
	if v := q.Get("timeout_ms"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			opts.Timeout = time.Duration(n) * time.Millisecond
		}
	}
	return opts
}

// SolveHandler runs a problem document synchronously and returns the
// solution document.
func (s *Server) SolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	doc, err := io.ReadAll(io.LimitReader(r.Body, maxProblemBytes))
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Bad Request", "cannot read body", r.URL.Path)
		return
	}

	start := time.Now()
	out, err := solver.Solve(r.Context(), doc, s.solveOptions(r))
	metrics.SolveDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.Solves.WithLabelValues("failed").Inc()
		switch solver.ExitCode(out, err) {
		case vrp.CodeInput:
			writeProblem(w, http.StatusBadRequest, "Invalid Problem", err.Error(), r.URL.Path)
		case vrp.CodeRouting:
			writeProblem(w, http.StatusBadGateway, "Routing Failure", err.Error(), r.URL.Path)
		default:
			writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
		}
		return
	}
	if out.Code == vrp.CodeNoSolution {
		metrics.Solves.WithLabelValues("no_solution").Inc()
	} else {
		metrics.Solves.WithLabelValues("done").Inc()
	}
	metrics.SolveUnassigned.Observe(float64(out.Summary.Unassigned))
	writeJSON(w, http.StatusOK, out)
}

// SolvesHandler queues solves (POST) and lists them (GET).
func (s *Server) SolvesHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		doc, err := io.ReadAll(io.LimitReader(r.Body, maxProblemBytes))
		if err != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "cannot read body", r.URL.Path)
			return
		}
		// Reject malformed documents up front so queued jobs only fail on
		// solver-level causes.
		if _, err := vrp.ParseProblem(doc); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid Problem", err.Error(), r.URL.Path)
			return
		}
		opts := s.solveOptions(r)
		job := store.SolveJob{
			ID:          uuid.NewString(),
			Status:      store.StatusQueued,
			Problem:     doc,
			Threads:     opts.Threads,
			Exploration: opts.Exploration,
			TimeoutMs:   int(opts.Timeout / time.Millisecond),
			CreatedAt:   time.Now().UTC(),
		}
		if err := s.Store.CreateSolve(r.Context(), job); err != nil {
			writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusAccepted, job)
	case http.MethodGet:
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
				limit = n
			}
		}
		jobs, next, err := s.Store.ListSolves(r.Context(), r.URL.Query().Get("cursor"), limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"solves": jobs, "next_cursor": next})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
	}
}

// SolveByIDHandler serves /v1/solves/{id}, /v1/solves/{id}/solution,
// /v1/solves/{id}/stream and /v1/solves/{id}/ws.
func (s *Server) SolveByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/solves/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}

	switch sub {
	case "stream":
		s.streamSolve(w, r, id)
		return
	case "ws":
		s.wsSolve(w, r, id)
		return
	}

	if r.Method != http.MethodGet {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	job, err := s.Store.GetSolve(r.Context(), id)
	if err != nil {
		if err == store.ErrNotFound {
			writeProblem(w, http.StatusNotFound, "Not Found", "no such solve", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
		return
	}

	switch sub {
	case "":
		writeJSON(w, http.StatusOK, job)
	case "solution":
		if job.Status != store.StatusDone || len(job.Solution) == 0 {
			writeProblem(w, http.StatusConflict, "Not Ready", "solve is "+job.Status, r.URL.Path)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(job.Solution)
	default:
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
	}
}

type subscriptionRequest struct {
	URL    string   `json:"url"`
	Secret string   `json:"secret"`
	Events []string `json:"events"`
}

// SubscriptionsHandler creates (POST) and lists (GET) webhook subscriptions.
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req subscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Bad Request", err.Error(), r.URL.Path)
			return
		}
		if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
			writeProblem(w, http.StatusBadRequest, "Bad Request", "url must be http(s)", r.URL.Path)
			return
		}
		if len(req.Events) == 0 {
			req.Events = []string{"*"}
		}
		sub, err := s.Store.CreateSubscription(r.Context(), store.Subscription{
			URL:    req.URL,
			Secret: req.Secret,
			Events: req.Events,
		})
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		subs, err := s.Store.ListSubscriptions(r.Context())
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"subscriptions": subs})
	default:
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
	}
}

// SubscriptionByIDHandler deletes one subscription.
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if id == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		writeProblem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "", r.URL.Path)
		return
	}
	if err := s.Store.DeleteSubscription(r.Context(), id); err != nil {
		if err == store.ErrNotFound {
			writeProblem(w, http.StatusNotFound, "Not Found", "no such subscription", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Internal Error", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.Store.Ping(r.Context()); err != nil {
		writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Info())
}
