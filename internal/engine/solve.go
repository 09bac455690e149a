package engine

import (
	"context"
	"runtime"
	"sync"
	"time"

	"routesmith/internal/vrp"
)

// Options tunes one solver run.
type Options struct {
	// Threads caps the number of concurrent workers. Zero means the
	// default; negative means GOMAXPROCS.
	Threads int

	// Exploration selects how many heuristic seeds to try, 0 to 5.
	Exploration int

	// Timeout bounds the whole solve. Zero means unbounded.
	Timeout time.Duration
}

func (o Options) threads() int {
	switch {
	case o.Threads == 0:
		return vrp.DefaultThreads
	case o.Threads < 0:
		return runtime.GOMAXPROCS(0)
	}
	return o.Threads
}

// Solve runs every heuristic seed of the exploration level, each followed by
// local search, and returns the best solution found. Workers share the
// frozen model read-only and own their solutions exclusively. The result is
// deterministic for fixed input, options and seed list, regardless of
// thread count: candidates are ranked by objective first and seed order
// second.
func Solve(ctx context.Context, m *vrp.Model, opts Options) *Solution {
	deadline := time.Time{}
	if opts.Timeout > 0 {
		deadline = time.Now().Add(opts.Timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}

	params := ParameterSets(m, opts.Exploration)
	results := make([]*Solution, len(params))

	workers := min(opts.threads(), len(params))
	idx := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range idx {
				results[i] = runSeed(m, params[i], deadline)
			}
		}()
	}
	for i := range params {
		if ctx.Err() != nil {
			break
		}
		idx <- i
	}
	close(idx)
	wg.Wait()

	var best *Solution
	var bestInd Indicators
	for _, s := range results {
		if s == nil {
			continue
		}
		if ind := s.Indicators(); best == nil || ind.BetterThan(bestInd) {
			best = s
			bestInd = ind
		}
	}
	if best == nil {
		// Cancelled before any worker finished; an empty solution still
		// reports every task as unassigned.
		best = NewSolution(m, NewEvaluator(m))
	}
	return best
}

func runSeed(m *vrp.Model, p Parameters, deadline time.Time) *Solution {
	e := NewEvaluator(m)
	s := NewSolution(m, e)
	RunHeuristic(e, s, p, deadline)
	NewLocalSearch(e, s, deadline).Run()
	return s
}
