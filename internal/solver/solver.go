// Package solver ties parsing, matrix resolution and the search engine into
// one entry point shared by the CLI and the HTTP service.
package solver

import (
	"context"
	"errors"
	"time"

	"routesmith/internal/engine"
	"routesmith/internal/routing"
	"routesmith/internal/vrp"
)

// Options carries the per-request solver knobs.
type Options struct {
	Threads     int
	Exploration int
	Timeout     time.Duration

	// Provider resolves coordinate-only problems; nil is fine when the
	// document embeds its matrices.
	Provider routing.MatrixProvider
}

// DefaultOptions mirrors the solver's documented defaults.
func DefaultOptions() Options {
	return Options{
		Threads:     vrp.DefaultThreads,
		Exploration: vrp.DefaultExplorationLevel,
	}
}

// Solve runs a problem document end to end and returns the solution
// document. Errors are typed: *vrp.InputError for bad documents,
// *vrp.RoutingError for provider failures.
func Solve(ctx context.Context, doc []byte, opts Options) (*vrp.Output, error) {
	in, err := vrp.ParseProblem(doc)
	if err != nil {
		return nil, err
	}
	if err := routing.Resolve(ctx, in, opts.Provider); err != nil {
		return nil, err
	}
	m, err := in.Freeze()
	if err != nil {
		return nil, err
	}
	sol := engine.Solve(ctx, m, engine.Options{
		Threads:     opts.Threads,
		Exploration: opts.Exploration,
		Timeout:     opts.Timeout,
	})
	e := engine.NewEvaluator(m)
	return sol.Report(e), nil
}

// ExitCode maps a solve error (or nil) plus the produced output onto the
// CLI exit code contract.
func ExitCode(out *vrp.Output, err error) int {
	if err != nil {
		var inputErr *vrp.InputError
		if errors.As(err, &inputErr) {
			return vrp.CodeInput
		}
		var routingErr *vrp.RoutingError
		if errors.As(err, &routingErr) {
			return vrp.CodeRouting
		}
		return vrp.CodeInternal
	}
	if out != nil && out.Code == vrp.CodeNoSolution {
		return vrp.CodeNoSolution
	}
	return vrp.CodeOK
}
