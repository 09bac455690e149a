package engine

import "routesmith/internal/vrp"

// StepKind discriminates route elements. Vehicle start and end are implicit:
// a route only stores the serviced steps between them.
type StepKind uint8

const (
	StepJob StepKind = iota
	StepBreak
)

// Step is one serviced element of a route: a job (by model rank) or a break
// (by index within the owning vehicle's break list).
type Step struct {
	Kind StepKind
	Rank int
}

// Metrics caches the aggregate outcome of evaluating a step sequence
// against one vehicle.
type Metrics struct {
	OK       bool
	Cost     int64 // scaled, includes the fixed cost when the route is used
	Travel   int64 // ticks
	Distance int64 // meters
	Setup    int64 // ticks
	Service  int64 // ticks
	Waiting  int64 // ticks
	End      int64 // completion time, ticks
}

// Route is the mutable ordered step sequence assigned to one vehicle.
// Metrics are recomputed on every mutation so evaluator queries against an
// unchanged route are O(1).
type Route struct {
	V       int
	Steps   []Step
	Metrics Metrics

	// Version increments on every mutation; pending moves check it before
	// applying.
	Version int
}

// NewRoute returns the empty route of vehicle v, pre-seeded with the
// vehicle's breaks in window order.
func NewRoute(v int, m *vrp.Model, e *Evaluator) *Route {
	r := &Route{V: v}
	for bi := range m.Vehicles[v].Breaks {
		r.Steps = append(r.Steps, Step{Kind: StepBreak, Rank: bi})
	}
	r.Recompute(e)
	return r
}

// JobCount returns the number of job steps.
func (r *Route) JobCount() int {
	n := 0
	for _, s := range r.Steps {
		if s.Kind == StepJob {
			n++
		}
	}
	return n
}

// Empty reports whether the route serves no job.
func (r *Route) Empty() bool { return r.JobCount() == 0 }

// HasBreaks reports whether the route carries break steps.
func (r *Route) HasBreaks() bool {
	for _, s := range r.Steps {
		if s.Kind == StepBreak {
			return true
		}
	}
	return false
}

// SetSteps replaces the whole sequence and recomputes caches.
func (r *Route) SetSteps(steps []Step, e *Evaluator) {
	r.Steps = steps
	r.Recompute(e)
}

// Insert places step s before position pos.
func (r *Route) Insert(pos int, s Step, e *Evaluator) {
	r.Steps = append(r.Steps, Step{})
	copy(r.Steps[pos+1:], r.Steps[pos:])
	r.Steps[pos] = s
	r.Recompute(e)
}

// Remove drops length consecutive steps starting at pos.
func (r *Route) Remove(pos, length int, e *Evaluator) {
	r.Steps = append(r.Steps[:pos], r.Steps[pos+length:]...)
	r.Recompute(e)
}

// ReplaceSegment substitutes the [pos, pos+length) window with steps.
func (r *Route) ReplaceSegment(pos, length int, steps []Step, e *Evaluator) {
	out := make([]Step, 0, len(r.Steps)-length+len(steps))
	out = append(out, r.Steps[:pos]...)
	out = append(out, steps...)
	out = append(out, r.Steps[pos+length:]...)
	r.Steps = out
	r.Recompute(e)
}

// Reverse flips the [i, j] segment in place.
func (r *Route) Reverse(i, j int, e *Evaluator) {
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		r.Steps[a], r.Steps[b] = r.Steps[b], r.Steps[a]
	}
	r.Recompute(e)
}

// Recompute rebuilds the cached metrics from scratch.
func (r *Route) Recompute(e *Evaluator) {
	r.Metrics = e.Steps(r.V, r.Steps)
	r.Version++
}
