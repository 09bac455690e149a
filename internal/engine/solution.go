package engine

import (
	"sort"

	"routesmith/internal/vrp"
)

// Indicators rank candidate solutions: assigned priority first, then
// assignment count, then cost, then number of used vehicles.
type Indicators struct {
	Priority int64
	Assigned int
	Cost     int64
	Routes   int
}

// BetterThan reports strict dominance in the lexicographic objective order.
func (a Indicators) BetterThan(b Indicators) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.Assigned != b.Assigned {
		return a.Assigned > b.Assigned
	}
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.Routes < b.Routes
}

// Solution owns one route per vehicle plus the assignment map. Each search
// worker holds its own Solution; the model behind it is shared read-only.
type Solution struct {
	M      *vrp.Model
	Routes []*Route

	// VehicleOf maps job rank to its route, -1 when unassigned.
	VehicleOf  []int
	Unassigned map[int]struct{}

	// withheld holds jobs pinned to a forced route the vehicle cannot
	// serve as ordered. They stay unassigned: inserting them anywhere
	// else would silently rewrite the user's sequence.
	withheld map[int]struct{}
}

// NewSolution starts with every job unassigned and every route holding only
// its vehicle's breaks.
func NewSolution(m *vrp.Model, e *Evaluator) *Solution {
	s := &Solution{
		M:          m,
		Routes:     make([]*Route, len(m.Vehicles)),
		VehicleOf:  make([]int, len(m.Jobs)),
		Unassigned: make(map[int]struct{}, len(m.Jobs)),
	}
	for v := range m.Vehicles {
		s.Routes[v] = NewRoute(v, m, e)
	}
	for rank := range m.Jobs {
		s.VehicleOf[rank] = -1
		s.Unassigned[rank] = struct{}{}
	}
	s.withheld = withheldPins(m, e)
	return s
}

// Cost is the scaled total over all routes.
func (s *Solution) Cost() int64 {
	var c int64
	for _, r := range s.Routes {
		c += r.Metrics.Cost
	}
	return c
}

// Indicators computes the objective tuple of the current state.
func (s *Solution) Indicators() Indicators {
	ind := Indicators{Cost: s.Cost()}
	for rank, v := range s.VehicleOf {
		if v < 0 {
			continue
		}
		ind.Assigned++
		ind.Priority += int64(s.M.Jobs[rank].Priority)
	}
	for _, r := range s.Routes {
		if !r.Empty() {
			ind.Routes++
		}
	}
	return ind
}

// UnassignedRanks returns the unassigned job ranks in ascending order.
func (s *Solution) UnassignedRanks() []int {
	ranks := make([]int, 0, len(s.Unassigned))
	for rank := range s.Unassigned {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	return ranks
}

// ApplyRouteSteps replaces the step lists of the given routes and reconciles
// the assignment map: jobs present in the new lists are assigned, jobs that
// vanished from them become unassigned.
func (s *Solution) ApplyRouteSteps(e *Evaluator, changes map[int][]Step) {
	before := map[int]struct{}{}
	for v := range changes {
		for _, st := range s.Routes[v].Steps {
			if st.Kind == StepJob {
				before[st.Rank] = struct{}{}
			}
		}
	}
	for v, steps := range changes {
		s.Routes[v].SetSteps(steps, e)
	}
	for v := range changes {
		for _, st := range s.Routes[v].Steps {
			if st.Kind != StepJob {
				continue
			}
			s.VehicleOf[st.Rank] = v
			delete(s.Unassigned, st.Rank)
			delete(before, st.Rank)
		}
	}
	for rank := range before {
		s.VehicleOf[rank] = -1
		s.Unassigned[rank] = struct{}{}
	}
}

// Assign inserts a single job (or a shipment pair when rank is a pickup)
// into route v at the given positions and updates the assignment map.
func (s *Solution) Assign(e *Evaluator, rank, v, pos, posD int) {
	r := s.Routes[v]
	if d := s.M.DeliveryOf[rank]; d >= 0 {
		steps := spliceSteps(nil, r.Steps, posD, 0, Step{Kind: StepJob, Rank: d})
		steps = spliceSteps(make([]Step, 0, len(steps)+1), steps, pos, 0, Step{Kind: StepJob, Rank: rank})
		r.SetSteps(steps, e)
		s.VehicleOf[d] = v
		delete(s.Unassigned, d)
	} else {
		r.Insert(pos, Step{Kind: StepJob, Rank: rank}, e)
	}
	s.VehicleOf[rank] = v
	delete(s.Unassigned, rank)
}

// PositionOf locates an assigned job inside its route.
func (s *Solution) PositionOf(rank int) (v, pos int, ok bool) {
	v = s.VehicleOf[rank]
	if v < 0 {
		return -1, -1, false
	}
	for i, st := range s.Routes[v].Steps {
		if st.Kind == StepJob && st.Rank == rank {
			return v, i, true
		}
	}
	return -1, -1, false
}
