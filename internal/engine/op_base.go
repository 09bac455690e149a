package engine

import (
	"sort"

	"routesmith/internal/vrp"
)

// Gain scores a move. Priority counts evicted-vs-inserted task priority
// (positive is better); Cost is the scaled cost delta (negative is better).
// Priority dominates cost.
type Gain struct {
	Priority int64
	Cost     int64
}

// Improving reports whether applying the move strictly improves the
// solution in the lexicographic objective.
func (g Gain) Improving() bool {
	if g.Priority != 0 {
		return g.Priority > 0
	}
	return g.Cost < 0
}

// BetterThan orders gains, best first.
func (g Gain) BetterThan(o Gain) bool {
	if g.Priority != o.Priority {
		return g.Priority > o.Priority
	}
	return g.Cost < o.Cost
}

// opKind tags the closed operator set. Names are stable identifiers used in
// search logs.
type opKind uint8

const (
	opUnassignedExchange opKind = iota
	opCrossExchange
	opMixedExchange
	opTwoOpt
	opReverseTwoOpt
	opRelocate
	opOrOpt
	opIntraExchange
	opIntraCrossExchange
	opIntraMixedExchange
	opIntraRelocate
	opIntraOrOpt
	opIntraTwoOpt
	opPDShift
	opRouteExchange
	opSwapStar
	opRouteSplit
	opPriorityReplace
	opTSPFix
	opKindCount
)

var opNames = [opKindCount]string{
	"UnassignedExchange",
	"CrossExchange",
	"MixedExchange",
	"TwoOpt",
	"ReverseTwoOpt",
	"Relocate",
	"OrOpt",
	"IntraExchange",
	"IntraCrossExchange",
	"IntraMixedExchange",
	"IntraRelocate",
	"IntraOrOpt",
	"IntraTwoOpt",
	"PDShift",
	"RouteExchange",
	"SwapStar",
	"RouteSplit",
	"PriorityReplace",
	"TSPFix",
}

func (k opKind) String() string { return opNames[k] }

// Move is a fully resolved candidate mutation: the replacement step lists of
// every touched route, plus the gain the search ranked it by.
type Move struct {
	Kind opKind
	Src  int
	Tgt  int
	Gain Gain

	changes  map[int][]Step
	versions map[int]int
}

func newMove(s *Solution, kind opKind, src, tgt int, g Gain, changes map[int][]Step) Move {
	m := Move{Kind: kind, Src: src, Tgt: tgt, Gain: g,
		changes: changes, versions: make(map[int]int, len(changes))}
	for v := range changes {
		m.versions[v] = s.Routes[v].Version
	}
	return m
}

// Valid reports whether the routes the move was computed against are
// untouched since.
func (m *Move) Valid(s *Solution) bool {
	for v, ver := range m.versions {
		if s.Routes[v].Version != ver {
			return false
		}
	}
	return true
}

// Apply commits the move. The caller must have checked Valid.
func (m *Move) Apply(e *Evaluator, s *Solution) {
	s.ApplyRouteSteps(e, m.changes)
}

// UpdatedRoutes lists the touched route ids in ascending order.
func (m *Move) UpdatedRoutes() []int {
	out := make([]int, 0, len(m.versions))
	for v := range m.versions {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// jobsOnly reports whether the [i, i+n) segment carries no break step, so
// it can move to another vehicle.
func jobsOnly(steps []Step, i, n int) bool {
	for _, s := range steps[i : i+n] {
		if s.Kind != StepJob {
			return false
		}
	}
	return true
}

func cloneSteps(steps []Step) []Step {
	return append(make([]Step, 0, len(steps)), steps...)
}

// withoutSegment copies steps minus the [i, i+n) window.
func withoutSegment(steps []Step, i, n int) []Step {
	out := make([]Step, 0, len(steps)-n)
	out = append(out, steps[:i]...)
	return append(out, steps[i+n:]...)
}

// withSegment copies steps with seg inserted before position pos.
func withSegment(steps []Step, pos int, seg ...Step) []Step {
	out := make([]Step, 0, len(steps)+len(seg))
	out = append(out, steps[:pos]...)
	out = append(out, seg...)
	return append(out, steps[pos:]...)
}

// bestSeqInsert finds the cheapest feasible position for a segment inside a
// candidate sequence, returning the resulting sequence and its cost.
func bestSeqInsert(e *Evaluator, v int, base []Step, seg ...Step) ([]Step, int64, bool) {
	var best []Step
	var bestCost int64
	found := false
	for pos := 0; pos <= len(base); pos++ {
		cand := withSegment(base, pos, seg...)
		mt := e.Steps(v, cand)
		if mt.OK && (!found || mt.Cost < bestCost) {
			best, bestCost, found = cand, mt.Cost, true
		}
	}
	return best, bestCost, found
}

// bestSeqInsertPair finds the cheapest feasible (pickup, delivery) placement
// inside a candidate sequence.
func bestSeqInsertPair(e *Evaluator, v int, base []Step, pickup, delivery int) ([]Step, int64, bool) {
	var best []Step
	var bestCost int64
	found := false
	for posP := 0; posP <= len(base); posP++ {
		withP := withSegment(base, posP, Step{Kind: StepJob, Rank: pickup})
		for posD := posP + 1; posD <= len(withP); posD++ {
			cand := withSegment(withP, posD, Step{Kind: StepJob, Rank: delivery})
			mt := e.Steps(v, cand)
			if mt.OK && (!found || mt.Cost < bestCost) {
				best, bestCost, found = cand, mt.Cost, true
			}
		}
	}
	return best, bestCost, found
}

// unitSteps returns the steps an unassigned unit contributes: one for a
// single job, two for a shipment.
func unitSteps(m *vrp.Model, rank int) []Step {
	if d := m.DeliveryOf[rank]; d >= 0 {
		return []Step{{Kind: StepJob, Rank: rank}, {Kind: StepJob, Rank: d}}
	}
	return []Step{{Kind: StepJob, Rank: rank}}
}

// unitPriority sums the priority of a unit (both halves for a shipment).
func unitPriority(m *vrp.Model, rank int) int64 {
	p := int64(m.Jobs[rank].Priority)
	if d := m.DeliveryOf[rank]; d >= 0 {
		p += int64(m.Jobs[d].Priority)
	}
	return p
}
