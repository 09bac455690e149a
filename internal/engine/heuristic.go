package engine

import (
	"sort"
	"time"

	"routesmith/internal/vrp"
)

func deadlineExceeded(deadline time.Time) bool {
	return !deadline.IsZero() && time.Now().After(deadline)
}

// insertionChoice is the outcome of searching insertion spots for one task.
type insertionChoice struct {
	ok    bool
	delta int64
	v     int
	pos   int
	posD  int // delivery position for shipment pairs, unused otherwise
}

// unitRanks lists the insertable unassigned units in rank order: single jobs
// and shipment pickups. Deliveries ride along with their pickup; withheld
// pins never come back.
func unitRanks(s *Solution) []int {
	ranks := s.UnassignedRanks()
	out := ranks[:0]
	for _, rank := range ranks {
		if s.M.Jobs[rank].Type == vrp.JobDelivery {
			continue
		}
		if _, held := s.withheld[rank]; held {
			continue
		}
		out = append(out, rank)
	}
	return out
}

// bestInsertionIn finds the cheapest feasible spot for a unit inside one
// route, or ok == false when none exists.
func bestInsertionIn(e *Evaluator, s *Solution, rank, v int) insertionChoice {
	best := insertionChoice{v: v}
	if !s.M.Compatible(v, rank) {
		return best
	}
	r := s.Routes[v]
	d := s.M.DeliveryOf[rank]
	if d >= 0 {
		if !s.M.Compatible(v, d) {
			return best
		}
		for posP := 0; posP <= len(r.Steps); posP++ {
			for posD := posP; posD <= len(r.Steps); posD++ {
				delta, ok := e.InsertPair(r, rank, d, posP, posD)
				if ok && (!best.ok || delta < best.delta) {
					best = insertionChoice{ok: true, delta: delta, v: v, pos: posP, posD: posD}
				}
			}
		}
		return best
	}
	for pos := 0; pos <= len(r.Steps); pos++ {
		delta, ok := e.Insert(r, rank, pos)
		if ok && (!best.ok || delta < best.delta) {
			best = insertionChoice{ok: true, delta: delta, v: v, pos: pos}
		}
	}
	return best
}

// bestInsertion searches every route for the cheapest feasible spot.
func bestInsertion(e *Evaluator, s *Solution, rank int) insertionChoice {
	best := insertionChoice{v: -1}
	for v := range s.Routes {
		c := bestInsertionIn(e, s, rank, v)
		if c.ok && (!best.ok || c.delta < best.delta) {
			best = c
		}
	}
	return best
}

// preferUnit breaks ties between equally priced candidate units: higher
// priority first, then lower task id.
func preferUnit(m *vrp.Model, a, b int) bool {
	ja, jb := &m.Jobs[a], &m.Jobs[b]
	if ja.Priority != jb.Priority {
		return ja.Priority > jb.Priority
	}
	return ja.ID < jb.ID
}

// RunHeuristic builds an initial solution in place according to one
// parameter set. It stops early when the deadline passes; the solution is
// valid (possibly partial) at any interruption point.
func RunHeuristic(e *Evaluator, s *Solution, p Parameters, deadline time.Time) {
	switch p.Heuristic {
	case HeuristicInitRoutes:
		runInitRoutes(e, s, deadline)
		runBasic(e, s, deadline)
	case HeuristicDynamic:
		seedRoutes(e, s, p, deadline)
		runDynamic(e, s, p.RegretCoeff, deadline)
	default:
		seedRoutes(e, s, p, deadline)
		runBasic(e, s, deadline)
	}
}

// runBasic repeatedly inserts the globally cheapest (unit, route, position)
// until nothing fits.
func runBasic(e *Evaluator, s *Solution, deadline time.Time) {
	for {
		if deadlineExceeded(deadline) {
			return
		}
		bestRank := -1
		var best insertionChoice
		for _, rank := range unitRanks(s) {
			c := bestInsertion(e, s, rank)
			if !c.ok {
				continue
			}
			if bestRank < 0 || c.delta < best.delta ||
				(c.delta == best.delta && preferUnit(s.M, rank, bestRank)) {
				bestRank, best = rank, c
			}
		}
		if bestRank < 0 {
			return
		}
		s.Assign(e, bestRank, best.v, best.pos, best.posD)
	}
}

// runDynamic is regret insertion: each round scores every unit by how much
// it stands to lose if not placed now (gap between its best spot and its
// spots elsewhere), weighted by coeff, minus its best insertion cost.
func runDynamic(e *Evaluator, s *Solution, coeff float64, deadline time.Time) {
	for {
		if deadlineExceeded(deadline) {
			return
		}
		bestRank := -1
		var bestChoice insertionChoice
		var bestScore float64
		for _, rank := range unitRanks(s) {
			var perRoute []int64
			best := insertionChoice{v: -1}
			for v := range s.Routes {
				c := bestInsertionIn(e, s, rank, v)
				if !c.ok {
					continue
				}
				perRoute = append(perRoute, c.delta)
				if !best.ok || c.delta < best.delta {
					best = c
				}
			}
			if !best.ok {
				continue
			}
			var regret int64
			for _, d := range perRoute {
				regret += d - best.delta
			}
			score := coeff*float64(regret) - float64(best.delta)
			if bestRank < 0 || score > bestScore ||
				(score == bestScore && preferUnit(s.M, rank, bestRank)) {
				bestRank, bestChoice, bestScore = rank, best, score
			}
		}
		if bestRank < 0 {
			return
		}
		s.Assign(e, bestRank, bestChoice.v, bestChoice.pos, bestChoice.posD)
	}
}

// seedRoutes gives each empty route a first task chosen by the init policy.
// Vehicles are visited in the order the sort policy dictates.
func seedRoutes(e *Evaluator, s *Solution, p Parameters, deadline time.Time) {
	if p.Init == InitNone {
		return
	}
	order := make([]int, len(s.Routes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := &s.M.Vehicles[order[a]], &s.M.Vehicles[order[b]]
		switch p.Sort {
		case SortCost:
			if va.Costs.Fixed != vb.Costs.Fixed {
				return va.Costs.Fixed < vb.Costs.Fixed
			}
		default:
			if va.TW.Start != vb.TW.Start {
				return va.TW.Start < vb.TW.Start
			}
		}
		return va.ID < vb.ID
	})

	for _, v := range order {
		if deadlineExceeded(deadline) {
			return
		}
		if !s.Routes[v].Empty() {
			continue
		}
		cands := unitRanks(s)
		sort.SliceStable(cands, func(a, b int) bool {
			ka, kb := seedKey(e, s.M, p.Init, v, cands[a]), seedKey(e, s.M, p.Init, v, cands[b])
			if ka != kb {
				return ka < kb
			}
			return s.M.Jobs[cands[a]].ID < s.M.Jobs[cands[b]].ID
		})
		for _, rank := range cands {
			c := bestInsertionIn(e, s, rank, v)
			if c.ok {
				s.Assign(e, rank, v, c.pos, c.posD)
				break
			}
		}
	}
}

// seedKey orders seed candidates, smaller first.
func seedKey(e *Evaluator, m *vrp.Model, init InitPolicy, v, rank int) int64 {
	j := &m.Jobs[rank]
	switch init {
	case InitHigherAmount:
		return -(j.Pickup.Total() + j.Delivery.Total())
	case InitNearest, InitFurthest:
		start := m.Vehicles[v].Start
		if start == nil {
			return 0
		}
		d := m.Eval(v).Duration(start.Index, j.Location.Index)
		if init == InitFurthest {
			return -d
		}
		return d
	case InitEarliestDeadline:
		wins := e.Windows(rank)
		if len(wins) == 0 {
			return vrp.InfiniteCost
		}
		return wins[len(wins)-1].End
	}
	return 0
}

// runInitRoutes materializes user-forced routes. A forced sequence that the
// vehicle cannot serve is skipped whole, leaving its tasks unassigned.
func runInitRoutes(e *Evaluator, s *Solution, deadline time.Time) {
	for v := range s.M.Vehicles {
		if deadlineExceeded(deadline) {
			return
		}
		veh := &s.M.Vehicles[v]
		if len(veh.Steps) == 0 {
			continue
		}
		steps, ok := forcedSteps(s.M, v)
		if !ok {
			continue
		}
		if mt := e.Steps(v, steps); !mt.OK {
			continue
		}
		s.ApplyRouteSteps(e, map[int][]Step{v: steps})
	}
}

// withheldPins collects the jobs pinned to forced routes their vehicle
// cannot serve as ordered. Such a route is inapplicable as a whole and its
// tasks are left unassigned rather than reinserted in some other order.
func withheldPins(m *vrp.Model, e *Evaluator) map[int]struct{} {
	var out map[int]struct{}
	for v := range m.Vehicles {
		if len(m.Vehicles[v].Steps) == 0 {
			continue
		}
		if steps, ok := forcedSteps(m, v); ok {
			if mt := e.Steps(v, steps); mt.OK {
				continue
			}
		}
		for rank, pin := range m.Pinned {
			if pin.Vehicle != v {
				continue
			}
			if out == nil {
				out = map[int]struct{}{}
			}
			out[rank] = struct{}{}
			if d := m.DeliveryOf[rank]; d >= 0 {
				out[d] = struct{}{}
			}
			if p := m.PickupOf[rank]; p >= 0 {
				out[p] = struct{}{}
			}
		}
	}
	return out
}

// forcedSteps translates a vehicle's user step list into engine steps.
// Breaks not named in the list are appended at the end.
func forcedSteps(m *vrp.Model, v int) ([]Step, bool) {
	veh := &m.Vehicles[v]
	var steps []Step
	usedBreaks := make([]bool, len(veh.Breaks))
	for _, st := range veh.Steps {
		switch st.Type {
		case vrp.StepStart, vrp.StepEnd:
			continue
		case vrp.StepBreak:
			found := false
			for bi := range veh.Breaks {
				if veh.Breaks[bi].ID == st.ID && !usedBreaks[bi] {
					usedBreaks[bi] = true
					steps = append(steps, Step{Kind: StepBreak, Rank: bi})
					found = true
					break
				}
			}
			if !found {
				return nil, false
			}
		default:
			typ := vrp.JobSingle
			if st.Type == vrp.StepPickup {
				typ = vrp.JobPickup
			} else if st.Type == vrp.StepDelivery {
				typ = vrp.JobDelivery
			}
			rank, ok := m.JobRank(typ, st.ID)
			if !ok {
				return nil, false
			}
			steps = append(steps, Step{Kind: StepJob, Rank: rank})
		}
	}
	for bi := range veh.Breaks {
		if !usedBreaks[bi] {
			steps = append(steps, Step{Kind: StepBreak, Rank: bi})
		}
	}
	return steps, true
}
