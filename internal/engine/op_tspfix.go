package engine

import "routesmith/internal/vrp"

// searchTSPFix re-sequences one route's jobs by travel duration alone:
// nearest-neighbor construction then first-improvement 2-opt, anchored at
// the vehicle's start and end when present. The re-sequenced route is only
// proposed when the full schedule stays feasible.
func searchTSPFix(e *Evaluator, s *Solution, v int) (Move, bool) {
	r := s.Routes[v]
	if r.JobCount() < 3 {
		return Move{}, false
	}
	var ranks []int
	for _, st := range r.Steps {
		if st.Kind != StepJob {
			continue
		}
		if s.M.DeliveryOf[st.Rank] >= 0 || s.M.PickupOf[st.Rank] >= 0 {
			return Move{}, false // pair order is not ours to rearrange
		}
		ranks = append(ranks, st.Rank)
	}

	veh := &s.M.Vehicles[v]
	ev := s.M.Eval(v)
	loc := func(rank int) int { return s.M.Jobs[rank].Location.Index }
	startIdx, endIdx := -1, -1
	if veh.Start != nil {
		startIdx = veh.Start.Index
	}
	if veh.End != nil {
		endIdx = veh.End.Index
	}

	order := tspOrder(ev, ranks, loc, startIdx, endIdx)

	seq := make([]Step, 0, len(r.Steps))
	for _, rank := range order {
		seq = append(seq, Step{Kind: StepJob, Rank: rank})
	}
	for bi := range veh.Breaks {
		placed, _, ok := bestSeqInsert(e, v, seq, Step{Kind: StepBreak, Rank: bi})
		if !ok {
			return Move{}, false
		}
		seq = placed
	}
	mt := e.Steps(v, seq)
	if !mt.OK {
		return Move{}, false
	}
	g := Gain{Cost: mt.Cost - r.Metrics.Cost}
	return newMove(s, opTSPFix, v, v, g, map[int][]Step{v: seq}), true
}

// tspOrder runs nearest-neighbor then 2-opt on an open path over the given
// job ranks.
func tspOrder(ev *vrp.VehicleEval, ranks []int, loc func(int) int, startIdx, endIdx int) []int {
	remaining := append([]int(nil), ranks...)
	order := make([]int, 0, len(ranks))
	cur := startIdx
	for len(remaining) > 0 {
		pick := 0
		if cur >= 0 {
			var bestD int64
			for i, rank := range remaining {
				d := ev.Duration(cur, loc(rank))
				if i == 0 || d < bestD {
					bestD, pick = d, i
				}
			}
		}
		order = append(order, remaining[pick])
		cur = loc(remaining[pick])
		remaining = append(remaining[:pick], remaining[pick+1:]...)
	}

	length := func(o []int) int64 {
		var total int64
		prev := startIdx
		for _, rank := range o {
			if prev >= 0 {
				total += ev.Duration(prev, loc(rank))
			}
			prev = loc(rank)
		}
		if endIdx >= 0 && prev >= 0 {
			total += ev.Duration(prev, endIdx)
		}
		return total
	}

	improved := true
	for improved {
		improved = false
		base := length(order)
		for i := 0; i < len(order)-1 && !improved; i++ {
			for j := i + 1; j < len(order) && !improved; j++ {
				cand := append([]int(nil), order...)
				for a, b := i, j; a < b; a, b = a+1, b-1 {
					cand[a], cand[b] = cand[b], cand[a]
				}
				if length(cand) < base {
					order = cand
					improved = true
				}
			}
		}
	}
	return order
}
