package engine

import "routesmith/internal/vrp"

// segClosed reports whether every shipment half inside [i, i+n) has its
// partner inside too, so the segment can move as a unit.
func segClosed(m *vrp.Model, steps []Step, i, n int) bool {
	in := map[int]struct{}{}
	for _, s := range steps[i : i+n] {
		if s.Kind == StepJob {
			in[s.Rank] = struct{}{}
		}
	}
	for _, s := range steps[i : i+n] {
		if s.Kind != StepJob {
			continue
		}
		if d := m.DeliveryOf[s.Rank]; d >= 0 {
			if _, ok := in[d]; !ok {
				return false
			}
		}
		if p := m.PickupOf[s.Rank]; p >= 0 {
			if _, ok := in[p]; !ok {
				return false
			}
		}
	}
	return true
}

// searchSegmentShift is the shared scan behind Relocate and OrOpt: move a
// jobs-only, shipment-closed segment of the given length from src to the
// cheapest feasible position in tgt.
func searchSegmentShift(e *Evaluator, s *Solution, kind opKind, src, tgt, length int) (Move, bool) {
	rs, rt := s.Routes[src], s.Routes[tgt]
	var best Move
	found := false
	for i := 0; i+length <= len(rs.Steps); i++ {
		if !jobsOnly(rs.Steps, i, length) || !segClosed(s.M, rs.Steps, i, length) {
			continue
		}
		srcSeq := withoutSegment(rs.Steps, i, length)
		srcMt := e.Steps(src, srcSeq)
		if !srcMt.OK {
			continue
		}
		seg := cloneSteps(rs.Steps[i : i+length])
		tgtSeq, tgtCost, ok := bestSeqInsert(e, tgt, rt.Steps, seg...)
		if !ok {
			continue
		}
		g := Gain{Cost: (srcMt.Cost - rs.Metrics.Cost) + (tgtCost - rt.Metrics.Cost)}
		if !found || g.BetterThan(best.Gain) {
			best = newMove(s, kind, src, tgt, g, map[int][]Step{src: srcSeq, tgt: tgtSeq})
			found = true
		}
	}
	return best, found
}

func searchRelocate(e *Evaluator, s *Solution, src, tgt int) (Move, bool) {
	return searchSegmentShift(e, s, opRelocate, src, tgt, 1)
}

func searchOrOpt(e *Evaluator, s *Solution, src, tgt int) (Move, bool) {
	return searchSegmentShift(e, s, opOrOpt, src, tgt, 3)
}

// searchPDShift moves one pickup/delivery pair from src to tgt, re-choosing
// both positions freely in the target.
func searchPDShift(e *Evaluator, s *Solution, src, tgt int) (Move, bool) {
	rs, rt := s.Routes[src], s.Routes[tgt]
	var best Move
	found := false
	for i, st := range rs.Steps {
		if st.Kind != StepJob {
			continue
		}
		d := s.M.DeliveryOf[st.Rank]
		if d < 0 {
			continue
		}
		j := -1
		for k := i + 1; k < len(rs.Steps); k++ {
			if rs.Steps[k].Kind == StepJob && rs.Steps[k].Rank == d {
				j = k
				break
			}
		}
		if j < 0 {
			continue
		}
		srcSeq := withoutSegment(rs.Steps, j, 1)
		srcSeq = append(srcSeq[:i], srcSeq[i+1:]...)
		srcMt := e.Steps(src, srcSeq)
		if !srcMt.OK {
			continue
		}
		tgtSeq, tgtCost, ok := bestSeqInsertPair(e, tgt, rt.Steps, st.Rank, d)
		if !ok {
			continue
		}
		g := Gain{Cost: (srcMt.Cost - rs.Metrics.Cost) + (tgtCost - rt.Metrics.Cost)}
		if !found || g.BetterThan(best.Gain) {
			best = newMove(s, opPDShift, src, tgt, g, map[int][]Step{src: srcSeq, tgt: tgtSeq})
			found = true
		}
	}
	return best, found
}

// searchRouteSplit spreads one route over two empty vehicles when that pays
// off, typically against max_tasks or capacity pressure reflected in cost.
func searchRouteSplit(e *Evaluator, s *Solution, src int) (Move, bool) {
	rs := s.Routes[src]
	if rs.JobCount() < 2 || rs.HasBreaks() {
		return Move{}, false
	}
	var empties []int
	for v, r := range s.Routes {
		if v != src && r.Empty() && !r.HasBreaks() {
			empties = append(empties, v)
		}
	}
	if len(empties) < 2 {
		return Move{}, false
	}
	var best Move
	found := false
	for k := 1; k < len(rs.Steps); k++ {
		if !segClosed(s.M, rs.Steps, 0, k) || !segClosed(s.M, rs.Steps, k, len(rs.Steps)-k) {
			continue
		}
		head := cloneSteps(rs.Steps[:k])
		tail := cloneSteps(rs.Steps[k:])
		for _, v1 := range empties {
			mt1 := e.Steps(v1, head)
			if !mt1.OK {
				continue
			}
			for _, v2 := range empties {
				if v2 == v1 {
					continue
				}
				mt2 := e.Steps(v2, tail)
				if !mt2.OK {
					continue
				}
				g := Gain{Cost: mt1.Cost + mt2.Cost - rs.Metrics.Cost}
				if !found || g.BetterThan(best.Gain) {
					best = newMove(s, opRouteSplit, src, src, g,
						map[int][]Step{src: {}, v1: head, v2: tail})
					found = true
				}
			}
		}
	}
	return best, found
}

// searchReplace swaps an assigned unit of route v for an unassigned one.
// Exchange mode keeps priority non-decreasing and hunts cost; replace mode
// demands a strict priority win and tolerates cost increases.
func searchReplace(e *Evaluator, s *Solution, v int, kind opKind) (Move, bool) {
	r := s.Routes[v]
	var best Move
	found := false
	for _, u := range unitRanks(s) {
		if !s.M.Compatible(v, u) {
			continue
		}
		uPrio := unitPriority(s.M, u)
		for i, st := range r.Steps {
			if st.Kind != StepJob {
				continue
			}
			if s.M.PickupOf[st.Rank] >= 0 {
				continue // handled via its pickup
			}
			base := withoutSegment(r.Steps, i, 1)
			if d := s.M.DeliveryOf[st.Rank]; d >= 0 {
				j := -1
				for k, bs := range base {
					if bs.Kind == StepJob && bs.Rank == d {
						j = k
						break
					}
				}
				if j < 0 {
					continue
				}
				base = withoutSegment(base, j, 1)
			}
			prioDelta := uPrio - unitPriority(s.M, st.Rank)
			if kind == opPriorityReplace && prioDelta <= 0 {
				continue
			}
			if kind == opUnassignedExchange && prioDelta < 0 {
				continue
			}
			var seq []Step
			var cost int64
			var ok bool
			if d := s.M.DeliveryOf[u]; d >= 0 {
				seq, cost, ok = bestSeqInsertPair(e, v, base, u, d)
			} else {
				seq, cost, ok = bestSeqInsert(e, v, base, Step{Kind: StepJob, Rank: u})
			}
			if !ok {
				continue
			}
			g := Gain{Priority: prioDelta, Cost: cost - r.Metrics.Cost}
			if !found || g.BetterThan(best.Gain) {
				best = newMove(s, kind, v, v, g, map[int][]Step{v: seq})
				found = true
			}
		}
	}
	return best, found
}

func searchUnassignedExchange(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchReplace(e, s, v, opUnassignedExchange)
}

func searchPriorityReplace(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchReplace(e, s, v, opPriorityReplace)
}
