package engine

// searchSegmentSwap is the shared scan behind CrossExchange (2 vs 2) and
// MixedExchange (2 vs 1): swap two jobs-only, shipment-closed segments
// between routes, keeping each segment's internal order.
func searchSegmentSwap(e *Evaluator, s *Solution, kind opKind, src, tgt, lenS, lenT int) (Move, bool) {
	rs, rt := s.Routes[src], s.Routes[tgt]
	var best Move
	found := false
	for i := 0; i+lenS <= len(rs.Steps); i++ {
		if !jobsOnly(rs.Steps, i, lenS) || !segClosed(s.M, rs.Steps, i, lenS) {
			continue
		}
		segS := cloneSteps(rs.Steps[i : i+lenS])
		for j := 0; j+lenT <= len(rt.Steps); j++ {
			if !jobsOnly(rt.Steps, j, lenT) || !segClosed(s.M, rt.Steps, j, lenT) {
				continue
			}
			segT := cloneSteps(rt.Steps[j : j+lenT])
			srcSeq := withSegment(withoutSegment(rs.Steps, i, lenS), i, segT...)
			srcMt := e.Steps(src, srcSeq)
			if !srcMt.OK {
				continue
			}
			tgtSeq := withSegment(withoutSegment(rt.Steps, j, lenT), j, segS...)
			tgtMt := e.Steps(tgt, tgtSeq)
			if !tgtMt.OK {
				continue
			}
			g := Gain{Cost: (srcMt.Cost - rs.Metrics.Cost) + (tgtMt.Cost - rt.Metrics.Cost)}
			if !found || g.BetterThan(best.Gain) {
				best = newMove(s, kind, src, tgt, g, map[int][]Step{src: srcSeq, tgt: tgtSeq})
				found = true
			}
		}
	}
	return best, found
}

func searchCrossExchange(e *Evaluator, s *Solution, src, tgt int) (Move, bool) {
	return searchSegmentSwap(e, s, opCrossExchange, src, tgt, 2, 2)
}

func searchMixedExchange(e *Evaluator, s *Solution, src, tgt int) (Move, bool) {
	return searchSegmentSwap(e, s, opMixedExchange, src, tgt, 2, 1)
}

// searchSwapStar trades one single job per route, re-choosing each insertion
// position freely instead of reusing the vacated slot.
func searchSwapStar(e *Evaluator, s *Solution, a, b int) (Move, bool) {
	ra, rb := s.Routes[a], s.Routes[b]
	var best Move
	found := false
	for i, sa := range ra.Steps {
		if sa.Kind != StepJob || s.M.DeliveryOf[sa.Rank] >= 0 || s.M.PickupOf[sa.Rank] >= 0 {
			continue
		}
		baseA := withoutSegment(ra.Steps, i, 1)
		for j, sb := range rb.Steps {
			if sb.Kind != StepJob || s.M.DeliveryOf[sb.Rank] >= 0 || s.M.PickupOf[sb.Rank] >= 0 {
				continue
			}
			seqA, costA, ok := bestSeqInsert(e, a, baseA, Step{Kind: StepJob, Rank: sb.Rank})
			if !ok {
				continue
			}
			baseB := withoutSegment(rb.Steps, j, 1)
			seqB, costB, ok := bestSeqInsert(e, b, baseB, Step{Kind: StepJob, Rank: sa.Rank})
			if !ok {
				continue
			}
			g := Gain{Cost: (costA - ra.Metrics.Cost) + (costB - rb.Metrics.Cost)}
			if !found || g.BetterThan(best.Gain) {
				best = newMove(s, opSwapStar, a, b, g, map[int][]Step{a: seqA, b: seqB})
				found = true
			}
		}
	}
	return best, found
}

// searchRouteExchange hands each route's whole step list to the other
// vehicle. Only break-free routes qualify, breaks being vehicle-owned.
func searchRouteExchange(e *Evaluator, s *Solution, a, b int) (Move, bool) {
	ra, rb := s.Routes[a], s.Routes[b]
	if ra.HasBreaks() || rb.HasBreaks() {
		return Move{}, false
	}
	if ra.Empty() && rb.Empty() {
		return Move{}, false
	}
	seqA := cloneSteps(rb.Steps)
	seqB := cloneSteps(ra.Steps)
	mtA := e.Steps(a, seqA)
	if !mtA.OK {
		return Move{}, false
	}
	mtB := e.Steps(b, seqB)
	if !mtB.OK {
		return Move{}, false
	}
	g := Gain{Cost: (mtA.Cost - ra.Metrics.Cost) + (mtB.Cost - rb.Metrics.Cost)}
	return newMove(s, opRouteExchange, a, b, g, map[int][]Step{a: seqA, b: seqB}), true
}
