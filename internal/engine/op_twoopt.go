package engine

// searchTwoOpt recombines route tails: A keeps its head and takes B's tail,
// and vice versa. Cut segments must be break-free and shipment-closed.
func searchTwoOpt(e *Evaluator, s *Solution, a, b int) (Move, bool) {
	ra, rb := s.Routes[a], s.Routes[b]
	var best Move
	found := false
	for i := 0; i <= len(ra.Steps); i++ {
		if !jobsOnly(ra.Steps, i, len(ra.Steps)-i) || !segClosed(s.M, ra.Steps, i, len(ra.Steps)-i) {
			continue
		}
		for j := 0; j <= len(rb.Steps); j++ {
			if i == len(ra.Steps) && j == len(rb.Steps) {
				continue
			}
			if !jobsOnly(rb.Steps, j, len(rb.Steps)-j) || !segClosed(s.M, rb.Steps, j, len(rb.Steps)-j) {
				continue
			}
			seqA := withSegment(cloneSteps(ra.Steps[:i]), i, rb.Steps[j:]...)
			mtA := e.Steps(a, seqA)
			if !mtA.OK {
				continue
			}
			seqB := withSegment(cloneSteps(rb.Steps[:j]), j, ra.Steps[i:]...)
			mtB := e.Steps(b, seqB)
			if !mtB.OK {
				continue
			}
			g := Gain{Cost: (mtA.Cost - ra.Metrics.Cost) + (mtB.Cost - rb.Metrics.Cost)}
			if !found || g.BetterThan(best.Gain) {
				best = newMove(s, opTwoOpt, a, b, g, map[int][]Step{a: seqA, b: seqB})
				found = true
			}
		}
	}
	return best, found
}

// searchReverseTwoOpt joins A's head with B's reversed head and B's tail
// with A's reversed tail. Reversed parts cannot hold shipment halves.
func searchReverseTwoOpt(e *Evaluator, s *Solution, a, b int) (Move, bool) {
	ra, rb := s.Routes[a], s.Routes[b]
	var best Move
	found := false
	noShip := func(steps []Step) bool {
		for _, st := range steps {
			if st.Kind != StepJob {
				return false
			}
			if s.M.DeliveryOf[st.Rank] >= 0 || s.M.PickupOf[st.Rank] >= 0 {
				return false
			}
		}
		return true
	}
	reversed := func(steps []Step) []Step {
		out := make([]Step, len(steps))
		for k, st := range steps {
			out[len(steps)-1-k] = st
		}
		return out
	}
	for i := 0; i <= len(ra.Steps); i++ {
		if !noShip(ra.Steps[i:]) {
			continue
		}
		for j := 0; j <= len(rb.Steps); j++ {
			if i == len(ra.Steps) && j == 0 {
				continue
			}
			if !noShip(rb.Steps[:j]) {
				continue
			}
			seqA := withSegment(cloneSteps(ra.Steps[:i]), i, reversed(rb.Steps[:j])...)
			mtA := e.Steps(a, seqA)
			if !mtA.OK {
				continue
			}
			seqB := withSegment(reversed(ra.Steps[i:]), len(ra.Steps)-i, rb.Steps[j:]...)
			mtB := e.Steps(b, seqB)
			if !mtB.OK {
				continue
			}
			g := Gain{Cost: (mtA.Cost - ra.Metrics.Cost) + (mtB.Cost - rb.Metrics.Cost)}
			if !found || g.BetterThan(best.Gain) {
				best = newMove(s, opReverseTwoOpt, a, b, g, map[int][]Step{a: seqA, b: seqB})
				found = true
			}
		}
	}
	return best, found
}
