package engine

// intraCandidate evaluates one rewritten sequence of route v and folds it
// into the running best move.
func intraCandidate(e *Evaluator, s *Solution, kind opKind, v int, seq []Step, best *Move, found *bool) {
	r := s.Routes[v]
	mt := e.Steps(v, seq)
	if !mt.OK {
		return
	}
	g := Gain{Cost: mt.Cost - r.Metrics.Cost}
	if !*found || g.BetterThan(best.Gain) {
		*best = newMove(s, kind, v, v, g, map[int][]Step{v: seq})
		*found = true
	}
}

// searchIntraShift is the shared scan behind IntraRelocate and IntraOrOpt:
// move a segment of the given length to another position of the same route.
func searchIntraShift(e *Evaluator, s *Solution, kind opKind, v, length int) (Move, bool) {
	r := s.Routes[v]
	var best Move
	found := false
	for i := 0; i+length <= len(r.Steps); i++ {
		seg := cloneSteps(r.Steps[i : i+length])
		base := withoutSegment(r.Steps, i, length)
		for pos := 0; pos <= len(base); pos++ {
			if pos == i {
				continue
			}
			intraCandidate(e, s, kind, v, withSegment(base, pos, seg...), &best, &found)
		}
	}
	return best, found
}

func searchIntraRelocate(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchIntraShift(e, s, opIntraRelocate, v, 1)
}

func searchIntraOrOpt(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchIntraShift(e, s, opIntraOrOpt, v, 3)
}

// searchIntraExchange swaps two steps of one route.
func searchIntraExchange(e *Evaluator, s *Solution, v int) (Move, bool) {
	r := s.Routes[v]
	var best Move
	found := false
	for i := 0; i < len(r.Steps); i++ {
		for j := i + 1; j < len(r.Steps); j++ {
			seq := cloneSteps(r.Steps)
			seq[i], seq[j] = seq[j], seq[i]
			intraCandidate(e, s, opIntraExchange, v, seq, &best, &found)
		}
	}
	return best, found
}

// searchIntraSegSwap swaps two disjoint segments of one route, keeping each
// segment's internal order.
func searchIntraSegSwap(e *Evaluator, s *Solution, kind opKind, v, lenA, lenB int) (Move, bool) {
	r := s.Routes[v]
	var best Move
	found := false
	swap := func(i, la, j, lb int) {
		seq := make([]Step, 0, len(r.Steps))
		seq = append(seq, r.Steps[:i]...)
		seq = append(seq, r.Steps[j:j+lb]...)
		seq = append(seq, r.Steps[i+la:j]...)
		seq = append(seq, r.Steps[i:i+la]...)
		seq = append(seq, r.Steps[j+lb:]...)
		intraCandidate(e, s, kind, v, seq, &best, &found)
	}
	for i := 0; i+lenA <= len(r.Steps); i++ {
		for j := i + lenA; j+lenB <= len(r.Steps); j++ {
			swap(i, lenA, j, lenB)
		}
	}
	if lenA != lenB {
		for i := 0; i+lenB <= len(r.Steps); i++ {
			for j := i + lenB; j+lenA <= len(r.Steps); j++ {
				swap(i, lenB, j, lenA)
			}
		}
	}
	return best, found
}

func searchIntraCrossExchange(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchIntraSegSwap(e, s, opIntraCrossExchange, v, 2, 2)
}

func searchIntraMixedExchange(e *Evaluator, s *Solution, v int) (Move, bool) {
	return searchIntraSegSwap(e, s, opIntraMixedExchange, v, 2, 1)
}

// searchIntraTwoOpt reverses one segment of the route.
func searchIntraTwoOpt(e *Evaluator, s *Solution, v int) (Move, bool) {
	r := s.Routes[v]
	var best Move
	found := false
	for i := 0; i < len(r.Steps); i++ {
		for j := i + 1; j < len(r.Steps); j++ {
			seq := cloneSteps(r.Steps)
			for a, b := i, j; a < b; a, b = a+1, b-1 {
				seq[a], seq[b] = seq[b], seq[a]
			}
			intraCandidate(e, s, opIntraTwoOpt, v, seq, &best, &found)
		}
	}
	return best, found
}
