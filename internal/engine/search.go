package engine

import (
	"sort"
	"time"
)

// cellKey addresses one unordered route pair in the move cache. Diagonal
// cells (a == b) hold single-route moves plus the exchanges against the
// unassigned set.
type cellKey struct{ a, b int }

// LocalSearch runs steepest descent over the operator catalog for one
// worker. Best moves are cached per route pair and recomputed only for
// pairs whose routes changed since the last apply.
type LocalSearch struct {
	e        *Evaluator
	s        *Solution
	deadline time.Time

	best  map[cellKey]Move
	has   map[cellKey]bool
	dirty map[cellKey]bool
}

// NewLocalSearch prepares a search over an already constructed solution.
func NewLocalSearch(e *Evaluator, s *Solution, deadline time.Time) *LocalSearch {
	ls := &LocalSearch{
		e: e, s: s, deadline: deadline,
		best:  map[cellKey]Move{},
		has:   map[cellKey]bool{},
		dirty: map[cellKey]bool{},
	}
	for a := range s.Routes {
		for b := a; b < len(s.Routes); b++ {
			ls.dirty[cellKey{a, b}] = true
		}
	}
	return ls
}

// Run descends until no improving move remains or the deadline passes, then
// attempts unassigned recovery.
func (ls *LocalSearch) Run() {
	for {
		if deadlineExceeded(ls.deadline) {
			return
		}
		mv, ok := ls.bestMove()
		if !ok || !mv.Gain.Improving() {
			break
		}
		if !mv.Valid(ls.s) {
			// A stale cache entry; force a rescan of its cell.
			ls.dirty[cellKey{min(mv.Src, mv.Tgt), max(mv.Src, mv.Tgt)}] = true
			continue
		}
		touched := mv.UpdatedRoutes()
		mv.Apply(ls.e, ls.s)
		ls.invalidate(touched, mv.Kind)
	}
	ls.recover()
}

// bestMove rescans dirty cells and returns the best cached move. Scan order
// is fixed, so ties resolve to the lowest (src, tgt, kind).
func (ls *LocalSearch) bestMove() (Move, bool) {
	var best Move
	found := false
	for a := range ls.s.Routes {
		for b := a; b < len(ls.s.Routes); b++ {
			key := cellKey{a, b}
			if ls.dirty[key] {
				ls.best[key], ls.has[key] = ls.scanCell(a, b)
				ls.dirty[key] = false
			}
			if ls.has[key] && (!found || ls.best[key].Gain.BetterThan(best.Gain)) {
				best = ls.best[key]
				found = true
			}
		}
	}
	return best, found
}

type diagonalSearch func(*Evaluator, *Solution, int) (Move, bool)
type pairSearch func(*Evaluator, *Solution, int, int) (Move, bool)

// Dispatch tables over the closed operator set. Order fixes tie-breaks.
var (
	diagonalOps = []diagonalSearch{
		searchIntraRelocate,
		searchIntraOrOpt,
		searchIntraExchange,
		searchIntraCrossExchange,
		searchIntraMixedExchange,
		searchIntraTwoOpt,
		searchTSPFix,
		searchUnassignedExchange,
		searchPriorityReplace,
		searchRouteSplit,
	}
	symmetricOps = []pairSearch{
		searchCrossExchange,
		searchTwoOpt,
		searchReverseTwoOpt,
		searchRouteExchange,
		searchSwapStar,
	}
	directedOps = []pairSearch{
		searchRelocate,
		searchOrOpt,
		searchPDShift,
		searchMixedExchange,
	}
)

func (ls *LocalSearch) scanCell(a, b int) (Move, bool) {
	var best Move
	found := false
	take := func(mv Move, ok bool) {
		if ok && (!found || mv.Gain.BetterThan(best.Gain)) {
			best = mv
			found = true
		}
	}
	if a == b {
		for _, op := range diagonalOps {
			take(op(ls.e, ls.s, a))
		}
		return best, found
	}
	for _, op := range symmetricOps {
		take(op(ls.e, ls.s, a, b))
	}
	for _, op := range directedOps {
		take(op(ls.e, ls.s, a, b))
		take(op(ls.e, ls.s, b, a))
	}
	return best, found
}

// invalidate marks every cell touching a changed route. Moves that traded
// with the unassigned set additionally dirty all diagonal cells, since
// their move spaces depend on that set.
func (ls *LocalSearch) invalidate(routes []int, kind opKind) {
	for _, r := range routes {
		for x := range ls.s.Routes {
			ls.dirty[cellKey{min(r, x), max(r, x)}] = true
		}
	}
	if kind == opUnassignedExchange || kind == opPriorityReplace {
		for v := range ls.s.Routes {
			ls.dirty[cellKey{v, v}] = true
		}
	}
}

// recover inserts whatever unassigned tasks still fit, cheapest position
// each, in priority-then-amount order; when plain insertion is exhausted it
// falls back to priority-gaining evictions. Repeats to a fixpoint.
func (ls *LocalSearch) recover() {
	for {
		if deadlineExceeded(ls.deadline) {
			return
		}
		changed := false
		for _, u := range recoveryOrder(ls.s) {
			if c := bestInsertion(ls.e, ls.s, u); c.ok {
				ls.s.Assign(ls.e, u, c.v, c.pos, c.posD)
				changed = true
			}
		}
		if !changed {
			var best Move
			found := false
			for v := range ls.s.Routes {
				if mv, ok := searchPriorityReplace(ls.e, ls.s, v); ok {
					if !found || mv.Gain.BetterThan(best.Gain) {
						best = mv
						found = true
					}
				}
			}
			if found && best.Gain.Priority > 0 {
				best.Apply(ls.e, ls.s)
				changed = true
			}
		}
		if !changed {
			return
		}
	}
}

// recoveryOrder sorts unassigned units by priority descending, total amount
// descending, then task id.
func recoveryOrder(s *Solution) []int {
	units := unitRanks(s)
	sort.SliceStable(units, func(a, b int) bool {
		ja, jb := &s.M.Jobs[units[a]], &s.M.Jobs[units[b]]
		pa, pb := unitPriority(s.M, units[a]), unitPriority(s.M, units[b])
		if pa != pb {
			return pa > pb
		}
		ta := ja.Pickup.Total() + ja.Delivery.Total()
		tb := jb.Pickup.Total() + jb.Delivery.Total()
		if ta != tb {
			return ta > tb
		}
		return ja.ID < jb.ID
	})
	return units
}
