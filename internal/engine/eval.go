package engine

import "routesmith/internal/vrp"

// Evaluator is the pure cost/feasibility oracle the heuristics and
// operators consult. It never mutates routes. Scratch buffers are reused
// between calls, so an Evaluator must not be shared across workers.
type Evaluator struct {
	m *vrp.Model

	// Effective service windows per job, with forced-step pins folded in.
	wins [][]vrp.TimeWindow

	cur  vrp.Amount  // running load scratch
	seen map[int]int // open pickups scratch
	bufA []Step
	bufB []Step
}

// NewEvaluator builds an evaluator bound to a frozen model.
func NewEvaluator(m *vrp.Model) *Evaluator {
	e := &Evaluator{
		m:    m,
		wins: make([][]vrp.TimeWindow, len(m.Jobs)),
		cur:  vrp.NewAmount(m.AmountSize),
		seen: map[int]int{},
	}
	for rank := range m.Jobs {
		tws := m.Jobs[rank].TWs
		pin, pinned := m.Pinned[rank]
		if !pinned || !pin.HasWindow {
			e.wins[rank] = tws
			continue
		}
		var narrowed []vrp.TimeWindow
		for _, tw := range tws {
			if cut, ok := tw.Intersect(pin.Window); ok {
				narrowed = append(narrowed, cut)
			}
		}
		// An empty intersection leaves the job permanently infeasible,
		// which reports it as unassigned rather than erroring out.
		e.wins[rank] = narrowed
	}
	return e
}

// Windows returns the effective service windows of a job.
func (e *Evaluator) Windows(rank int) []vrp.TimeWindow { return e.wins[rank] }

func pickWindow(tws []vrp.TimeWindow, arrival int64) (vrp.TimeWindow, bool) {
	for _, tw := range tws {
		if arrival <= tw.End {
			return tw, true
		}
	}
	return vrp.TimeWindow{}, false
}

// StepTiming is the resolved schedule of one route step.
type StepTiming struct {
	Arrival      int64
	ServiceStart int64
	Departure    int64
	Load         vrp.Amount
	Distance     int64 // cumulative meters on arrival
	Duration     int64 // cumulative travel ticks on arrival
}

// Steps evaluates a candidate step sequence for vehicle v: full feasibility
// check plus cost and totals. Infeasible sequences return Metrics with
// OK == false.
func (e *Evaluator) Steps(v int, steps []Step) Metrics {
	return e.walk(v, steps, nil)
}

// Timings evaluates the sequence and also returns the per-step schedule.
func (e *Evaluator) Timings(v int, steps []Step) ([]StepTiming, Metrics) {
	ts := make([]StepTiming, 0, len(steps))
	mt := e.walk(v, steps, &ts)
	return ts, mt
}

func (e *Evaluator) walk(v int, steps []Step, timings *[]StepTiming) Metrics {
	var mt Metrics
	veh := &e.m.Vehicles[v]
	ev := e.m.Eval(v)

	jobs := 0
	for _, s := range steps {
		if s.Kind == StepJob {
			jobs++
		}
	}
	if jobs > veh.MaxTasks {
		return mt
	}

	// Initial load: single-job deliveries ride along from route start.
	cur := e.cur
	for i := range cur {
		cur[i] = 0
	}
	for _, s := range steps {
		if s.Kind == StepJob {
			j := &e.m.Jobs[s.Rank]
			if j.Type == vrp.JobSingle {
				cur.Add(j.Delivery)
			}
		}
	}
	if !cur.LE(veh.Capacity) {
		return mt
	}
	for k := range e.seen {
		delete(e.seen, k)
	}

	t := veh.TW.Start
	prev := -1
	if veh.Start != nil {
		prev = veh.Start.Index
	}

	for si, s := range steps {
		var arrival, serviceStart int64
		if s.Kind == StepJob {
			j := &e.m.Jobs[s.Rank]
			if !e.m.Compatible(v, s.Rank) {
				return mt
			}
			loc := j.Location.Index
			if prev >= 0 {
				d := ev.Duration(prev, loc)
				c := ev.Cost(prev, loc)
				if d >= vrp.InfiniteCost || c >= vrp.InfiniteCost {
					return mt
				}
				mt.Travel += d
				mt.Distance += ev.Distance(prev, loc)
				mt.Cost += c
				t += d
			}
			arrival = t
			tw, ok := pickWindow(e.wins[s.Rank], arrival)
			if !ok {
				return mt
			}
			serviceStart = arrival
			if tw.Start > serviceStart {
				serviceStart = tw.Start
			}
			mt.Waiting += serviceStart - arrival
			service := j.ServiceFor(veh)
			mt.Setup += j.Setup
			mt.Service += service

			switch j.Type {
			case vrp.JobSingle:
				cur.Sub(j.Delivery)
				cur.Add(j.Pickup)
			case vrp.JobPickup:
				e.seen[s.Rank] = si
				cur.Add(j.Pickup)
			case vrp.JobDelivery:
				p := e.m.PickupOf[s.Rank]
				if _, open := e.seen[p]; !open {
					return mt
				}
				delete(e.seen, p)
				cur.Sub(j.Delivery)
			}
			if !cur.Nonnegative() || !cur.LE(veh.Capacity) {
				return mt
			}
			t = serviceStart + j.Setup + service
			prev = loc
		} else {
			b := &veh.Breaks[s.Rank]
			arrival = t
			tw, ok := pickWindow(b.TWs, arrival)
			if !ok {
				return mt
			}
			serviceStart = arrival
			if tw.Start > serviceStart {
				serviceStart = tw.Start
			}
			mt.Waiting += serviceStart - arrival
			mt.Service += b.Service
			if b.MaxLoad != nil && !cur.LE(b.MaxLoad) {
				return mt
			}
			t = serviceStart + b.Service
		}
		if t > veh.TW.End {
			return mt
		}
		if timings != nil {
			*timings = append(*timings, StepTiming{
				Arrival:      arrival,
				ServiceStart: serviceStart,
				Departure:    t,
				Load:         cur.Clone(),
				Distance:     mt.Distance,
				Duration:     mt.Travel,
			})
		}
	}

	if len(e.seen) != 0 {
		return mt // open pickup without a later delivery
	}
	if veh.End != nil && prev >= 0 {
		d := ev.Duration(prev, veh.End.Index)
		c := ev.Cost(prev, veh.End.Index)
		if d >= vrp.InfiniteCost || c >= vrp.InfiniteCost {
			return mt
		}
		mt.Travel += d
		mt.Distance += ev.Distance(prev, veh.End.Index)
		mt.Cost += c
		t += d
	}
	if t > veh.TW.End {
		return mt
	}
	if mt.Travel > veh.MaxTravelTime || mt.Distance > veh.MaxDistance {
		return mt
	}
	if jobs > 0 {
		mt.Cost += veh.FixedCost()
	}
	mt.End = t
	mt.OK = true
	return mt
}

// Insert evaluates placing job rank before position pos. Returns the cost
// delta against the route's cached metrics.
func (e *Evaluator) Insert(r *Route, rank, pos int) (int64, bool) {
	e.bufA = spliceSteps(e.bufA[:0], r.Steps, pos, 0, Step{Kind: StepJob, Rank: rank})
	mt := e.Steps(r.V, e.bufA)
	if !mt.OK {
		return 0, false
	}
	return mt.Cost - r.Metrics.Cost, true
}

// InsertPair evaluates inserting a pickup at posP and its delivery at posD
// (positions in the original sequence, posP <= posD; the delivery ends up
// right after the pickup when posP == posD).
func (e *Evaluator) InsertPair(r *Route, pickup, delivery, posP, posD int) (int64, bool) {
	e.bufB = spliceSteps(e.bufB[:0], r.Steps, posD, 0, Step{Kind: StepJob, Rank: delivery})
	e.bufA = spliceSteps(e.bufA[:0], e.bufB, posP, 0, Step{Kind: StepJob, Rank: pickup})
	mt := e.Steps(r.V, e.bufA)
	if !mt.OK {
		return 0, false
	}
	return mt.Cost - r.Metrics.Cost, true
}

// Remove evaluates dropping length consecutive steps at pos.
func (e *Evaluator) Remove(r *Route, pos, length int) (int64, bool) {
	e.bufA = spliceSteps(e.bufA[:0], r.Steps, pos, length)
	mt := e.Steps(r.V, e.bufA)
	if !mt.OK {
		return 0, false
	}
	return mt.Cost - r.Metrics.Cost, true
}

// Reverse evaluates reversing the [i, j] segment.
func (e *Evaluator) Reverse(r *Route, i, j int) (int64, bool) {
	e.bufA = append(e.bufA[:0], r.Steps...)
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		e.bufA[a], e.bufA[b] = e.bufA[b], e.bufA[a]
	}
	mt := e.Steps(r.V, e.bufA)
	if !mt.OK {
		return 0, false
	}
	return mt.Cost - r.Metrics.Cost, true
}

// Exchange evaluates swapping the [i, i+lenA) segment of ra with the
// [j, j+lenB) segment of rb. Returns the per-route cost deltas.
func (e *Evaluator) Exchange(ra *Route, i int, rb *Route, j, lenA, lenB int) (int64, int64, bool) {
	e.bufA = spliceSteps(e.bufA[:0], ra.Steps, i, lenA, rb.Steps[j:j+lenB]...)
	e.bufB = spliceSteps(e.bufB[:0], rb.Steps, j, lenB, ra.Steps[i:i+lenA]...)
	mtA := e.Steps(ra.V, e.bufA)
	if !mtA.OK {
		return 0, 0, false
	}
	mtB := e.Steps(rb.V, e.bufB)
	if !mtB.OK {
		return 0, 0, false
	}
	return mtA.Cost - ra.Metrics.Cost, mtB.Cost - rb.Metrics.Cost, true
}

// spliceSteps appends src to dst with del steps at pos replaced by ins.
func spliceSteps(dst, src []Step, pos, del int, ins ...Step) []Step {
	dst = append(dst, src[:pos]...)
	dst = append(dst, ins...)
	dst = append(dst, src[pos+del:]...)
	return dst
}
