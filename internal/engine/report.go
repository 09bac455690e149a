package engine

import "routesmith/internal/vrp"

// Report renders the solution as the user-facing output document, all
// values converted back to user units.
func (s *Solution) Report(e *Evaluator) *vrp.Output {
	out := &vrp.Output{
		Unassigned: []vrp.UnassignedTask{},
		Routes:     []vrp.OutputRoute{},
	}

	delivered := vrp.NewAmount(s.M.AmountSize)
	picked := vrp.NewAmount(s.M.AmountSize)
	for v, r := range s.Routes {
		if r.Empty() {
			continue
		}
		or := s.buildRoute(e, v)
		out.Routes = append(out.Routes, or)
		out.Summary.Cost += or.Cost
		out.Summary.Setup += or.Setup
		out.Summary.Service += or.Service
		out.Summary.Duration += or.Duration
		out.Summary.WaitingTime += or.WaitingTime
		out.Summary.Distance += or.Distance
		out.Summary.Priority += or.Priority
		for i := range delivered {
			delivered[i] += or.Delivery[i]
			picked[i] += or.Pickup[i]
		}
		out.Summary.Violations = append(out.Summary.Violations, or.Violations...)
	}
	out.Summary.Routes = len(out.Routes)
	out.Summary.Delivery = delivered
	out.Summary.Pickup = picked

	for _, rank := range s.UnassignedRanks() {
		j := &s.M.Jobs[rank]
		out.Unassigned = append(out.Unassigned, vrp.UnassignedTask{
			ID:       j.ID,
			Type:     j.Type.String(),
			Location: j.Location.Coords,
			Reason:   string(unassignedReason(e, s.M, rank)),
		})
	}
	out.Summary.Unassigned = len(out.Unassigned)

	if len(out.Routes) == 0 && len(s.M.Jobs) > 0 {
		out.Code = vrp.CodeNoSolution
		out.Error = "no solution found under the given constraints"
	}
	return out
}

func (s *Solution) buildRoute(e *Evaluator, v int) vrp.OutputRoute {
	r := s.Routes[v]
	veh := &s.M.Vehicles[v]
	timings, mt := e.Timings(v, r.Steps)

	or := vrp.OutputRoute{
		Vehicle:     veh.ID,
		Description: veh.Description,
		Cost:        vrp.UserCost(mt.Cost),
		Setup:       vrp.UserDuration(mt.Setup),
		Service:     vrp.UserDuration(mt.Service),
		Duration:    vrp.UserDuration(mt.Travel),
		WaitingTime: vrp.UserDuration(mt.Waiting),
		Distance:    mt.Distance,
		Delivery:    vrp.NewAmount(s.M.AmountSize),
		Pickup:      vrp.NewAmount(s.M.AmountSize),
	}
	if !mt.OK {
		or.Violations = diagnose(e, s.M, v, r.Steps)
	}

	initial := vrp.NewAmount(s.M.AmountSize)
	final := vrp.NewAmount(s.M.AmountSize)
	for _, st := range r.Steps {
		if st.Kind != StepJob {
			continue
		}
		j := &s.M.Jobs[st.Rank]
		or.Priority += int64(j.Priority)
		or.Delivery.Add(j.Delivery)
		or.Pickup.Add(j.Pickup)
		if j.Type == vrp.JobSingle {
			initial.Add(j.Delivery)
		}
		final.Add(j.Pickup)
		final.Sub(j.Delivery)
	}
	final.Add(initial)

	if veh.Start != nil {
		or.Steps = append(or.Steps, vrp.OutputStep{
			Type:     "start",
			Location: veh.Start.Coords,
			Arrival:  vrp.UserDuration(veh.TW.Start),
			Load:     initial,
		})
	}
	for i, st := range r.Steps {
		if i >= len(timings) {
			break // schedule broke off; violations already reported
		}
		t := timings[i]
		os := vrp.OutputStep{
			Arrival:     vrp.UserDuration(t.Arrival),
			WaitingTime: vrp.UserDuration(t.ServiceStart - t.Arrival),
			Load:        t.Load,
			Duration:    vrp.UserDuration(t.Duration),
			Distance:    t.Distance,
		}
		if st.Kind == StepJob {
			j := &s.M.Jobs[st.Rank]
			os.Type = j.Type.String()
			os.ID = j.ID
			os.Description = j.Description
			os.Location = j.Location.Coords
			os.Setup = vrp.UserDuration(j.Setup)
			os.Service = vrp.UserDuration(j.ServiceFor(veh))
		} else {
			b := &veh.Breaks[st.Rank]
			os.Type = "break"
			os.ID = b.ID
			os.Description = b.Description
			os.Service = vrp.UserDuration(b.Service)
		}
		or.Steps = append(or.Steps, os)
	}
	if veh.End != nil {
		or.Steps = append(or.Steps, vrp.OutputStep{
			Type:     "end",
			Location: veh.End.Coords,
			Arrival:  vrp.UserDuration(mt.End),
			Load:     final,
			Duration: vrp.UserDuration(mt.Travel),
			Distance: mt.Distance,
		})
	}
	return or
}

// unassignedReason picks the closed-set code that best explains why no
// route serves the task.
func unassignedReason(e *Evaluator, m *vrp.Model, rank int) vrp.Violation {
	j := &m.Jobs[rank]
	anySkills, anyLoad := false, false
	for vi := range m.Vehicles {
		v := &m.Vehicles[vi]
		if !j.Skills.SubsetOf(v.Skills) {
			continue
		}
		anySkills = true
		if !j.Delivery.LE(v.Capacity) || !j.Pickup.LE(v.Capacity) {
			continue
		}
		anyLoad = true
	}
	switch {
	case !anySkills:
		return vrp.ViolationSkills
	case !anyLoad:
		return vrp.ViolationLoad
	case len(e.Windows(rank)) == 0:
		return vrp.ViolationDelay
	case m.PickupOf[rank] >= 0 || m.DeliveryOf[rank] >= 0:
		return vrp.ViolationPrecedence
	}
	return vrp.ViolationDelay
}

// diagnose re-walks an infeasible sequence leniently and collects every
// violated constraint instead of stopping at the first.
func diagnose(e *Evaluator, m *vrp.Model, v int, steps []Step) []vrp.Violation {
	veh := &m.Vehicles[v]
	ev := m.Eval(v)
	var out []vrp.Violation
	add := func(vl vrp.Violation) {
		for _, have := range out {
			if have == vl {
				return
			}
		}
		out = append(out, vl)
	}

	jobs := 0
	cur := vrp.NewAmount(m.AmountSize)
	for _, s := range steps {
		if s.Kind == StepJob {
			jobs++
			if j := &m.Jobs[s.Rank]; j.Type == vrp.JobSingle {
				cur.Add(j.Delivery)
			}
		}
	}
	if jobs > veh.MaxTasks {
		add(vrp.ViolationMaxTasks)
	}
	if !cur.LE(veh.Capacity) {
		add(vrp.ViolationLoad)
	}

	open := map[int]struct{}{}
	t := veh.TW.Start
	var travel, dist int64
	prev := -1
	if veh.Start != nil {
		prev = veh.Start.Index
	}
	for _, s := range steps {
		if s.Kind == StepJob {
			j := &m.Jobs[s.Rank]
			if !m.Compatible(v, s.Rank) {
				add(vrp.ViolationSkills)
			}
			if prev >= 0 {
				d := ev.Duration(prev, j.Location.Index)
				travel += d
				dist += ev.Distance(prev, j.Location.Index)
				t += d
			}
			wins := e.Windows(s.Rank)
			tw, ok := pickWindow(wins, t)
			if !ok {
				add(vrp.ViolationDelay)
				if len(wins) > 0 {
					tw = wins[len(wins)-1]
				}
			}
			if tw.Start > t {
				t = tw.Start
			}
			switch j.Type {
			case vrp.JobSingle:
				cur.Sub(j.Delivery)
				cur.Add(j.Pickup)
			case vrp.JobPickup:
				open[s.Rank] = struct{}{}
				cur.Add(j.Pickup)
			case vrp.JobDelivery:
				if _, ok := open[m.PickupOf[s.Rank]]; !ok {
					add(vrp.ViolationPrecedence)
				}
				delete(open, m.PickupOf[s.Rank])
				cur.Sub(j.Delivery)
			}
			if !cur.Nonnegative() || !cur.LE(veh.Capacity) {
				add(vrp.ViolationLoad)
			}
			t += j.Setup + j.ServiceFor(veh)
			prev = j.Location.Index
		} else {
			b := &veh.Breaks[s.Rank]
			tw, ok := pickWindow(b.TWs, t)
			if !ok {
				add(vrp.ViolationMissingBreak)
				if len(b.TWs) > 0 {
					tw = b.TWs[len(b.TWs)-1]
				}
			}
			if tw.Start > t {
				t = tw.Start
			}
			if b.MaxLoad != nil && !cur.LE(b.MaxLoad) {
				add(vrp.ViolationMaxLoad)
			}
			t += b.Service
		}
	}
	if len(open) != 0 {
		add(vrp.ViolationPrecedence)
	}
	if veh.End != nil && prev >= 0 {
		d := ev.Duration(prev, veh.End.Index)
		travel += d
		dist += ev.Distance(prev, veh.End.Index)
		t += d
	}
	if t > veh.TW.End {
		add(vrp.ViolationDelay)
	}
	if travel > veh.MaxTravelTime {
		add(vrp.ViolationMaxTravelTime)
	}
	if dist > veh.MaxDistance {
		add(vrp.ViolationMaxDistance)
	}
	return out
}
