package vrp

// Input accumulates vehicles, tasks and matrices, then freezes into an
// immutable Model the engine solves against.
type Input struct {
	AmountSize int
	Vehicles   []Vehicle
	Jobs       []Job

	shipments [][2]int // (pickup rank, delivery rank)

	durations map[string]*Matrix
	distances map[string]*Matrix
	costs     map[string]*Matrix
}

// NewInput creates an empty input with the given amount dimension.
func NewInput(amountSize int) *Input {
	return &Input{
		AmountSize: amountSize,
		durations:  map[string]*Matrix{},
		distances:  map[string]*Matrix{},
		costs:      map[string]*Matrix{},
	}
}

// AddVehicle appends one logical vehicle.
func (in *Input) AddVehicle(v Vehicle) {
	if v.Profile == "" {
		v.Profile = DefaultProfile
	}
	if v.SpeedFactor == 0 {
		v.SpeedFactor = 1
	}
	if v.Capacity == nil {
		v.Capacity = NewAmount(in.AmountSize)
	}
	in.Vehicles = append(in.Vehicles, v)
}

// AddJob appends a single job.
func (in *Input) AddJob(j Job) {
	in.normalizeJob(&j)
	in.Jobs = append(in.Jobs, j)
}

// AddShipment appends a pickup/delivery pair sharing amount, skills and
// priority. The pairing is stored by rank, not by mutual references.
func (in *Input) AddShipment(pickup, delivery Job) {
	pickup.Type = JobPickup
	delivery.Type = JobDelivery
	in.normalizeJob(&pickup)
	in.normalizeJob(&delivery)
	p := len(in.Jobs)
	in.Jobs = append(in.Jobs, pickup, delivery)
	in.shipments = append(in.shipments, [2]int{p, p + 1})
}

func (in *Input) normalizeJob(j *Job) {
	if j.Delivery == nil {
		j.Delivery = NewAmount(in.AmountSize)
	}
	if j.Pickup == nil {
		j.Pickup = NewAmount(in.AmountSize)
	}
	if len(j.TWs) == 0 {
		j.TWs = []TimeWindow{DefaultTimeWindow()}
	}
}

// SetDurationsMatrix registers the duration matrix for a profile.
func (in *Input) SetDurationsMatrix(profile string, m *Matrix) { in.durations[profile] = m }

// SetDistancesMatrix registers the distance matrix for a profile.
func (in *Input) SetDistancesMatrix(profile string, m *Matrix) { in.distances[profile] = m }

// SetCostsMatrix registers the cost matrix for a profile.
func (in *Input) SetCostsMatrix(profile string, m *Matrix) { in.costs[profile] = m }

// HasUnresolvedLocations reports whether any location still lacks a matrix
// index, meaning a matrix provider must run before Freeze.
func (in *Input) HasUnresolvedLocations() bool {
	for i := range in.Vehicles {
		v := &in.Vehicles[i]
		if v.Start != nil && !v.Start.HasIndex() {
			return true
		}
		if v.End != nil && !v.End.HasIndex() {
			return true
		}
	}
	for i := range in.Jobs {
		if !in.Jobs[i].Location.HasIndex() {
			return true
		}
	}
	return false
}

// Locations returns the deduplicated coordinate list in rank order and
// assigns the corresponding indices to every location in the input. Used by
// matrix providers for coordinate-only problems.
func (in *Input) Locations() [][2]float64 {
	var ranks [][2]float64
	seen := map[[2]float64]int{}
	assign := func(l *Location) {
		if l == nil || l.HasIndex() || l.Coords == nil {
			return
		}
		c := *l.Coords
		r, ok := seen[c]
		if !ok {
			r = len(ranks)
			ranks = append(ranks, c)
			seen[c] = r
		}
		l.Index = r
	}
	for i := range in.Vehicles {
		assign(in.Vehicles[i].Start)
		assign(in.Vehicles[i].End)
	}
	for i := range in.Jobs {
		assign(&in.Jobs[i].Location)
	}
	return ranks
}

// Pin records that a job is fixed to one vehicle by a user-forced step,
// optionally with a narrowed service window.
type Pin struct {
	Vehicle   int
	Window    TimeWindow
	HasWindow bool
}

type jobKey struct {
	typ JobType
	id  uint64
}

// Model is the frozen, indexed problem description shared read-only by all
// search workers.
type Model struct {
	AmountSize int
	Vehicles   []Vehicle
	Jobs       []Job

	// Shipment pairing by rank; -1 when the job is not a shipment half.
	DeliveryOf []int
	PickupOf   []int

	Pinned map[int]Pin

	evals    []VehicleEval
	compat   [][]bool
	jobRanks map[jobKey]int
}

// Freeze validates the input and produces the immutable model.
func (in *Input) Freeze() (*Model, error) {
	if len(in.Vehicles) == 0 {
		return nil, inputErrorf("invalid vehicles")
	}
	if len(in.Jobs) == 0 {
		return nil, inputErrorf("invalid jobs or shipments")
	}
	if in.HasUnresolvedLocations() {
		return nil, inputErrorf("unresolved locations: no matrix index and no matrix provider")
	}

	m := &Model{
		AmountSize: in.AmountSize,
		Vehicles:   in.Vehicles,
		Jobs:       in.Jobs,
		DeliveryOf: make([]int, len(in.Jobs)),
		PickupOf:   make([]int, len(in.Jobs)),
		Pinned:     map[int]Pin{},
		jobRanks:   make(map[jobKey]int, len(in.Jobs)),
	}
	for i := range m.DeliveryOf {
		m.DeliveryOf[i] = -1
		m.PickupOf[i] = -1
	}
	for _, pair := range in.shipments {
		m.DeliveryOf[pair[0]] = pair[1]
		m.PickupOf[pair[1]] = pair[0]
	}

	for rank := range m.Jobs {
		j := &m.Jobs[rank]
		key := jobKey{typ: j.Type, id: j.ID}
		if _, dup := m.jobRanks[key]; dup {
			return nil, inputErrorf("duplicate %s id %d", j.Type, j.ID)
		}
		m.jobRanks[key] = rank
		if len(j.Delivery) != m.AmountSize || len(j.Pickup) != m.AmountSize {
			return nil, inputErrorf("inconsistent amount length for %s %d", j.Type, j.ID)
		}
		if !j.Delivery.Nonnegative() || !j.Pickup.Nonnegative() {
			return nil, inputErrorf("negative amount for %s %d", j.Type, j.ID)
		}
		if j.Priority < 0 || j.Priority > MaxPriority {
			return nil, inputErrorf("invalid priority for %s %d", j.Type, j.ID)
		}
		if err := checkTWs(j.TWs, j.ID, j.Type.String()); err != nil {
			return nil, err
		}
	}

	for vi := range m.Vehicles {
		v := &m.Vehicles[vi]
		if len(v.Capacity) != m.AmountSize {
			return nil, inputErrorf("inconsistent capacity length for vehicle %d", v.ID)
		}
		if !v.Capacity.Nonnegative() {
			return nil, inputErrorf("negative capacity for vehicle %d", v.ID)
		}
		if v.SpeedFactor <= 0 || v.SpeedFactor > MaxSpeedFactor {
			return nil, inputErrorf("invalid speed_factor for vehicle %d", v.ID)
		}
		if v.TW.Start > v.TW.End {
			return nil, inputErrorf("invalid time window for vehicle %d", v.ID)
		}
		for bi := range v.Breaks {
			b := &v.Breaks[bi]
			if err := checkTWs(b.TWs, b.ID, "break"); err != nil {
				return nil, err
			}
			if b.MaxLoad != nil && len(b.MaxLoad) != m.AmountSize {
				return nil, inputErrorf("inconsistent max_load length for break %d", b.ID)
			}
		}
	}

	if err := m.buildEvals(in); err != nil {
		return nil, err
	}
	if err := m.buildPins(); err != nil {
		return nil, err
	}
	m.buildCompat()
	return m, nil
}

func (m *Model) buildEvals(in *Input) error {
	maxIndex := 0
	note := func(l *Location) {
		if l != nil && l.Index > maxIndex {
			maxIndex = l.Index
		}
	}
	for vi := range m.Vehicles {
		note(m.Vehicles[vi].Start)
		note(m.Vehicles[vi].End)
	}
	for ji := range m.Jobs {
		note(&m.Jobs[ji].Location)
	}

	m.evals = make([]VehicleEval, len(m.Vehicles))
	for vi := range m.Vehicles {
		v := &m.Vehicles[vi]
		dur, ok := in.durations[v.Profile]
		if !ok {
			return inputErrorf("no durations matrix for profile %q", v.Profile)
		}
		if dur.Size() <= maxIndex {
			return inputErrorf("location index out of range for profile %q", v.Profile)
		}
		dist := in.distances[v.Profile]
		if dist != nil && dist.Size() != dur.Size() {
			return inputErrorf("inconsistent matrix sizes for profile %q", v.Profile)
		}
		cost := in.costs[v.Profile]
		if cost != nil && cost.Size() != dur.Size() {
			return inputErrorf("inconsistent matrix sizes for profile %q", v.Profile)
		}
		m.evals[vi] = VehicleEval{
			durations: dur,
			distances: dist,
			costs:     cost,
			speed:     v.SpeedFactor,
			perHour:   v.Costs.PerHour,
			perKM:     v.Costs.PerKM,
		}
	}
	return nil
}

func (m *Model) buildPins() error {
	for vi := range m.Vehicles {
		for _, step := range m.Vehicles[vi].Steps {
			var typ JobType
			switch step.Type {
			case StepJob:
				typ = JobSingle
			case StepPickup:
				typ = JobPickup
			case StepDelivery:
				typ = JobDelivery
			default:
				continue // start/end/break carry no task pin
			}
			rank, ok := m.jobRanks[jobKey{typ: typ, id: step.ID}]
			if !ok {
				return inputErrorf("unknown %s id %d in steps for vehicle %d",
					typ, step.ID, m.Vehicles[vi].ID)
			}
			if prev, dup := m.Pinned[rank]; dup && prev.Vehicle != vi {
				return inputErrorf("task %d appears in steps of several vehicles", step.ID)
			}
			pin := Pin{Vehicle: vi}
			if w, bounded := step.Forced.Window(); bounded {
				pin.Window = w
				pin.HasWindow = true
			}
			m.Pinned[rank] = pin
		}
	}
	return nil
}

func (m *Model) buildCompat() {
	m.compat = make([][]bool, len(m.Vehicles))
	for vi := range m.Vehicles {
		v := &m.Vehicles[vi]
		row := make([]bool, len(m.Jobs))
		for ji := range m.Jobs {
			j := &m.Jobs[ji]
			if pin, ok := m.Pinned[ji]; ok && pin.Vehicle != vi {
				continue
			}
			if !v.CanTake(j) {
				continue
			}
			// Loose horizon overlap; exact timing is the evaluator's call.
			if j.TWs[0].Start > v.TW.End || j.TWs[len(j.TWs)-1].End < v.TW.Start {
				continue
			}
			row[ji] = true
		}
		m.compat[vi] = row
	}
}

// Eval returns the cost oracle bound to one vehicle.
func (m *Model) Eval(v int) *VehicleEval { return &m.evals[v] }

// Compatible reports whether job j can ever ride on vehicle v.
func (m *Model) Compatible(v, j int) bool { return m.compat[v][j] }

// JobRank resolves a task id of a given type to its rank.
func (m *Model) JobRank(typ JobType, id uint64) (int, bool) {
	r, ok := m.jobRanks[jobKey{typ: typ, id: id}]
	return r, ok
}
