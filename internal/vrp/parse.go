package vrp

import (
	"encoding/json"
	"sort"
)

type jsonCosts struct {
	Fixed   *int64 `json:"fixed"`
	PerHour *int64 `json:"per_hour"`
	PerKM   *int64 `json:"per_km"`
}

type jsonBreak struct {
	ID          *uint64   `json:"id"`
	TimeWindows [][]int64 `json:"time_windows"`
	Service     int64     `json:"service"`
	Description string    `json:"description"`
	MaxLoad     []int64   `json:"max_load"`
}

type jsonStep struct {
	Type          string  `json:"type"`
	ID            *uint64 `json:"id"`
	ServiceAt     *int64  `json:"service_at"`
	ServiceAfter  *int64  `json:"service_after"`
	ServiceBefore *int64  `json:"service_before"`
}

type jsonVehicle struct {
	ID            *uint64     `json:"id"`
	Start         []float64   `json:"start"`
	End           []float64   `json:"end"`
	StartIndex    *int        `json:"start_index"`
	EndIndex      *int        `json:"end_index"`
	Profile       string      `json:"profile"`
	Capacity      []int64     `json:"capacity"`
	Skills        []uint32    `json:"skills"`
	TimeWindow    []int64     `json:"time_window"`
	TimeWindows   [][]int64   `json:"time_windows"`
	Breaks        []jsonBreak `json:"breaks"`
	Description   string      `json:"description"`
	Costs         *jsonCosts  `json:"costs"`
	SpeedFactor   *float64    `json:"speed_factor"`
	ServiceType   string      `json:"service_type"`
	MaxTasks      *int        `json:"max_tasks"`
	MaxTravelTime *int64      `json:"max_travel_time"`
	MaxDistance   *int64      `json:"max_distance"`
	Steps         []jsonStep  `json:"steps"`
}

type jsonTask struct {
	ID                *uint64          `json:"id"`
	Location          []float64        `json:"location"`
	LocationIndex     *int             `json:"location_index"`
	Setup             int64            `json:"setup"`
	Service           int64            `json:"service"`
	ServicePerVehType map[string]int64 `json:"service_per_vehicle_type"`
	Delivery          []int64          `json:"delivery"`
	Pickup            []int64          `json:"pickup"`
	Amount            []int64          `json:"amount"` // deprecated, delivery
	Skills            []uint32         `json:"skills"`
	Priority          *int             `json:"priority"`
	TimeWindows       [][]int64        `json:"time_windows"`
	Description       string           `json:"description"`
}

type jsonShipment struct {
	Pickup   *jsonTask `json:"pickup"`
	Delivery *jsonTask `json:"delivery"`
	Amount   []int64   `json:"amount"`
	Skills   []uint32  `json:"skills"`
	Priority *int      `json:"priority"`
}

type jsonMatrices struct {
	Durations [][]int64 `json:"durations"`
	Distances [][]int64 `json:"distances"`
	Costs     [][]int64 `json:"costs"`
}

type jsonProblem struct {
	Jobs      []jsonTask              `json:"jobs"`
	Shipments []jsonShipment          `json:"shipments"`
	Vehicles  []jsonVehicle           `json:"vehicles"`
	Matrices  map[string]jsonMatrices `json:"matrices"`
	Matrix    [][]int64               `json:"matrix"` // deprecated: matrices.car.durations
}

// ParseProblem decodes a problem document into an Input ready to freeze.
// The amount dimension is fixed by the first vehicle's capacity length.
func ParseProblem(data []byte) (*Input, error) {
	var doc jsonProblem
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, inputErrorf("invalid json: %v", err)
	}
	if len(doc.Jobs) == 0 && len(doc.Shipments) == 0 {
		return nil, inputErrorf("invalid jobs or shipments")
	}
	if len(doc.Vehicles) == 0 {
		return nil, inputErrorf("invalid vehicles")
	}

	amountSize := len(doc.Vehicles[0].Capacity)
	in := NewInput(amountSize)

	for i := range doc.Vehicles {
		if err := addVehicles(in, &doc.Vehicles[i]); err != nil {
			return nil, err
		}
	}
	for i := range doc.Jobs {
		j, err := parseTask(&doc.Jobs[i], "job", amountSize)
		if err != nil {
			return nil, err
		}
		in.AddJob(j)
	}
	for i := range doc.Shipments {
		if err := addShipment(in, &doc.Shipments[i], amountSize); err != nil {
			return nil, err
		}
	}

	for profile, mats := range doc.Matrices {
		if err := setMatrices(in, profile, mats); err != nil {
			return nil, err
		}
	}
	if doc.Matrices == nil && doc.Matrix != nil {
		m, err := MatrixFromRows(doc.Matrix)
		if err != nil {
			return nil, err
		}
		in.SetDurationsMatrix(DefaultProfile, m)
	}
	return in, nil
}

func setMatrices(in *Input, profile string, mats jsonMatrices) error {
	if mats.Durations != nil {
		m, err := MatrixFromRows(mats.Durations)
		if err != nil {
			return err
		}
		in.SetDurationsMatrix(profile, m)
	}
	if mats.Distances != nil {
		m, err := MatrixFromRows(mats.Distances)
		if err != nil {
			return err
		}
		in.SetDistancesMatrix(profile, m)
	}
	if mats.Costs != nil {
		m, err := MatrixFromRows(mats.Costs)
		if err != nil {
			return err
		}
		in.SetCostsMatrix(profile, m)
	}
	return nil
}

func parseLocation(coords []float64, index *int, kind string, id uint64) (*Location, error) {
	if index != nil {
		if *index < 0 {
			return nil, inputErrorf("invalid %s_index for %d", kind, id)
		}
		l := NewIndexLocation(*index)
		if len(coords) >= 2 {
			l.Coords = &[2]float64{coords[0], coords[1]}
		}
		return &l, nil
	}
	if coords != nil {
		if len(coords) < 2 {
			return nil, inputErrorf("invalid %s array for %d", kind, id)
		}
		l := NewCoordLocation(coords[0], coords[1])
		return &l, nil
	}
	return nil, nil
}

func parseTWs(raw [][]int64, id uint64, kind string) ([]TimeWindow, error) {
	if raw == nil {
		return nil, nil
	}
	if len(raw) == 0 {
		return nil, inputErrorf("invalid time_windows array for %s %d", kind, id)
	}
	tws := make([]TimeWindow, 0, len(raw))
	for _, pair := range raw {
		tw, err := parseTW(pair)
		if err != nil {
			return nil, inputErrorf("invalid time-window for %s %d", kind, id)
		}
		tws = append(tws, tw)
	}
	sort.Slice(tws, func(i, j int) bool {
		return tws[i].Start < tws[j].Start ||
			(tws[i].Start == tws[j].Start && tws[i].End < tws[j].End)
	})
	if err := checkTWs(tws, id, kind); err != nil {
		return nil, err
	}
	return tws, nil
}

func parseTW(pair []int64) (TimeWindow, error) {
	if len(pair) < 2 || pair[0] < 0 || pair[1] < 0 || pair[0] > pair[1] {
		return TimeWindow{}, inputErrorf("invalid time-window")
	}
	return TimeWindow{Start: ScaleDuration(pair[0]), End: ScaleDuration(pair[1])}, nil
}

func parseAmount(raw []int64, key string, id uint64, size int) (Amount, error) {
	if raw == nil {
		return NewAmount(size), nil
	}
	if len(raw) != size {
		return nil, inputErrorf("inconsistent %s length: %d and %d", key, len(raw), size)
	}
	a := make(Amount, size)
	for i, v := range raw {
		if v < 0 {
			return nil, inputErrorf("invalid %s value for %d", key, id)
		}
		a[i] = v
	}
	return a, nil
}

func parseDuration(v int64, key string, id uint64) (int64, error) {
	if v < 0 {
		return 0, inputErrorf("invalid %s duration for %d", key, id)
	}
	return ScaleDuration(v), nil
}

func parseTask(t *jsonTask, kind string, amountSize int) (Job, error) {
	if t.ID == nil {
		return Job{}, inputErrorf("invalid or missing id for %s", kind)
	}
	id := *t.ID
	loc, err := parseLocation(t.Location, t.LocationIndex, "location", id)
	if err != nil {
		return Job{}, err
	}
	if loc == nil {
		return Job{}, inputErrorf("invalid location for %s %d", kind, id)
	}
	setup, err := parseDuration(t.Setup, "setup", id)
	if err != nil {
		return Job{}, err
	}
	service, err := parseDuration(t.Service, "service", id)
	if err != nil {
		return Job{}, err
	}
	var byType map[string]int64
	if len(t.ServicePerVehType) > 0 {
		byType = make(map[string]int64, len(t.ServicePerVehType))
		for k, v := range t.ServicePerVehType {
			d, derr := parseDuration(v, "service_per_vehicle_type", id)
			if derr != nil {
				return Job{}, derr
			}
			byType[k] = d
		}
	}
	// Legacy amount key means delivery when neither explicit key is set.
	deliveryRaw := t.Delivery
	if deliveryRaw == nil && t.Pickup == nil && t.Amount != nil {
		deliveryRaw = t.Amount
	}
	delivery, err := parseAmount(deliveryRaw, "delivery", id, amountSize)
	if err != nil {
		return Job{}, err
	}
	pickup, err := parseAmount(t.Pickup, "pickup", id, amountSize)
	if err != nil {
		return Job{}, err
	}
	priority := 0
	if t.Priority != nil {
		priority = *t.Priority
		if priority < 0 || priority > MaxPriority {
			return Job{}, inputErrorf("invalid priority value for %s %d", kind, id)
		}
	}
	tws, err := parseTWs(t.TimeWindows, id, kind)
	if err != nil {
		return Job{}, err
	}
	return Job{
		ID:            id,
		Type:          JobSingle,
		Location:      *loc,
		Setup:         setup,
		Service:       service,
		ServiceByType: byType,
		Delivery:      delivery,
		Pickup:        pickup,
		Skills:        NewSkillSet(t.Skills),
		Priority:      priority,
		TWs:           tws,
		Description:   t.Description,
	}, nil
}

func addShipment(in *Input, s *jsonShipment, amountSize int) error {
	if s.Pickup == nil {
		return inputErrorf("missing pickup for shipment")
	}
	if s.Delivery == nil {
		return inputErrorf("missing delivery for shipment")
	}
	pickup, err := parseTask(s.Pickup, "pickup", amountSize)
	if err != nil {
		return err
	}
	delivery, err := parseTask(s.Delivery, "delivery", amountSize)
	if err != nil {
		return err
	}
	amount, err := parseAmount(s.Amount, "amount", pickup.ID, amountSize)
	if err != nil {
		return err
	}
	priority := 0
	if s.Priority != nil {
		priority = *s.Priority
		if priority < 0 || priority > MaxPriority {
			return inputErrorf("invalid priority value for shipment")
		}
	}
	skills := NewSkillSet(s.Skills)

	pickup.Pickup = amount.Clone()
	pickup.Delivery = NewAmount(amountSize)
	pickup.Skills = skills
	pickup.Priority = priority
	delivery.Delivery = amount.Clone()
	delivery.Pickup = NewAmount(amountSize)
	delivery.Skills = skills
	delivery.Priority = priority

	in.AddShipment(pickup, delivery)
	return nil
}

func addVehicles(in *Input, v *jsonVehicle) error {
	if v.ID == nil {
		return inputErrorf("invalid or missing id for vehicle")
	}
	id := *v.ID
	start, err := parseLocation(v.Start, v.StartIndex, "start", id)
	if err != nil {
		return err
	}
	end, err := parseLocation(v.End, v.EndIndex, "end", id)
	if err != nil {
		return err
	}
	capacity, err := parseAmount(v.Capacity, "capacity", id, in.AmountSize)
	if err != nil {
		return err
	}
	costs := DefaultVehicleCosts()
	if v.Costs != nil {
		if v.Costs.Fixed != nil {
			if *v.Costs.Fixed < 0 {
				return inputErrorf("invalid fixed cost for vehicle %d", id)
			}
			costs.Fixed = *v.Costs.Fixed
		}
		if v.Costs.PerHour != nil {
			if *v.Costs.PerHour < 0 {
				return inputErrorf("invalid per_hour cost for vehicle %d", id)
			}
			costs.PerHour = *v.Costs.PerHour
		}
		if v.Costs.PerKM != nil {
			if *v.Costs.PerKM < 0 {
				return inputErrorf("invalid per_km cost for vehicle %d", id)
			}
			costs.PerKM = *v.Costs.PerKM
		}
	}
	speed := 1.0
	if v.SpeedFactor != nil {
		speed = *v.SpeedFactor
		if speed <= 0 || speed > MaxSpeedFactor {
			return inputErrorf("invalid speed_factor for vehicle %d", id)
		}
	}
	breaks, err := parseBreaks(v.Breaks, id, in.AmountSize)
	if err != nil {
		return err
	}
	steps, err := parseSteps(v.Steps, id)
	if err != nil {
		return err
	}
	maxTasks := UnlimitedTasks
	if v.MaxTasks != nil {
		if *v.MaxTasks < 0 {
			return inputErrorf("invalid max_tasks for vehicle %d", id)
		}
		maxTasks = *v.MaxTasks
	}
	maxTravel := UnlimitedBound
	if v.MaxTravelTime != nil {
		if *v.MaxTravelTime < 0 {
			return inputErrorf("invalid max_travel_time for vehicle %d", id)
		}
		maxTravel = ScaleDuration(*v.MaxTravelTime)
	}
	maxDistance := UnlimitedBound
	if v.MaxDistance != nil {
		if *v.MaxDistance < 0 {
			return inputErrorf("invalid max_distance for vehicle %d", id)
		}
		maxDistance = *v.MaxDistance
	}

	base := Vehicle{
		ID:            id,
		Start:         start,
		End:           end,
		Profile:       v.Profile,
		Capacity:      capacity,
		Skills:        NewSkillSet(v.Skills),
		TW:            DefaultTimeWindow(),
		Breaks:        breaks,
		Description:   v.Description,
		Costs:         costs,
		SpeedFactor:   speed,
		ServiceType:   v.ServiceType,
		MaxTasks:      maxTasks,
		MaxTravelTime: maxTravel,
		MaxDistance:   maxDistance,
		Steps:         steps,
	}

	// Multiple time_windows expand the vehicle into logical vehicles
	// sharing the id, one per window.
	if v.TimeWindows != nil {
		tws, terr := parseTWs(v.TimeWindows, id, "vehicle")
		if terr != nil {
			return terr
		}
		for _, tw := range tws {
			expanded := base
			expanded.TW = tw
			in.AddVehicle(expanded)
		}
		return nil
	}
	if v.TimeWindow != nil {
		tw, terr := parseTW(v.TimeWindow)
		if terr != nil {
			return inputErrorf("invalid time_window for vehicle %d", id)
		}
		base.TW = tw
	}
	in.AddVehicle(base)
	return nil
}

func parseBreaks(raw []jsonBreak, vehicleID uint64, amountSize int) ([]Break, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	breaks := make([]Break, 0, len(raw))
	for i := range raw {
		b := &raw[i]
		if b.ID == nil {
			return nil, inputErrorf("invalid or missing id for break of vehicle %d", vehicleID)
		}
		tws, err := parseTWs(b.TimeWindows, *b.ID, "break")
		if err != nil {
			return nil, err
		}
		if tws == nil {
			tws = []TimeWindow{DefaultTimeWindow()}
		}
		service, err := parseDuration(b.Service, "service", *b.ID)
		if err != nil {
			return nil, err
		}
		var maxLoad Amount
		if b.MaxLoad != nil {
			maxLoad, err = parseAmount(b.MaxLoad, "max_load", *b.ID, amountSize)
			if err != nil {
				return nil, err
			}
		}
		breaks = append(breaks, Break{
			ID:          *b.ID,
			TWs:         tws,
			Service:     service,
			Description: b.Description,
			MaxLoad:     maxLoad,
		})
	}
	sort.SliceStable(breaks, func(i, j int) bool {
		a, b := breaks[i].TWs[0], breaks[j].TWs[0]
		return a.Start < b.Start || (a.Start == b.Start && a.End < b.End)
	})
	return breaks, nil
}

func parseSteps(raw []jsonStep, vehicleID uint64) ([]VehicleStep, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	steps := make([]VehicleStep, 0, len(raw))
	for i := range raw {
		s := &raw[i]
		forced := ForcedService{At: s.ServiceAt, After: s.ServiceAfter, Before: s.ServiceBefore}
		var typ StepType
		switch s.Type {
		case "start":
			steps = append(steps, VehicleStep{Type: StepStart, Forced: forced})
			continue
		case "end":
			steps = append(steps, VehicleStep{Type: StepEnd, Forced: forced})
			continue
		case "job":
			typ = StepJob
		case "pickup":
			typ = StepPickup
		case "delivery":
			typ = StepDelivery
		case "break":
			typ = StepBreak
		default:
			return nil, inputErrorf("invalid type in steps for vehicle %d", vehicleID)
		}
		if s.ID == nil {
			return nil, inputErrorf("invalid id in steps for vehicle %d", vehicleID)
		}
		steps = append(steps, VehicleStep{Type: typ, ID: *s.ID, Forced: forced})
	}
	return steps, nil
}
