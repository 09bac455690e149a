package vrp

// JobType distinguishes regular one-stop jobs from shipment halves.
type JobType int

const (
	JobSingle JobType = iota
	JobPickup
	JobDelivery
)

func (t JobType) String() string {
	switch t {
	case JobPickup:
		return "pickup"
	case JobDelivery:
		return "delivery"
	default:
		return "job"
	}
}

// Job is a task to serve at a location. Durations are internal ticks, time
// windows are scaled and sorted. For shipment halves, Pickup (on the pickup
// side) and Delivery (on the delivery side) hold the shared shipment amount.
type Job struct {
	ID            uint64
	Type          JobType
	Location      Location
	Setup         int64
	Service       int64
	ServiceByType map[string]int64
	Delivery      Amount
	Pickup        Amount
	Skills        SkillSet
	Priority      int
	TWs           []TimeWindow
	Description   string
}

// ServiceFor returns the service duration for a vehicle, honoring
// service_per_vehicle_type overrides keyed by the vehicle service type
// (falling back to its profile).
func (j *Job) ServiceFor(v *Vehicle) int64 {
	if len(j.ServiceByType) > 0 {
		key := v.ServiceType
		if key == "" {
			key = v.Profile
		}
		if s, ok := j.ServiceByType[key]; ok {
			return s
		}
	}
	return j.Service
}
