package vrp

import "math"

// VehicleCosts is the user-facing cost model of one vehicle.
type VehicleCosts struct {
	Fixed   int64
	PerHour int64
	PerKM   int64
}

// DefaultVehicleCosts makes cost equal to duration in user units.
func DefaultVehicleCosts() VehicleCosts {
	return VehicleCosts{Fixed: 0, PerHour: DefaultCostPerHour, PerKM: DefaultCostPerKM}
}

// StepType enumerates the atomic route elements a forced step can name.
type StepType int

const (
	StepStart StepType = iota
	StepJob
	StepPickup
	StepDelivery
	StepBreak
	StepEnd
)

// ForcedService pins the service time of a forced step. Values are user
// seconds; nil means unconstrained.
type ForcedService struct {
	At     *int64
	After  *int64
	Before *int64
}

// Window folds the constraints into a scaled time window.
func (f ForcedService) Window() (TimeWindow, bool) {
	tw := DefaultTimeWindow()
	if f.At != nil {
		at := ScaleDuration(*f.At)
		return TimeWindow{Start: at, End: at}, true
	}
	bounded := false
	if f.After != nil {
		tw.Start = ScaleDuration(*f.After)
		bounded = true
	}
	if f.Before != nil {
		tw.End = ScaleDuration(*f.Before)
		bounded = true
	}
	return tw, bounded
}

// VehicleStep is one element of a user-forced route description.
type VehicleStep struct {
	Type   StepType
	ID     uint64
	Forced ForcedService
}

// Vehicle describes one logical vehicle. A vehicle declared with N time
// windows in the input is expanded into N Vehicle values sharing the id.
type Vehicle struct {
	ID            uint64
	Start         *Location
	End           *Location
	Profile       string
	Capacity      Amount
	Skills        SkillSet
	TW            TimeWindow
	Breaks        []Break
	Description   string
	Costs         VehicleCosts
	SpeedFactor   float64
	ServiceType   string
	MaxTasks      int
	MaxTravelTime int64 // ticks
	MaxDistance   int64 // meters
	Steps         []VehicleStep
}

// Defaults applied to optional vehicle bounds.
const (
	UnlimitedTasks = math.MaxInt
	UnlimitedBound = int64(math.MaxInt64)
)

// CanTake reports static compatibility with a job: skills and capacity.
func (v *Vehicle) CanTake(j *Job) bool {
	if !j.Skills.SubsetOf(v.Skills) {
		return false
	}
	if !j.Delivery.LE(v.Capacity) || !j.Pickup.LE(v.Capacity) {
		return false
	}
	return true
}

// FixedCost is the scaled fixed cost charged once a route is non-empty.
func (v *Vehicle) FixedCost() int64 { return ScaleCost(v.Costs.Fixed) }
