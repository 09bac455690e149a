package vrp

// Output document types, all values in user units.

// OutputStep is one element of a planned route.
type OutputStep struct {
	Type        string       `json:"type"`
	ID          uint64       `json:"id,omitempty"`
	Description string       `json:"description,omitempty"`
	Location    *[2]float64  `json:"location,omitempty"`
	Arrival     int64        `json:"arrival"`
	Setup       int64        `json:"setup"`
	Service     int64        `json:"service"`
	WaitingTime int64        `json:"waiting_time"`
	Load        Amount       `json:"load,omitempty"`
	Duration    int64        `json:"duration"`
	Distance    int64        `json:"distance,omitempty"`
	Violations  []Violation  `json:"violations,omitempty"`
}

// OutputRoute is the planned route of one vehicle.
type OutputRoute struct {
	Vehicle     uint64       `json:"vehicle"`
	Description string       `json:"description,omitempty"`
	Steps       []OutputStep `json:"steps"`
	Cost        int64        `json:"cost"`
	Setup       int64        `json:"setup"`
	Service     int64        `json:"service"`
	Duration    int64        `json:"duration"`
	WaitingTime int64        `json:"waiting_time"`
	Distance    int64        `json:"distance,omitempty"`
	Priority    int64        `json:"priority"`
	Delivery    Amount       `json:"delivery,omitempty"`
	Pickup      Amount       `json:"pickup,omitempty"`
	Violations  []Violation  `json:"violations,omitempty"`
}

// UnassignedTask names a task left out of the solution with a reason code.
type UnassignedTask struct {
	ID       uint64      `json:"id"`
	Type     string      `json:"type"`
	Location *[2]float64 `json:"location,omitempty"`
	Reason   string      `json:"reason"`
}

// Summary aggregates the whole solution.
type Summary struct {
	Cost        int64       `json:"cost"`
	Routes      int         `json:"routes"`
	Unassigned  int         `json:"unassigned"`
	Priority    int64       `json:"priority"`
	Setup       int64       `json:"setup"`
	Service     int64       `json:"service"`
	Duration    int64       `json:"duration"`
	WaitingTime int64       `json:"waiting_time"`
	Distance    int64       `json:"distance,omitempty"`
	Delivery    Amount      `json:"delivery,omitempty"`
	Pickup      Amount      `json:"pickup,omitempty"`
	Violations  []Violation `json:"violations,omitempty"`
}

// Output is the complete solution document.
type Output struct {
	Code       int              `json:"code"`
	Error      string           `json:"error,omitempty"`
	Summary    Summary          `json:"summary"`
	Unassigned []UnassignedTask `json:"unassigned"`
	Routes     []OutputRoute    `json:"routes"`
}

// Exit / response codes of the solver.
const (
	CodeOK         = 0
	CodeInternal   = 1
	CodeInput      = 2
	CodeRouting    = 3
	CodeNoSolution = 4
)
