package vrp

// Violation names a machine-readable reason a route or solution fails a
// constraint. The set is closed: reporting never invents new kinds.
type Violation string

const (
	ViolationLeadTime      Violation = "lead_time"
	ViolationDelay         Violation = "delay"
	ViolationLoad          Violation = "load"
	ViolationMaxTasks      Violation = "max_tasks"
	ViolationSkills        Violation = "skills"
	ViolationPrecedence    Violation = "precedence"
	ViolationMissingBreak  Violation = "missing_break"
	ViolationMaxTravelTime Violation = "max_travel_time"
	ViolationMaxLoad       Violation = "max_load"
	ViolationMaxDistance   Violation = "max_distance"
)
